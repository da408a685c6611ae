// Package main provides the specref CLI entrypoint:
//
//	specref validate <doc>
//	specref check <doc>
//	specref resolve <doc> <procedure> [--subst T=i32]
//	specref explain <doc> <procedure> [--subst T=i32]
//	specref chain <doc> <procedure> [--subst T=i32]
//	specref loop <doc> <site>
//	specref repl <doc>
//	specref schema
//	specref trace verify <trace.jsonl>
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/specref/pkg/config"
	"github.com/ormasoftchile/specref/pkg/kernel/check"
	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/trace"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "specref",
	Short:         "Specification resolution and refinement engine",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Persistent flags override specref.yaml values when set.
var (
	flagFormat           string
	flagTrace            string
	flagDiagnostics      string
	flagLogLevel         string
	flagWarningsAsErrors bool
	flagNoColor          bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagFormat, "format", config.FormatText, "Output format: text or json")
	pf.StringVar(&flagTrace, "trace", "", "Write a resolution trace to a JSONL file")
	pf.StringVar(&flagDiagnostics, "diagnostics", "", "Also write diagnostics to a JSONL file")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, or error")
	pf.BoolVar(&flagWarningsAsErrors, "warnings-as-errors", false, "Fail when any diagnostic is reported")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "specref specref/v0 %s (%s)\n", version, commit)
	},
}

// --- shared setup ---

// loadConfig discovers specref.yaml next to (or above) docPath and applies
// explicitly set flags on top.
func loadConfig(cmd *cobra.Command, docPath string) (*config.Config, error) {
	cfg, err := config.DiscoverOrDefault(docPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = flagFormat
	}
	if flags.Changed("trace") {
		cfg.Trace = flagTrace
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("warnings-as-errors") {
		cfg.WarningsAsErrors = flagWarningsAsErrors
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func useColor() bool {
	return !flagNoColor && os.Getenv("NO_COLOR") == ""
}

// openSession loads the document at path with trace and diagnostic sinks
// configured. The returned cleanup closes any opened files.
func openSession(cmd *cobra.Command, path string) (*check.Session, *config.Config, func(), error) {
	cfg, err := loadConfig(cmd, path)
	if err != nil {
		return nil, nil, nil, err
	}

	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	rc := check.RunConfig{
		Name:             path,
		Logger:           logger,
		WarningsAsErrors: cfg.WarningsAsErrors,
	}
	if cfg.Trace != "" {
		tw, c, err := trace.NewFileWriter(cfg.Trace, "pass-1")
		if err != nil {
			return nil, nil, nil, fmt.Errorf("trace: %w", err)
		}
		closers = append(closers, c)
		rc.Trace = tw
	}
	if flagDiagnostics != "" {
		w, c, err := diag.NewFileWriter(flagDiagnostics)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("diagnostics: %w", err)
		}
		closers = append(closers, c)
		rc.Sink = w
	}

	s, err := check.Load(path, rc)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	logger.Debug("session ready", "document", path, slog.Int("calls", len(s.Doc.Calls)))
	return s, cfg, cleanup, nil
}
