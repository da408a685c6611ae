package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/specref/pkg/config"
	"github.com/ormasoftchile/specref/pkg/kernel/check"
	kvalidate "github.com/ormasoftchile/specref/pkg/kernel/validate"
	"github.com/ormasoftchile/specref/pkg/render"
)

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [document.yaml]",
	Short: "Validate a specref/v0 document (3-phase pipeline)",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	doc, errs := kvalidate.ValidateFile(args[0])
	var errors []*kvalidate.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(errOut, "  ⚠ [%s] %s\n", e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(errOut, "    at: %s\n", e.Path)
			}
		} else {
			errors = append(errors, e)
		}
	}
	if len(errors) > 0 {
		fmt.Fprintf(errOut, "Validation failed: %d error(s)\n\n", len(errors))
		for i, e := range errors {
			fmt.Fprintf(errOut, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(errOut, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errors))
	}
	fmt.Fprintf(out, "✓ %s is valid (%d procedures, %d specifications, %d call sites)\n",
		args[0], len(doc.Program.Procedures), len(doc.Specs.Procedures), len(doc.Calls))
	return nil
}

// --- check ---

var checkCmd = &cobra.Command{
	Use:   "check [document.yaml]",
	Short: "Resolve every call site and report specification diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, cfg, cleanup, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	result := s.Run(cmd.Context())
	out := cmd.OutOrStdout()

	if cfg.Format == config.FormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		render.NewPrinter(out, useColor()).Summary(result.Diagnostics)
		fmt.Fprintf(out, "%d call site(s), %d refinement(s), %s\n",
			len(result.Resolutions), s.Engine.CacheLen(), result.Duration)
	}

	switch result.Status {
	case check.StatusError:
		return fmt.Errorf("internal error: %w", result.Error)
	case check.StatusFailed:
		return fmt.Errorf("check failed")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
}
