package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/specref/pkg/config"
	"github.com/ormasoftchile/specref/pkg/diagram"
	"github.com/ormasoftchile/specref/pkg/kernel/check"
	"github.com/ormasoftchile/specref/pkg/kernel/table"
	"github.com/ormasoftchile/specref/pkg/render"
)

var (
	flagSubsts  []string
	flagDiagram string
	flagHTML    bool
	flagRaw     bool
)

// --- resolve ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [document.yaml] [procedure]",
	Short: "Print the specification governing a call (JSON)",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, _, cleanup, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	q, err := check.ParseQuery(args[1], flagSubsts)
	if err != nil {
		return err
	}
	sp, err := s.Engine.Resolve(q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"query": q.String(), "spec": sp}); err != nil {
		return err
	}
	return reportDiagnostics(cmd, s)
}

// --- explain ---

var explainCmd = &cobra.Command{
	Use:   "explain [document.yaml] [procedure]",
	Short: "Render a contract report for a call",
	Args:  cobra.ExactArgs(2),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	s, _, cleanup, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	ex, err := explain(s, args[1])
	if err != nil {
		return err
	}
	md := render.Markdown(render.ContractFrom(ex))

	out := cmd.OutOrStdout()
	switch {
	case flagHTML:
		html, err := render.HTML(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, html)
	case flagRaw || !useColor():
		fmt.Fprint(out, md)
	default:
		fmt.Fprintln(out, render.Terminal(md, 100))
	}
	return reportDiagnostics(cmd, s)
}

// --- chain ---

var chainCmd = &cobra.Command{
	Use:   "chain [document.yaml] [procedure]",
	Short: "Draw the override chain of a call",
	Args:  cobra.ExactArgs(2),
	RunE:  runChain,
}

func runChain(cmd *cobra.Command, args []string) error {
	s, _, cleanup, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	ex, err := explain(s, args[1])
	if err != nil {
		return err
	}
	out, err := diagram.Generate(diagram.FromExplanation(ex), diagram.Format(flagDiagram))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return reportDiagnostics(cmd, s)
}

// --- loop ---

var loopCmd = &cobra.Command{
	Use:   "loop [document.yaml] [site]",
	Short: "Print the invariant of a loop site",
	Args:  cobra.ExactArgs(2),
	RunE:  runLoop,
}

func runLoop(cmd *cobra.Command, args []string) error {
	s, cfg, cleanup, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	ls, ok := s.Engine.LoopSpec(table.LoopSiteID(args[1]))
	if !ok {
		return fmt.Errorf("no loop specification for %q", args[1])
	}
	out := cmd.OutOrStdout()
	if cfg.Format == config.FormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ls)
	}
	for _, c := range ls.Invariant {
		fmt.Fprintf(out, "invariant %s\n", c.Expr)
	}
	return nil
}

func explain(s *check.Session, procedure string) (*check.Explanation, error) {
	q, err := check.ParseQuery(procedure, flagSubsts)
	if err != nil {
		return nil, err
	}
	return s.Explain(q)
}

// reportDiagnostics prints diagnostics produced by single-query commands to
// stderr and fails when any is an error.
func reportDiagnostics(cmd *cobra.Command, s *check.Session) error {
	diags := s.Collector.Diagnostics()
	if len(diags) == 0 {
		return nil
	}
	p := render.NewPrinter(cmd.ErrOrStderr(), useColor())
	for _, d := range diags {
		p.Diagnostic(d)
	}
	if s.Collector.HasErrors() {
		return fmt.Errorf("%d diagnostic(s) reported", len(diags))
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, explainCmd, chainCmd} {
		c.Flags().StringArrayVar(&flagSubsts, "subst", nil, "Generic substitution NAME=TYPE, repeatable")
	}
	chainCmd.Flags().StringVar(&flagDiagram, "diagram", string(diagram.FormatASCII), "Diagram format: ascii or mermaid")
	explainCmd.Flags().BoolVar(&flagHTML, "html", false, "Render the report as HTML")
	explainCmd.Flags().BoolVar(&flagRaw, "raw", false, "Print raw markdown")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(loopCmd)
}
