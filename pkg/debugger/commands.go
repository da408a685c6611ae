package debugger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ormasoftchile/specref/pkg/diagram"
	"github.com/ormasoftchile/specref/pkg/kernel/check"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/table"
	"github.com/ormasoftchile/specref/pkg/render"
)

// handleResolve prints the specification governing a query as JSON, and
// any diagnostics the resolution produced.
func (d *Debugger) handleResolve(parts []string) error {
	if len(parts) < 2 {
		fmt.Fprintf(d.output, "Usage: resolve <procedure> [NAME=TYPE ...]\n")
		return nil
	}
	q, err := check.ParseQuery(parts[1], parts[2:])
	if err != nil {
		return err
	}

	before := len(d.session.Collector.Diagnostics())
	sp, err := d.session.Engine.Resolve(q)
	if err != nil {
		return err
	}
	if sp == nil {
		fmt.Fprintf(d.output, "%s: no specification\n", q)
	} else {
		data, _ := json.MarshalIndent(sp, "", "  ")
		fmt.Fprintf(d.output, "%s:\n%s\n", q, data)
	}
	for _, diag := range d.session.Collector.Diagnostics()[before:] {
		d.printer.Diagnostic(diag)
	}
	return nil
}

// handleExplain prints the markdown contract report of a query.
func (d *Debugger) handleExplain(parts []string) error {
	if len(parts) < 2 {
		fmt.Fprintf(d.output, "Usage: explain <procedure> [NAME=TYPE ...]\n")
		return nil
	}
	q, err := check.ParseQuery(parts[1], parts[2:])
	if err != nil {
		return err
	}
	ex, err := d.session.Explain(q)
	if err != nil {
		return err
	}
	md := render.Markdown(render.ContractFrom(ex))
	if d.color {
		md = render.Terminal(md, 0)
	}
	fmt.Fprintln(d.output, md)
	return nil
}

// handleChain draws the override chain of a query.
func (d *Debugger) handleChain(parts []string) error {
	if len(parts) < 2 {
		fmt.Fprintf(d.output, "Usage: chain <procedure> [NAME=TYPE ...]\n")
		return nil
	}
	q, err := check.ParseQuery(parts[1], parts[2:])
	if err != nil {
		return err
	}
	ex, err := d.session.Explain(q)
	if err != nil {
		return err
	}
	out, err := diagram.Generate(diagram.FromExplanation(ex), diagram.FormatASCII)
	if err != nil {
		return err
	}
	fmt.Fprint(d.output, out)
	return nil
}

// handleLoop prints a loop invariant.
func (d *Debugger) handleLoop(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(d.output, "Usage: loop <site>\n")
		return
	}
	ls, ok := d.session.Engine.LoopSpec(table.LoopSiteID(parts[1]))
	if !ok {
		fmt.Fprintf(d.output, "No loop specification for %q.\n", parts[1])
		return
	}
	for _, c := range ls.Invariant {
		fmt.Fprintf(d.output, "  invariant %s\n", c.Expr)
	}
}

// handleExtern lists extern specification targets.
func (d *Debugger) handleExtern() {
	targets := d.session.Engine.ExternTargets()
	if len(targets) == 0 {
		fmt.Fprintf(d.output, "No extern specifications.\n")
		return
	}
	stubs := make([]string, 0, len(targets))
	for stub := range targets {
		stubs = append(stubs, string(stub))
	}
	sort.Strings(stubs)
	for _, stub := range stubs {
		fmt.Fprintf(d.output, "  %s → %s\n", stub, targets[query.ProcedureID(stub)])
	}
}

// handleCalls lists the document's call sites.
func (d *Debugger) handleCalls() {
	if len(d.session.Doc.Calls) == 0 {
		fmt.Fprintf(d.output, "No call sites declared.\n")
		return
	}
	for i, c := range d.session.Doc.Calls {
		fmt.Fprintf(d.output, "  [%d] %s\n", i, check.CallQuery(c))
	}
}

// handleCheck resolves every call site and prints the diagnostics.
func (d *Debugger) handleCheck(ctx context.Context) {
	result := d.session.Run(ctx)
	d.printer.Summary(result.Diagnostics)
	fmt.Fprintf(d.output, "status: %s\n", result.Status)
	if result.Error != nil {
		fmt.Fprintf(d.output, "Error: %v\n", result.Error)
	}
}

// handleHistory shows the commands entered so far.
func (d *Debugger) handleHistory() {
	for i, line := range d.history {
		fmt.Fprintf(d.output, "  %3d  %s\n", i+1, line)
	}
}

func (d *Debugger) handleHelp() {
	help := `Commands:
  resolve, r  <proc> [K=V...]   Resolve the governing specification (JSON)
  explain, e  <proc> [K=V...]   Contract report with override chain
  chain       <proc> [K=V...]   Draw the override chain
  loop, l     <site>            Show a loop invariant
  extern                        List extern specification targets
  calls                         List the document's call sites
  check                         Resolve every call site
  diags, d                      Show diagnostics reported so far
  cache                         Show the refinement cache size
  history, h                    Show command history
  help, ?                       Show this help
  quit, q                       Exit
`
	fmt.Fprint(d.output, help)
}
