// Package debugger implements the interactive REPL for resolving
// specifications against a loaded document.
package debugger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/specref/pkg/kernel/check"
	"github.com/ormasoftchile/specref/pkg/render"
)

// Debugger provides an interactive REPL over one analysis session. Every
// query shares the session's refinement cache.
type Debugger struct {
	session *check.Session
	output  io.Writer
	printer *render.Printer
	rl      *readline.Instance
	history []string
	color   bool
}

// New creates a debugger for the given session.
func New(s *check.Session, color bool) *Debugger {
	return &Debugger{
		session: s,
		output:  os.Stdout,
		printer: render.NewPrinter(os.Stdout, color),
		color:   color,
	}
}

// SetOutput redirects all REPL output.
func (d *Debugger) SetOutput(w io.Writer) {
	d.output = w
	d.printer = render.NewPrinter(w, d.color)
}

var commands = []string{"resolve", "explain", "chain", "loop", "extern",
	"calls", "check", "diags", "cache", "history", "help", "quit"}

// Run starts the interactive REPL loop.
func (d *Debugger) Run(ctx context.Context) error {
	var completer = readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          d.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          d.output,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	d.rl = rl
	defer rl.Close()

	fmt.Fprintf(d.output, "specref repl: %d procedures, %d call sites\n",
		len(d.session.Doc.Program.Procedures), len(d.session.Doc.Calls))
	fmt.Fprintf(d.output, "Type 'help' for available commands.\n\n")

	for {
		rl.SetPrompt(d.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		if quit := d.Exec(ctx, line); quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports whether the REPL should exit.
func (d *Debugger) Exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	d.history = append(d.history, line)

	parts := strings.Fields(line)
	var err error
	switch parts[0] {
	case "resolve", "r":
		err = d.handleResolve(parts)
	case "explain", "e":
		err = d.handleExplain(parts)
	case "chain":
		err = d.handleChain(parts)
	case "loop", "l":
		d.handleLoop(parts)
	case "extern":
		d.handleExtern()
	case "calls":
		d.handleCalls()
	case "check":
		d.handleCheck(ctx)
	case "diags", "d":
		d.printer.Summary(d.session.Collector.Diagnostics())
	case "cache":
		fmt.Fprintf(d.output, "%d refinement(s) cached\n", d.session.Engine.CacheLen())
	case "history", "h":
		d.handleHistory()
	case "help", "?":
		d.handleHelp()
	case "quit", "q":
		fmt.Fprintf(d.output, "Exiting.\n")
		return true
	default:
		fmt.Fprintf(d.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
	}
	if err != nil {
		fmt.Fprintf(d.output, "Error: %v\n", err)
	}
	return false
}

// buildPrompt creates the prompt string: specref[N cached | M diags]>
func (d *Debugger) buildPrompt() string {
	return fmt.Sprintf("specref[%d cached | %d diags]> ",
		d.session.Engine.CacheLen(), len(d.session.Collector.Diagnostics()))
}
