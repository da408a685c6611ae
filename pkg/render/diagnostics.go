package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
)

// Printer writes human-readable diagnostics.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a printer writing to w. With color false no escape
// sequences are emitted, regardless of the terminal.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Diagnostic writes one diagnostic in compiler style:
//
//	error[invalid-spec-kind-refinement]: Invalid specification kind ...
//	  --> src/lib.rs:7:5
//	   = note: Procedures can be predicates, pure or impure
//	  --> src/lib.rs:1: This procedure refines a function declared on ...
func (p *Printer) Diagnostic(d diag.Diagnostic) {
	label := string(d.Severity)
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	labelStyle := errorLabel
	if d.Severity == diag.SeverityWarning {
		labelStyle = warningLabel
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", p.style(labelStyle, label), p.style(messageStyle, d.Message))
	if !d.Span.IsZero() {
		fmt.Fprintf(&b, "  %s %s\n", p.style(arrowStyle, "-->"), d.Span)
	}
	for _, n := range d.Notes {
		if n.Span != nil && !n.Span.IsZero() {
			fmt.Fprintf(&b, "  %s %s: %s\n", p.style(arrowStyle, "-->"), n.Span, n.Text)
			continue
		}
		fmt.Fprintf(&b, "   %s %s\n", p.style(arrowStyle, "="), p.style(noteLabel, "note:")+" "+n.Text)
	}
	b.WriteString("\n")
	io.WriteString(p.w, b.String())
}

// Summary writes all diagnostics followed by a one-line tally.
func (p *Printer) Summary(diags []diag.Diagnostic) {
	errs, warns := 0, 0
	for _, d := range diags {
		p.Diagnostic(d)
		if d.Severity == diag.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		fmt.Fprintln(p.w, p.style(passedStyle, "✓ no diagnostics"))
		return
	}
	fmt.Fprintln(p.w, p.style(dimStyle, fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)))
}
