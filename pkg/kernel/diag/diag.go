// Package diag defines the structured diagnostics produced while resolving
// specifications, and the sinks that receive them.
package diag

import (
	"fmt"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeInvalidKindRefinement = "invalid-spec-kind-refinement"
	CodeAmbiguousConstraint   = "ambiguous-ghost-constraint"
)

// Span is a source location. The zero Span means "unknown".
type Span struct {
	File      string `yaml:"file"                 json:"file"`
	Line      int    `yaml:"line"                 json:"line"`
	Column    int    `yaml:"column,omitempty"     json:"column,omitempty"`
	EndLine   int    `yaml:"end_line,omitempty"   json:"end_line,omitempty"`
	EndColumn int    `yaml:"end_column,omitempty" json:"end_column,omitempty"`
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool { return s == Span{} }

func (s Span) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	if s.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// Note is an ordered annotation attached to a diagnostic, optionally
// pointing at a secondary location.
type Note struct {
	Text string `json:"text"`
	Span *Span  `json:"span,omitempty"`
}

// Diagnostic is a user-facing report. Formatting is left to the sink.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`
	Span     Span     `json:"span"`
	Notes    []Note   `json:"notes,omitempty"`
}

// Errorf starts an error-severity diagnostic at span.
func Errorf(span Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// WithCode sets the diagnostic code.
func (d *Diagnostic) WithCode(code string) *Diagnostic {
	d.Code = code
	return d
}

// AddNote appends a note without a location.
func (d *Diagnostic) AddNote(text string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Text: text})
	return d
}

// AddSpanNote appends a note pointing at span.
func (d *Diagnostic) AddSpanNote(text string, span Span) *Diagnostic {
	s := span
	d.Notes = append(d.Notes, Note{Text: text, Span: &s})
	return d
}

// Emit hands the diagnostic to sink.
func (d *Diagnostic) Emit(sink Sink) {
	if sink != nil {
		sink.Emit(*d)
	}
}

func (d Diagnostic) Error() string {
	if d.Span.IsZero() {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
}
