package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

func kindDiagnostic() diag.Diagnostic {
	impl := diag.Span{File: "src/lib.rs", Line: 7, Column: 5}
	trait := diag.Span{File: "src/lib.rs", Line: 1}
	return *diag.Errorf(impl, "Invalid specification kind for procedure 'ImplA::bar'").
		WithCode(diag.CodeInvalidKindRefinement).
		AddNote("Procedures can be predicates, pure or impure").
		AddSpanNote("This procedure refines a function declared on 'TraitFoo'", trait)
}

func TestPrinter_Diagnostic(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Diagnostic(kindDiagnostic())

	want := "error[invalid-spec-kind-refinement]: Invalid specification kind for procedure 'ImplA::bar'\n" +
		"  --> src/lib.rs:7:5\n" +
		"   = note: Procedures can be predicates, pure or impure\n" +
		"  --> src/lib.rs:1: This procedure refines a function declared on 'TraitFoo'\n\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Summary(nil)
	if !strings.Contains(buf.String(), "no diagnostics") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	warn := diag.Diagnostic{Severity: diag.SeverityWarning, Message: "unused"}
	p.Summary([]diag.Diagnostic{kindDiagnostic(), warn})
	if !strings.HasSuffix(buf.String(), "1 error(s), 1 warning(s)\n") {
		t.Errorf("got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "warning: unused") {
		t.Errorf("warning not printed: %q", buf.String())
	}
}

func sampleContract() Contract {
	base := spec.KindPredicate
	return Contract{
		Query: "ImplA.bar[T=i32]",
		Name:  "ImplA::bar",
		Chain: []string{"ImplA.bar[T=i32]", "TraitFoo.bar[T=i32]"},
		Spec: &spec.ProcedureSpecification{
			Kind: spec.Item[spec.Kind]{Provenance: spec.Declared, Value: spec.KindPure, Base: &base},
			Pre:  spec.InheritedItem(spec.Conditions{{Expr: "x > 0"}, {Expr: "a | b"}}),
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleContract())
	for _, want := range []string{
		"# ImplA::bar",
		"2. `TraitFoo.bar[T=i32]`",
		"| kind | declared | `pure` |",
		"| pre | inherited | `x > 0`<br>`a \\| b` |",
		"| post | unspecified | – |",
		"of kind `predicate`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
}

func TestMarkdown_NoSpec(t *testing.T) {
	md := Markdown(Contract{Query: "f[]"})
	if !strings.Contains(md, "No specification governs this call") {
		t.Errorf("got:\n%s", md)
	}
	if strings.Contains(md, "Override chain") {
		t.Error("single-element chain should not be listed")
	}
}

func TestHTML(t *testing.T) {
	html, err := HTML(Markdown(sampleContract()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "<h1>ImplA::bar</h1>") {
		t.Errorf("got:\n%s", html)
	}
}

func TestTerminal(t *testing.T) {
	if got := Terminal("  ", 80); got != "  " {
		t.Errorf("blank input changed: %q", got)
	}
	out := Terminal("# Title\n\nbody", 0)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "body") {
		t.Errorf("got %q", out)
	}
}
