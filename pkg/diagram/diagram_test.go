package diagram

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

func sampleChain() []Link {
	substs := query.NewSubstitution(map[string]string{"T": "i32"})
	impl := spec.ProcedureSpecification{
		Kind: spec.InheritedItem(spec.KindPure),
		Post: spec.DeclaredItem(spec.Conditions{{Expr: "result >= 0"}}),
		Pre:  spec.InheritedItem(spec.Conditions{{Expr: "x > 0"}}),
	}
	trait := spec.ProcedureSpecification{
		Kind: spec.DeclaredItem(spec.KindPure),
		Pre:  spec.DeclaredItem(spec.Conditions{{Expr: "x > 0"}}),
	}
	return []Link{
		{Query: query.New("ImplA.bar", substs), Name: "<crate::A as crate::TraitFoo>::bar", Spec: &impl},
		{Query: query.New("TraitFoo.bar", substs), Name: "crate::TraitFoo::bar", Spec: &trait},
	}
}

func TestGenerateMermaid_Chain(t *testing.T) {
	out, err := Generate(sampleChain(), FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "flowchart BT\n") {
		t.Error("missing flowchart header")
	}
	if !strings.Contains(out, `n0_ImplA_bar -->|"refines"| n1_TraitFoo_bar`) {
		t.Errorf("missing refines edge, got:\n%s", out)
	}
	if !strings.Contains(out, "#lt;crate::A as crate::TraitFoo#gt;::bar") {
		t.Errorf("name not escaped, got:\n%s", out)
	}
	if !strings.Contains(out, "◇ pure ^pre +post") {
		t.Errorf("missing detail, got:\n%s", out)
	}
}

func TestGenerateASCII_Chain(t *testing.T) {
	out, err := Generate(sampleChain(), FormatASCII)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "│ refines") {
		t.Errorf("missing connector, got:\n%s", out)
	}
	if !strings.Contains(out, "ImplA.bar[T=i32]") || !strings.Contains(out, "crate::TraitFoo::bar") {
		t.Errorf("missing nodes, got:\n%s", out)
	}

	// every box line has the same display width
	width := -1
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if !strings.HasPrefix(line, "│") && !strings.HasPrefix(line, "┌") && !strings.HasPrefix(line, "└") {
			continue
		}
		w := runewidth.StringWidth(line)
		if width == -1 {
			width = w
		} else if w != width {
			t.Errorf("ragged box line %q: width %d, want %d", line, w, width)
		}
	}
}

func TestGenerate_NoSpec(t *testing.T) {
	chain := []Link{{Query: query.New("free_fn", query.Substitution{})}}
	out, err := Generate(chain, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no specification") {
		t.Errorf("got:\n%s", out)
	}
	if strings.Contains(out, "refines") {
		t.Error("single link should have no connector")
	}
}

func TestGenerate_Errors(t *testing.T) {
	if _, err := Generate(nil, FormatASCII); err == nil {
		t.Error("expected error for empty chain")
	}
	if _, err := Generate(sampleChain(), "svg"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
