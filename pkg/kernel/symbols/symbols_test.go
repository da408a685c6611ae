package symbols

import (
	"strings"
	"testing"

	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/schema"
)

const program = `
apiVersion: specref/v0
program:
  traits:
    - {id: TraitFoo, name: crate::TraitFoo, span: {file: src/lib.rs, line: 1}}
  procedures:
    - id: TraitFoo.bar
      name: crate::TraitFoo::bar
      trait: TraitFoo
      span: {file: src/lib.rs, line: 2}
    - id: ImplA.bar
      name: <crate::A as crate::TraitFoo>::bar
      span: {file: src/lib.rs, line: 7}
      overrides:
        - method: TraitFoo.bar
    - id: Ghost.bar
      overrides:
        - method: TraitFoo.bar
          when: T == "i32"
          substs: {Self: "Wrapper<{{ .T }}>"}
        - method: TraitBaz.bar
          when: T startsWith "u"
        - method: Broken.bar
          when: T == "f32"
          substs: {Self: "{{ .Missing }}"}
    - id: free_fn
`

func load(t *testing.T, src string) *Program {
	t.Helper()
	doc, err := schema.Load(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	p, err := FromDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func subst(kv ...string) query.Substitution {
	m := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return query.NewSubstitution(m)
}

func TestFindTraitMethodSubsts_Forwarded(t *testing.T) {
	p := load(t, program)
	s := subst("T", "i32")
	m, ms, ok := p.FindTraitMethodSubsts("ImplA.bar", s)
	if !ok || m != "TraitFoo.bar" || ms != s {
		t.Errorf("got %v %v %v", m, ms, ok)
	}
}

func TestFindTraitMethodSubsts_Guarded(t *testing.T) {
	p := load(t, program)

	tests := []struct {
		name       string
		substs     query.Substitution
		wantOK     bool
		wantMethod query.ProcedureID
		wantSubsts query.Substitution
	}{
		{"first guard with rewrite", subst("T", "i32"), true, "TraitFoo.bar", subst("Self", "Wrapper<i32>")},
		{"second guard forwards", subst("T", "u8"), true, "TraitBaz.bar", subst("T", "u8")},
		{"no guard holds", subst("T", "bool"), false, "", query.Substitution{}},
		{"broken template is skipped", subst("T", "f32"), false, "", query.Substitution{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ms, ok := p.FindTraitMethodSubsts("Ghost.bar", tt.substs)
			if ok != tt.wantOK || m != tt.wantMethod || ms != tt.wantSubsts {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", m, ms, ok, tt.wantMethod, tt.wantSubsts, tt.wantOK)
			}
		})
	}
}

func TestFindTraitMethodSubsts_NoOverride(t *testing.T) {
	p := load(t, program)
	if _, _, ok := p.FindTraitMethodSubsts("free_fn", query.Substitution{}); ok {
		t.Error("free function overrides nothing")
	}
	if _, _, ok := p.FindTraitMethodSubsts("unknown", query.Substitution{}); ok {
		t.Error("unknown procedure overrides nothing")
	}
}

func TestMetadata(t *testing.T) {
	p := load(t, program)

	if got := p.DefinitionSpan("ImplA.bar"); got.Line != 7 {
		t.Errorf("span = %v", got)
	}
	if got := p.DefinitionSpan("unknown"); !got.IsZero() {
		t.Errorf("unknown span = %v", got)
	}
	if tr, ok := p.OwningTrait("TraitFoo.bar"); !ok || tr != "TraitFoo" {
		t.Errorf("owning trait = %v %v", tr, ok)
	}
	if _, ok := p.OwningTrait("ImplA.bar"); ok {
		t.Error("impl method has no owning trait")
	}
	if got := p.QualifiedName("TraitFoo"); got != "crate::TraitFoo" {
		t.Errorf("name = %q", got)
	}
	if got := p.QualifiedName("free_fn"); got != "free_fn" {
		t.Errorf("fallback name = %q", got)
	}
	if !p.Has("TraitFoo") || p.Has("nope") {
		t.Error("Has mismatch")
	}
}

func TestFromDocument_Errors(t *testing.T) {
	dup := &schema.Document{Program: schema.Program{
		Traits:     []schema.Trait{{ID: "X"}},
		Procedures: []schema.Procedure{{ID: "X"}},
	}}
	if _, err := FromDocument(dup); err == nil {
		t.Error("expected duplicate declaration error")
	}

	bad := &schema.Document{Program: schema.Program{
		Procedures: []schema.Procedure{{ID: "f", Overrides: []schema.Override{{Method: "g", When: "T =="}}}},
	}}
	if _, err := FromDocument(bad); err == nil || !strings.Contains(err.Error(), "f.overrides[0]") {
		t.Errorf("expected compile error, got %v", err)
	}
}

func TestFindTraitMethodSubsts_TemplateFuncs(t *testing.T) {
	p := load(t, `
apiVersion: specref/v0
program:
  traits:
    - {id: TraitFoo, name: crate::TraitFoo}
  procedures:
    - {id: TraitFoo.bar, trait: TraitFoo}
    - id: RefImpl.bar
      overrides:
        - method: TraitFoo.bar
          when: T startsWith "&"
          substs: {Self: '{{ trimPrefix "&" .T }}', Boxed: '{{ .T | trimPrefix "&" | printf "Box<%s>" }}'}
`)
	m, ms, ok := p.FindTraitMethodSubsts("RefImpl.bar", subst("T", "&str"))
	if !ok || m != "TraitFoo.bar" {
		t.Fatalf("got %v %v", m, ok)
	}
	if want := subst("Self", "str", "Boxed", "Box<str>"); ms != want {
		t.Errorf("substs = %s, want %s", ms, want)
	}
}
