package spec

import (
	"errors"
	"reflect"
	"testing"
)

func kindPtr(k Kind) *Kind { return &k }

func TestItemRefine(t *testing.T) {
	tests := []struct {
		name string
		self Item[Kind]
		base Item[Kind]
		want Item[Kind]
	}{
		{
			name: "unspecified inherits declared base",
			self: Item[Kind]{},
			base: DeclaredItem(KindPure),
			want: InheritedItem(KindPure),
		},
		{
			name: "unspecified inherits inherited base",
			self: Item[Kind]{},
			base: InheritedItem(KindPredicate),
			want: InheritedItem(KindPredicate),
		},
		{
			name: "declared keeps value and remembers base",
			self: DeclaredItem(KindImpure),
			base: DeclaredItem(KindPure),
			want: Item[Kind]{Provenance: Declared, Value: KindImpure, Base: kindPtr(KindPure)},
		},
		{
			name: "inherited re-inherits from new base",
			self: InheritedItem(KindImpure),
			base: DeclaredItem(KindPure),
			want: InheritedItem(KindPure),
		},
		{
			name: "unspecified base leaves declared unchanged",
			self: DeclaredItem(KindPure),
			base: Item[Kind]{},
			want: DeclaredItem(KindPure),
		},
		{
			name: "unspecified base leaves inherited unchanged",
			self: InheritedItem(KindPure),
			base: Item[Kind]{},
			want: InheritedItem(KindPure),
		},
		{
			name: "both unspecified",
			self: Item[Kind]{},
			base: Item[Kind]{},
			want: Item[Kind]{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.self.Refine(tt.base)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Refine() = %v (base %v), want %v (base %v)", got, got.Base, tt.want, tt.want.Base)
			}
		})
	}
}

func fullSpec() ProcedureSpecification {
	return ProcedureSpecification{
		Kind:       DeclaredItem(KindPure),
		Pre:        DeclaredItem(Conditions{{Expr: "x > 0"}}),
		Post:       DeclaredItem(Conditions{{Expr: "result > x"}}),
		Pledges:    DeclaredItem([]Pledge{{After: "*r == old(*r)"}}),
		Trusted:    DeclaredItem(true),
		Terminates: DeclaredItem("n"),
	}
}

func TestRefine_EmptyInheritsEverything(t *testing.T) {
	base := fullSpec()
	got := Empty().Refine(&base)

	want := ProcedureSpecification{
		Kind:       InheritedItem(KindPure),
		Pre:        InheritedItem(base.Pre.Value),
		Post:       InheritedItem(base.Post.Value),
		Pledges:    InheritedItem(base.Pledges.Value),
		Trusted:    InheritedItem(true),
		Terminates: InheritedItem("n"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Empty().Refine(base) = %+v, want %+v", got, want)
	}
}

func TestRefine_EmptyBaseIsIdentity(t *testing.T) {
	s := fullSpec()
	empty := Empty()
	if got := s.Refine(&empty); !reflect.DeepEqual(got, s) {
		t.Errorf("Refine(empty) = %+v, want %+v", got, s)
	}
	if got := s.Refine(nil); !reflect.DeepEqual(got, s) {
		t.Errorf("Refine(nil) = %+v, want %+v", got, s)
	}
}

func TestRefine_FieldWise(t *testing.T) {
	base := fullSpec()
	impl := ProcedureSpecification{
		Post: DeclaredItem(Conditions{{Expr: "result == 1"}}),
	}
	got := impl.Refine(&base)

	if got.Kind.Provenance != Inherited || got.Kind.Value != KindPure {
		t.Errorf("kind = %v", got.Kind)
	}
	if got.Pre.Provenance != Inherited {
		t.Errorf("pre = %v", got.Pre)
	}
	if got.Post.Provenance != Declared || got.Post.Value[0].Expr != "result == 1" {
		t.Errorf("post = %v", got.Post)
	}
	if got.Post.Base == nil || (*got.Post.Base)[0].Expr != "result > x" {
		t.Error("declared post should remember the base post")
	}
}

func TestValidateKind(t *testing.T) {
	kinds := []Kind{KindPredicate, KindPure, KindImpure}

	for _, base := range kinds {
		for _, refined := range kinds {
			item := DeclaredItem(refined).Refine(DeclaredItem(base))
			err := ValidateKind(item)
			if base == refined && err != nil {
				t.Errorf("%s → %s: unexpected error %v", base, refined, err)
			}
			if base != refined {
				var kerr *KindRefinementError
				if !errors.As(err, &kerr) {
					t.Errorf("%s → %s: expected KindRefinementError, got %v", base, refined, err)
					continue
				}
				if kerr.Base != base || kerr.Refined != refined {
					t.Errorf("error = %+v", kerr)
				}
			}
		}
	}

	noConstraint := []Item[Kind]{
		{},
		InheritedItem(KindPure),
		DeclaredItem(KindImpure),
		DeclaredItem(KindImpure).Refine(Item[Kind]{}),
	}
	for _, item := range noConstraint {
		if err := ValidateKind(item); err != nil {
			t.Errorf("ValidateKind(%v) = %v, want nil", item, err)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	s := fullSpec()
	s.Pre = s.Pre.Refine(DeclaredItem(Conditions{{Expr: "base"}}))
	c := s.Clone()
	if !reflect.DeepEqual(c, s) {
		t.Fatal("clone should equal original")
	}
	c.Pre.Value[0].Expr = "mutated"
	(*c.Pre.Base)[0].Expr = "mutated"
	if s.Pre.Value[0].Expr != "x > 0" || (*s.Pre.Base)[0].Expr != "base" {
		t.Error("clone shares condition storage with the original")
	}
}

func TestEffectiveKind(t *testing.T) {
	var s ProcedureSpecification
	if s.EffectiveKind() != KindImpure || s.IsPure() {
		t.Error("unannotated procedures are impure")
	}
	s.Kind = InheritedItem(KindPredicate)
	if !s.IsPure() {
		t.Error("predicates are pure")
	}
	if s.IsTrusted() {
		t.Error("not trusted by default")
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"predicate", "pure", "impure"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("ghost"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
