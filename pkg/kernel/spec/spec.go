// Package spec defines procedure and loop specifications and the refinement
// rule that merges a trait method's specification into an implementation's.
//
// Conditions are opaque payloads: this package classifies and merges them,
// it never evaluates them.
package spec

import (
	"fmt"
	"slices"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
)

// Kind classifies what a procedure's contract means.
type Kind string

const (
	KindPredicate Kind = "predicate"
	KindPure      Kind = "pure"
	KindImpure    Kind = "impure"
)

// ParseKind parses a kind keyword.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPredicate, KindPure, KindImpure:
		return k, nil
	default:
		return "", fmt.Errorf("unknown specification kind %q: must be predicate, pure, or impure", s)
	}
}

// Condition is a single opaque logical formula with its source location.
type Condition struct {
	Expr string    `json:"expr"`
	Span diag.Span `json:"span,omitzero"`
}

// Conditions is an ordered list of conditions.
type Conditions []Condition

// Pledge is an opaque pledge payload: an assertion about Reference that
// holds after the borrow expires.
type Pledge struct {
	Reference string `json:"reference,omitempty"`
	Before    string `json:"before,omitempty"`
	After     string `json:"after"`
}

// ProcedureSpecification is the contract governing a procedure call.
// The zero value is the empty specification: every field unspecified.
type ProcedureSpecification struct {
	Kind       Item[Kind]       `json:"kind"`
	Pre        Item[Conditions] `json:"pre"`
	Post       Item[Conditions] `json:"post"`
	Pledges    Item[[]Pledge]   `json:"pledges"`
	Trusted    Item[bool]       `json:"trusted"`
	Terminates Item[string]     `json:"terminates"`
}

// Empty returns the identity element for refinement.
func Empty() ProcedureSpecification {
	return ProcedureSpecification{}
}

// Refine merges base (the trait side) into s field by field.
func (s ProcedureSpecification) Refine(base *ProcedureSpecification) ProcedureSpecification {
	if base == nil {
		return s
	}
	return ProcedureSpecification{
		Kind:       s.Kind.Refine(base.Kind),
		Pre:        s.Pre.Refine(base.Pre),
		Post:       s.Post.Refine(base.Post),
		Pledges:    s.Pledges.Refine(base.Pledges),
		Trusted:    s.Trusted.Refine(base.Trusted),
		Terminates: s.Terminates.Refine(base.Terminates),
	}
}

// Clone returns a deep copy of s.
func (s *ProcedureSpecification) Clone() ProcedureSpecification {
	out := *s
	out.Kind = cloneItem(s.Kind, func(k Kind) Kind { return k })
	out.Pre = cloneItem(s.Pre, func(c Conditions) Conditions { return slices.Clone(c) })
	out.Post = cloneItem(s.Post, func(c Conditions) Conditions { return slices.Clone(c) })
	out.Pledges = cloneItem(s.Pledges, func(p []Pledge) []Pledge { return slices.Clone(p) })
	out.Trusted = cloneItem(s.Trusted, func(b bool) bool { return b })
	out.Terminates = cloneItem(s.Terminates, func(t string) string { return t })
	return out
}

func cloneItem[T any](i Item[T], cp func(T) T) Item[T] {
	out := Item[T]{Provenance: i.Provenance, Value: cp(i.Value)}
	if i.Base != nil {
		b := cp(*i.Base)
		out.Base = &b
	}
	return out
}

// EffectiveKind returns the procedure's kind; unannotated procedures are impure.
func (s *ProcedureSpecification) EffectiveKind() Kind {
	if k, ok := s.Kind.Get(); ok {
		return k
	}
	return KindImpure
}

// IsPure reports whether the procedure may be used as a mathematical function.
func (s *ProcedureSpecification) IsPure() bool {
	k := s.EffectiveKind()
	return k == KindPure || k == KindPredicate
}

// IsTrusted reports whether the procedure body is trusted without checking.
func (s *ProcedureSpecification) IsTrusted() bool {
	t, _ := s.Trusted.Get()
	return t
}

// LoopSpecification holds the invariant of one loop site.
type LoopSpecification struct {
	Invariant Conditions `json:"invariant"`
}

// KindRefinementError reports that an implementation declares a kind that
// differs from the kind of the method it refines.
type KindRefinementError struct {
	Base    Kind
	Refined Kind
}

func (e *KindRefinementError) Error() string {
	return fmt.Sprintf("invalid specification kind refinement: %s refined as %s", e.Base, e.Refined)
}

// ValidateKind checks a refined kind item. Only a declared kind that was
// refined against a specified, different base kind is rejected.
func ValidateKind(item Item[Kind]) error {
	if item.Provenance != Declared || item.Base == nil {
		return nil
	}
	if *item.Base != item.Value {
		return &KindRefinementError{Base: *item.Base, Refined: item.Value}
	}
	return nil
}
