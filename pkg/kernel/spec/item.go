package spec

import "fmt"

// Provenance records where a specification item's value came from.
type Provenance int

const (
	// Unspecified: no annotation; the value must be inherited.
	Unspecified Provenance = iota
	// Declared: the user wrote the value on this procedure.
	Declared
	// Inherited: the value was taken from the overridden trait method.
	Inherited
)

func (p Provenance) String() string {
	switch p {
	case Unspecified:
		return "unspecified"
	case Declared:
		return "declared"
	case Inherited:
		return "inherited"
	default:
		return fmt.Sprintf("provenance(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Item is the unit of refinement: a value tagged with its provenance.
// Base is set when a Declared item was refined against a specified base,
// so the two can be checked for compatibility afterwards.
type Item[T any] struct {
	Provenance Provenance `json:"provenance"`
	Value      T          `json:"value,omitempty"`
	Base       *T         `json:"base,omitempty"`
}

// DeclaredItem returns an item the user annotated with v.
func DeclaredItem[T any](v T) Item[T] {
	return Item[T]{Provenance: Declared, Value: v}
}

// InheritedItem returns an item whose value v came from a base.
func InheritedItem[T any](v T) Item[T] {
	return Item[T]{Provenance: Inherited, Value: v}
}

// IsSpecified reports whether the item carries a value.
func (i Item[T]) IsSpecified() bool {
	return i.Provenance != Unspecified
}

// Get returns the value and whether one is present.
func (i Item[T]) Get() (T, bool) {
	return i.Value, i.IsSpecified()
}

// Refine merges base into i:
//
//	base unspecified  → i unchanged
//	i unspecified     → inherit base's value
//	i declared        → keep i's value, remember base's value
//	i inherited       → re-inherit from base
func (i Item[T]) Refine(base Item[T]) Item[T] {
	if !base.IsSpecified() {
		return i
	}
	switch i.Provenance {
	case Declared:
		b := base.Value
		return Item[T]{Provenance: Declared, Value: i.Value, Base: &b}
	default:
		return Item[T]{Provenance: Inherited, Value: base.Value}
	}
}

func (i Item[T]) String() string {
	if !i.IsSpecified() {
		return "unspecified"
	}
	return fmt.Sprintf("%s(%v)", i.Provenance, i.Value)
}
