// Package table holds the raw, user-authored specification table: the
// immutable input of refinement.
package table

import (
	"fmt"
	"maps"
	"sort"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/schema"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// LoopSiteID identifies a loop within the analyzed program.
type LoopSiteID string

// Constrained is a specification that governs a procedure only when When
// holds for the call substitution.
type Constrained struct {
	When string
	Spec spec.ProcedureSpecification
}

// Entry is everything the user wrote on one procedure.
type Entry struct {
	Base        spec.ProcedureSpecification
	Constrained []Constrained
}

// Table is the raw specification table. It must not be modified once handed
// to a refinement engine.
type Table struct {
	Procedures map[query.ProcedureID]*Entry
	Loops      map[LoopSiteID]*spec.LoopSpecification
	Extern     map[query.ProcedureID]query.ProcedureID
}

// New returns an empty table.
func New() *Table {
	return &Table{
		Procedures: make(map[query.ProcedureID]*Entry),
		Loops:      make(map[LoopSiteID]*spec.LoopSpecification),
		Extern:     make(map[query.ProcedureID]query.ProcedureID),
	}
}

// ProcedureSpec returns the entry written on id. A missing entry means "no
// annotation", not an error.
func (t *Table) ProcedureSpec(id query.ProcedureID) (*Entry, bool) {
	e, ok := t.Procedures[id]
	return e, ok
}

// LoopSpec returns the invariant written on a loop site.
func (t *Table) LoopSpec(site LoopSiteID) (*spec.LoopSpecification, bool) {
	l, ok := t.Loops[site]
	return l, ok
}

// ExternTarget returns the procedure an extern stub specifies.
func (t *Table) ExternTarget(id query.ProcedureID) (query.ProcedureID, bool) {
	target, ok := t.Extern[id]
	return target, ok
}

// ExternTargets returns a copy of the extern map.
func (t *Table) ExternTargets() map[query.ProcedureID]query.ProcedureID {
	return maps.Clone(t.Extern)
}

// ProcedureIDs returns the annotated procedures in sorted order.
func (t *Table) ProcedureIDs() []query.ProcedureID {
	ids := make([]query.ProcedureID, 0, len(t.Procedures))
	for id := range t.Procedures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FromDocument builds the raw table from a document's specs section.
// Conditions are attributed to the span of the procedure they annotate.
func FromDocument(doc *schema.Document) (*Table, error) {
	t := New()

	for id, ps := range doc.Specs.Procedures {
		var span diag.Span
		if p, ok := doc.ProcedureByID(id); ok {
			span = p.Span
		}
		entry, err := buildEntry(ps, span)
		if err != nil {
			return nil, fmt.Errorf("specs.procedures[%s]: %w", id, err)
		}
		t.Procedures[query.ProcedureID(id)] = entry
	}

	for site, ls := range doc.Specs.Loops {
		t.Loops[LoopSiteID(site)] = &spec.LoopSpecification{
			Invariant: conditions(ls.Invariant, ls.Span),
		}
	}

	for stub, target := range doc.Specs.Extern {
		t.Extern[query.ProcedureID(stub)] = query.ProcedureID(target)
	}
	return t, nil
}

func buildEntry(ps schema.ProcSpec, span diag.Span) (*Entry, error) {
	var base spec.ProcedureSpecification

	if ps.Kind != "" {
		k, err := spec.ParseKind(ps.Kind)
		if err != nil {
			return nil, err
		}
		base.Kind = spec.DeclaredItem(k)
	}
	if len(ps.Pre) > 0 {
		base.Pre = spec.DeclaredItem(conditions(ps.Pre, span))
	}
	if len(ps.Post) > 0 {
		base.Post = spec.DeclaredItem(conditions(ps.Post, span))
	}
	if len(ps.Pledges) > 0 {
		pledges := make([]spec.Pledge, len(ps.Pledges))
		for i, p := range ps.Pledges {
			pledges[i] = spec.Pledge{Reference: p.Reference, Before: p.Before, After: p.After}
		}
		base.Pledges = spec.DeclaredItem(pledges)
	}
	if ps.Trusted != nil {
		base.Trusted = spec.DeclaredItem(*ps.Trusted)
	}
	if ps.Terminates != "" {
		base.Terminates = spec.DeclaredItem(ps.Terminates)
	}

	entry := &Entry{Base: base}
	for _, c := range ps.Constrained {
		s := base.Clone()
		s.Pre = appendConditions(s.Pre, conditions(c.Pre, span))
		s.Post = appendConditions(s.Post, conditions(c.Post, span))
		entry.Constrained = append(entry.Constrained, Constrained{When: c.When, Spec: s})
	}
	return entry, nil
}

// appendConditions adds extra conditions to an item. Extra conditions make
// the item declared.
func appendConditions(item spec.Item[spec.Conditions], extra spec.Conditions) spec.Item[spec.Conditions] {
	if len(extra) == 0 {
		return item
	}
	return spec.DeclaredItem(append(item.Value, extra...))
}

func conditions(exprs []string, span diag.Span) spec.Conditions {
	if len(exprs) == 0 {
		return nil
	}
	out := make(spec.Conditions, len(exprs))
	for i, e := range exprs {
		out[i] = spec.Condition{Expr: e, Span: span}
	}
	return out
}
