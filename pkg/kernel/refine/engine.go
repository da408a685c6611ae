// Package refine resolves the effective specification governing a call.
//
// A call of a procedure that overrides a trait method (under the call's
// generic substitution) is governed by the procedure's own specification
// refined against the trait method's. Refinements are computed lazily,
// validated, and memoized per query for the lifetime of one analysis pass.
//
// An Engine is not safe for concurrent use.
package refine

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
	"github.com/ormasoftchile/specref/pkg/kernel/symbols"
	"github.com/ormasoftchile/specref/pkg/kernel/table"
	"github.com/ormasoftchile/specref/pkg/kernel/trace"
)

// Engine owns the raw table and the refinement cache of one analysis pass.
type Engine struct {
	table    *table.Table
	db       symbols.Database
	sink     diag.Sink
	resolver table.ConstraintResolver
	cache    *Cache
	trace    *trace.Writer
	logger   *slog.Logger

	// in-flight queries of the current Resolve call chain
	inflight map[query.Query]struct{}
	stack    []query.Query

	// queries whose constraint error has already been reported
	reported map[query.Query]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConstraintResolver overrides how ghost-constrained entries are
// selected. Defaults to table.NewExprResolver().
func WithConstraintResolver(r table.ConstraintResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithTrace records every resolution decision to tw.
func WithTrace(tw *trace.Writer) Option {
	return func(e *Engine) { e.trace = tw }
}

// WithLogger sets the debug logger. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine. The engine takes ownership of tbl; it must not be
// modified afterwards.
func New(tbl *table.Table, db symbols.Database, sink diag.Sink, opts ...Option) *Engine {
	e := &Engine{
		table:    tbl,
		db:       db,
		sink:     sink,
		cache:    NewCache(),
		logger:   slog.New(slog.DiscardHandler),
		inflight: make(map[query.Query]struct{}),
		reported: make(map[query.Query]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = table.NewExprResolver()
	}
	return e
}

// Resolve returns the specification governing q, or nil when the called
// procedure has no specification and overrides nothing.
//
// A non-nil error is always an *InvariantError: the override relation
// reported by the symbol database is cyclic. Invalid refinements are not
// errors; they are reported to the diagnostic sink and the refined value is
// still returned.
func (e *Engine) Resolve(q query.Query) (*spec.ProcedureSpecification, error) {
	if s, ok := e.cache.Get(q); ok {
		e.traceEvent(trace.EventCacheHit, q, nil)
		return s, nil
	}
	if _, busy := e.inflight[q]; busy {
		chain := append(slices.Clone(e.stack), q)
		e.traceEvent(trace.EventCycleDetected, q, map[string]any{"chain": chainStrings(chain)})
		return nil, &InvariantError{Query: q, Chain: chain, Err: ErrRefinementCycle}
	}

	traitMethod, traitSubsts, ok := e.db.FindTraitMethodSubsts(q.Called, q.Substs)
	if !ok {
		s := e.raw(q)
		e.traceEvent(trace.EventPassthrough, q, map[string]any{"found": s != nil})
		return s, nil
	}

	e.inflight[q] = struct{}{}
	e.stack = append(e.stack, q)
	defer func() {
		delete(e.inflight, q)
		e.stack = e.stack[:len(e.stack)-1]
	}()

	return e.refine(q, q.AdaptToCall(traitMethod, traitSubsts))
}

func (e *Engine) refine(implQuery, traitQuery query.Query) (*spec.ProcedureSpecification, error) {
	e.logger.Debug("refining specification", "impl", implQuery, "trait", traitQuery)

	impl := spec.Empty()
	if s := e.raw(implQuery); s != nil {
		impl = s.Clone()
	}

	traitSpec, err := e.Resolve(traitQuery)
	if err != nil {
		return nil, err
	}

	refined := impl.Refine(traitSpec)
	e.validateRefinedKind(implQuery, traitQuery, refined.Kind)

	e.cache.Insert(implQuery, refined)
	e.logger.Debug("refined specification", "query", implQuery, "kind", refined.Kind)
	e.traceEvent(trace.EventRefined, implQuery, map[string]any{
		"trait_query": traitQuery.String(),
		"kind":        refined.Kind.String(),
	})

	s, ok := e.cache.Get(implQuery)
	if !ok {
		panic(&InvariantError{Query: implQuery, Err: ErrRefinementLost})
	}
	return s, nil
}

// raw returns the user-written specification governing q, after ghost
// constraint selection. Constraint failures are reported once per query and
// treated as "no specification".
func (e *Engine) raw(q query.Query) *spec.ProcedureSpecification {
	entry, ok := e.table.ProcedureSpec(q.Called)
	if !ok {
		return nil
	}
	s, err := e.resolver.Select(entry, q)
	if err == nil {
		return s
	}
	if _, seen := e.reported[q]; !seen {
		e.reported[q] = struct{}{}
		e.traceEvent(trace.EventConstraintError, q, map[string]any{"error": err.Error()})
		diag.Errorf(e.db.DefinitionSpan(q.Called), "Cannot select a specification for procedure '%s'", e.db.QualifiedName(q.Called)).
			WithCode(diag.CodeAmbiguousConstraint).
			AddNote(err.Error()).
			AddNote(fmt.Sprintf("The call is instantiated with %s", q.Substs)).
			Emit(e.sink)
	}
	return nil
}

// LoopSpec returns the invariant written on a loop site. Loop
// specifications are never refined and never cached.
func (e *Engine) LoopSpec(site table.LoopSiteID) (*spec.LoopSpecification, bool) {
	return e.table.LoopSpec(site)
}

// ExternTargets maps extern specification stubs to the procedures they
// specify.
func (e *Engine) ExternTargets() map[query.ProcedureID]query.ProcedureID {
	return e.table.ExternTargets()
}

// CacheLen returns the number of memoized refinements.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// Chain returns the override chain starting at q: q itself, the trait
// method it overrides, that method's own trait method, and so on. It
// consults the symbol database but does not resolve or cache anything.
func (e *Engine) Chain(q query.Query) ([]query.Query, error) {
	var chain []query.Query
	seen := make(map[query.Query]struct{})
	for {
		if _, dup := seen[q]; dup {
			return nil, &InvariantError{Query: q, Chain: append(chain, q), Err: ErrRefinementCycle}
		}
		seen[q] = struct{}{}
		chain = append(chain, q)

		method, substs, ok := e.db.FindTraitMethodSubsts(q.Called, q.Substs)
		if !ok {
			return chain, nil
		}
		q = q.AdaptToCall(method, substs)
	}
}

func (e *Engine) traceEvent(t trace.EventType, q query.Query, data map[string]any) {
	if e.trace == nil {
		return
	}
	if err := e.trace.EmitResolution(t, q.String(), data); err != nil {
		e.logger.Warn("trace write failed", "error", err)
	}
}

func chainStrings(chain []query.Query) string {
	parts := make([]string, len(chain))
	for i, q := range chain {
		parts[i] = q.String()
	}
	return strings.Join(parts, " → ")
}
