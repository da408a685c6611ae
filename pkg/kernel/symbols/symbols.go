// Package symbols describes the program metadata the refinement engine
// consults: which trait method a procedure overrides under a substitution,
// where declarations live, and what they are called.
package symbols

import (
	"fmt"
	"log/slog"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/eval"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/schema"
)

// Database answers pure queries over immutable program metadata.
type Database interface {
	// FindTraitMethodSubsts reports whether called, under substs, overrides
	// a trait method, and if so which one and under which substitution.
	FindTraitMethodSubsts(called query.ProcedureID, substs query.Substitution) (query.ProcedureID, query.Substitution, bool)
	// DefinitionSpan returns the declaration site of id.
	DefinitionSpan(id query.ProcedureID) diag.Span
	// OwningTrait returns the trait declaring the method id.
	OwningTrait(id query.ProcedureID) (query.ProcedureID, bool)
	// QualifiedName returns the fully qualified name of id.
	QualifiedName(id query.ProcedureID) string
}

type definition struct {
	name      string
	span      diag.Span
	trait     query.ProcedureID
	overrides []schema.Override
}

// Program is a Database built from a document's program section.
type Program struct {
	defs   map[query.ProcedureID]*definition
	eval   *eval.Evaluator
	logger *slog.Logger
}

// Option configures a Program.
type Option func(*Program)

// WithEvaluator shares a condition evaluator (and its cache).
func WithEvaluator(e *eval.Evaluator) Option {
	return func(p *Program) { p.eval = e }
}

// WithLogger sets the logger used for override evaluation failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) { p.logger = l }
}

// FromDocument builds the program database. Every override `when` condition
// is compiled up front so malformed conditions fail here rather than during
// resolution.
func FromDocument(doc *schema.Document, opts ...Option) (*Program, error) {
	p := &Program{
		defs:   make(map[query.ProcedureID]*definition),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.eval == nil {
		p.eval = eval.MustNewEvaluator(eval.DefaultCacheSize)
	}

	for _, t := range doc.Program.Traits {
		id := query.ProcedureID(t.ID)
		if _, dup := p.defs[id]; dup {
			return nil, fmt.Errorf("duplicate declaration %q", t.ID)
		}
		p.defs[id] = &definition{name: t.Name, span: t.Span}
	}
	for _, proc := range doc.Program.Procedures {
		id := query.ProcedureID(proc.ID)
		if _, dup := p.defs[id]; dup {
			return nil, fmt.Errorf("duplicate declaration %q", proc.ID)
		}
		for i, o := range proc.Overrides {
			if o.When == "" {
				continue
			}
			if err := p.eval.Compile(o.When); err != nil {
				return nil, fmt.Errorf("%s.overrides[%d]: %w", proc.ID, i, err)
			}
		}
		p.defs[id] = &definition{
			name:      proc.Name,
			span:      proc.Span,
			trait:     query.ProcedureID(proc.Trait),
			overrides: proc.Overrides,
		}
	}
	return p, nil
}

// FindTraitMethodSubsts returns the first override of called whose condition
// holds under substs. Without explicit substs templates the call
// substitution is forwarded unchanged.
func (p *Program) FindTraitMethodSubsts(called query.ProcedureID, substs query.Substitution) (query.ProcedureID, query.Substitution, bool) {
	def, ok := p.defs[called]
	if !ok || len(def.overrides) == 0 {
		return "", query.Substitution{}, false
	}
	bindings := substs.Bindings()
	for _, o := range def.overrides {
		holds, err := p.eval.Condition(o.When, bindings)
		if err != nil {
			p.logger.Warn("override condition failed", "procedure", called, "method", o.Method, "error", err)
			continue
		}
		if !holds {
			continue
		}
		if o.Substs == nil {
			return query.ProcedureID(o.Method), substs, true
		}
		rewritten, err := eval.ResolveMap(o.Substs, bindings)
		if err != nil {
			p.logger.Warn("override substitution failed", "procedure", called, "method", o.Method, "error", err)
			continue
		}
		return query.ProcedureID(o.Method), query.NewSubstitution(rewritten), true
	}
	return "", query.Substitution{}, false
}

// DefinitionSpan returns the declaration span, or the zero span if unknown.
func (p *Program) DefinitionSpan(id query.ProcedureID) diag.Span {
	if def, ok := p.defs[id]; ok {
		return def.span
	}
	return diag.Span{}
}

// OwningTrait returns the trait that declares the method id.
func (p *Program) OwningTrait(id query.ProcedureID) (query.ProcedureID, bool) {
	def, ok := p.defs[id]
	if !ok || def.trait == "" {
		return "", false
	}
	return def.trait, true
}

// QualifiedName returns the declared name, falling back to the id.
func (p *Program) QualifiedName(id query.ProcedureID) string {
	if def, ok := p.defs[id]; ok && def.name != "" {
		return def.name
	}
	return string(id)
}

// Has reports whether id is declared.
func (p *Program) Has(id query.ProcedureID) bool {
	_, ok := p.defs[id]
	return ok
}
