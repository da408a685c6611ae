package table

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/specref/pkg/kernel/eval"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// ConstraintResolver selects the specification of an entry that governs a
// particular query.
type ConstraintResolver interface {
	Select(entry *Entry, q query.Query) (*spec.ProcedureSpecification, error)
}

// AmbiguousConstraintError reports that more than one ghost constraint holds
// for the same query.
type AmbiguousConstraintError struct {
	Query   query.Query
	Matches []string
}

func (e *AmbiguousConstraintError) Error() string {
	return fmt.Sprintf("multiple ghost constraints hold for %s: %s", e.Query, strings.Join(e.Matches, "; "))
}

// ExprResolver evaluates ghost constraints with expr-lang.
type ExprResolver struct {
	Eval *eval.Evaluator
}

// NewExprResolver returns a resolver with its own condition cache.
func NewExprResolver() *ExprResolver {
	return &ExprResolver{Eval: eval.MustNewEvaluator(eval.DefaultCacheSize)}
}

// Select returns the single constrained spec whose condition holds under
// q's substitution, or the base spec when none does.
func (r *ExprResolver) Select(entry *Entry, q query.Query) (*spec.ProcedureSpecification, error) {
	if len(entry.Constrained) == 0 {
		return &entry.Base, nil
	}
	bindings := q.Substs.Bindings()

	var (
		selected *spec.ProcedureSpecification
		matches  []string
	)
	for i := range entry.Constrained {
		c := &entry.Constrained[i]
		ok, err := r.Eval.Condition(c.When, bindings)
		if err != nil {
			return nil, fmt.Errorf("ghost constraint for %s: %w", q.Called, err)
		}
		if ok {
			selected = &c.Spec
			matches = append(matches, c.When)
		}
	}
	if len(matches) > 1 {
		return nil, &AmbiguousConstraintError{Query: q, Matches: matches}
	}
	if selected == nil {
		return &entry.Base, nil
	}
	return selected, nil
}
