package refine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ormasoftchile/specref/pkg/kernel/query"
)

var (
	// ErrRefinementCycle: a query re-entered itself while being resolved,
	// i.e. the symbol database reported a cyclic override relation.
	ErrRefinementCycle = errors.New("refinement cycle")

	// ErrRefinementLost: a refinement was computed but is missing from the
	// cache afterwards.
	ErrRefinementLost = errors.New("could not perform refinement")
)

// InvariantError reports a broken engine invariant. It is never a user
// error and must not be reported as a diagnostic.
type InvariantError struct {
	Query query.Query
	Chain []query.Query
	Err   error
}

func (e *InvariantError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("%v for %s", e.Err, e.Query)
	}
	parts := make([]string, len(e.Chain))
	for i, q := range e.Chain {
		parts[i] = q.String()
	}
	return fmt.Sprintf("%v for %s: %s", e.Err, e.Query, strings.Join(parts, " → "))
}

func (e *InvariantError) Unwrap() error { return e.Err }

// IsInvariant reports whether err is (or wraps) an engine invariant violation.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
