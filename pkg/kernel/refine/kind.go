package refine

import (
	"errors"
	"fmt"

	"github.com/ormasoftchile/specref/pkg/kernel/diag"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
	"github.com/ormasoftchile/specref/pkg/kernel/trace"
)

// validateRefinedKind reports an invalid kind refinement of the impl method
// against the trait method. Resolution continues either way.
func (e *Engine) validateRefinedKind(implQuery, traitQuery query.Query, kind spec.Item[spec.Kind]) {
	implMethod, traitMethod := implQuery.Called, traitQuery.Called
	err := spec.ValidateKind(kind)
	var kerr *spec.KindRefinementError
	if !errors.As(err, &kerr) {
		return
	}

	implSpan := e.db.DefinitionSpan(implMethod)
	implName := e.db.QualifiedName(implMethod)
	traitMethodName := e.db.QualifiedName(traitMethod)

	traitSpan := e.db.DefinitionSpan(traitMethod)
	traitName := traitMethodName
	if traitID, ok := e.db.OwningTrait(traitMethod); ok {
		traitSpan = e.db.DefinitionSpan(traitID)
		traitName = e.db.QualifiedName(traitID)
	}

	e.logger.Debug("invalid kind refinement",
		"impl", implMethod, "trait_method", traitMethod,
		"base", kerr.Base, "refined", kerr.Refined)
	e.traceEvent(trace.EventKindViolation, implQuery, map[string]any{
		"trait_method": string(traitMethod),
		"base_kind":    string(kerr.Base),
		"refined_kind": string(kerr.Refined),
	})

	diag.Errorf(implSpan, "Invalid specification kind for procedure '%s'", implName).
		WithCode(diag.CodeInvalidKindRefinement).
		AddNote("Procedures can be predicates, pure or impure").
		AddNote(fmt.Sprintf("This procedure is of kind '%s'", kerr.Refined)).
		AddSpanNote(fmt.Sprintf("This procedure refines a function declared on '%s'", traitName), traitSpan).
		AddNote(fmt.Sprintf("However, '%s' is of kind '%s'", traitMethodName, kerr.Base)).
		AddSpanNote(fmt.Sprintf("Try to convert '%s' into a procedure of kind '%s'", implName, kerr.Base), implSpan).
		Emit(e.sink)
}
