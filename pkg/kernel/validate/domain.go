package validate

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/ormasoftchile/specref/pkg/kernel/eval"
	"github.com/ormasoftchile/specref/pkg/kernel/schema"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// validateDomain runs specref/v0 domain-level validation rules.
func validateDomain(doc *schema.Document) []*ValidationError {
	var errs []*ValidationError

	// D1: apiVersion must be specref/v0
	if doc.APIVersion != schema.APIVersion {
		errs = append(errs, errorf("domain", "apiVersion", "expected %q, got %q", schema.APIVersion, doc.APIVersion))
	}

	// D2: declaration ID uniqueness across traits and procedures
	declared := map[string]string{} // id → path
	for i, t := range doc.Program.Traits {
		errs = append(errs, checkUnique(declared, t.ID, fmt.Sprintf("program.traits[%d]", i))...)
	}
	for i, p := range doc.Program.Procedures {
		errs = append(errs, checkUnique(declared, p.ID, fmt.Sprintf("program.procedures[%d]", i))...)
	}

	ev := eval.MustNewEvaluator(eval.DefaultCacheSize)

	// D3-D5: procedure references
	for i, p := range doc.Program.Procedures {
		path := fmt.Sprintf("program.procedures[%d]", i)
		if p.Trait != "" {
			if _, ok := doc.TraitByID(p.Trait); !ok {
				errs = append(errs, errorf("domain", path+".trait", "unknown trait %q", p.Trait))
			}
		}
		for j, o := range p.Overrides {
			errs = append(errs, validateOverride(doc, ev, p, o, fmt.Sprintf("%s.overrides[%d]", path, j))...)
		}
	}

	// D6: unconditional overrides must not form a cycle
	errs = append(errs, validateOverrideCycles(doc)...)

	// D7-D9: specification table
	for _, id := range sortedKeys(doc.Specs.Procedures) {
		errs = append(errs, validateProcSpec(doc, ev, id, doc.Specs.Procedures[id])...)
	}
	for _, site := range sortedKeys(doc.Specs.Loops) {
		path := "specs.loops." + site
		ls := doc.Specs.Loops[site]
		if len(ls.Invariant) == 0 {
			errs = append(errs, warningf("domain", path+".invariant", "loop has an empty invariant"))
		}
		errs = append(errs, validateConditions(ls.Invariant, path+".invariant")...)
	}

	// D10: extern specifications
	for _, stub := range sortedKeys(doc.Specs.Extern) {
		target := doc.Specs.Extern[stub]
		path := "specs.extern." + stub
		if stub == target {
			errs = append(errs, errorf("domain", path, "extern specification %q targets itself", stub))
			continue
		}
		if _, ok := doc.ProcedureByID(target); !ok {
			errs = append(errs, warningf("domain", path, "extern target %q is not declared in program", target))
		}
	}

	// D11: call sites must name declared procedures
	for i, c := range doc.Calls {
		if _, ok := doc.ProcedureByID(c.Called); !ok {
			errs = append(errs, errorf("domain", fmt.Sprintf("calls[%d].called", i), "unknown procedure %q", c.Called))
		}
	}

	return errs
}

func checkUnique(seen map[string]string, id, path string) []*ValidationError {
	if prev, ok := seen[id]; ok {
		return []*ValidationError{errorf("domain", path+".id", "duplicate declaration ID %q (first at %s)", id, prev)}
	}
	seen[id] = path
	return nil
}

func validateOverride(doc *schema.Document, ev *eval.Evaluator, p schema.Procedure, o schema.Override, path string) []*ValidationError {
	var errs []*ValidationError

	if o.Method == p.ID {
		errs = append(errs, errorf("domain", path+".method", "procedure %q cannot override itself", p.ID))
	} else if _, ok := doc.ProcedureByID(o.Method); !ok {
		errs = append(errs, errorf("domain", path+".method", "unknown trait method %q", o.Method))
	} else if m, _ := doc.ProcedureByID(o.Method); m.Trait == "" {
		errs = append(errs, warningf("domain", path+".method", "%q is not declared on a trait", o.Method))
	}

	if when := strings.TrimSpace(o.When); when != "" {
		if err := ev.Compile(when); err != nil {
			errs = append(errs, errorf("domain", path+".when", "invalid condition: %s", err))
		}
	}
	for _, k := range sortedKeys(o.Substs) {
		if err := eval.ParseTemplate(o.Substs[k]); err != nil {
			errs = append(errs, errorf("domain", path+".substs."+k, "%s", err))
		}
	}
	return errs
}

// validateOverrideCycles reports override chains that loop back on
// themselves through unconditional overrides. Conditional overrides may
// still cycle at runtime; the engine reports those as invariant errors.
func validateOverrideCycles(doc *schema.Document) []*ValidationError {
	next := map[string]string{}
	for _, p := range doc.Program.Procedures {
		for _, o := range p.Overrides {
			if o.When == "" {
				next[p.ID] = o.Method
				break
			}
		}
	}

	var errs []*ValidationError
	reported := map[string]bool{}
	for i, p := range doc.Program.Procedures {
		chain := []string{p.ID}
		for cur := next[p.ID]; cur != ""; cur = next[cur] {
			if idx := slices.Index(chain, cur); idx >= 0 {
				cycle := append(chain[idx:], cur)
				key := canonicalCycle(cycle[:len(cycle)-1])
				if !reported[key] {
					reported[key] = true
					errs = append(errs, errorf("domain", fmt.Sprintf("program.procedures[%d].overrides", i),
						"override cycle: %s", strings.Join(cycle, " → ")))
				}
				break
			}
			chain = append(chain, cur)
		}
	}
	return errs
}

func canonicalCycle(ids []string) string {
	sorted := slices.Clone(ids)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func validateProcSpec(doc *schema.Document, ev *eval.Evaluator, id string, ps schema.ProcSpec) []*ValidationError {
	var errs []*ValidationError
	path := "specs.procedures." + id

	if _, ok := doc.ProcedureByID(id); !ok {
		if _, extern := doc.Specs.Extern[id]; !extern {
			errs = append(errs, warningf("domain", path, "specification for undeclared procedure %q", id))
		}
	}
	if ps.Kind != "" {
		if _, err := spec.ParseKind(ps.Kind); err != nil {
			errs = append(errs, errorf("domain", path+".kind", "%s", err))
		}
	}
	errs = append(errs, validateConditions(ps.Pre, path+".pre")...)
	errs = append(errs, validateConditions(ps.Post, path+".post")...)
	for i, pl := range ps.Pledges {
		if strings.TrimSpace(pl.After) == "" {
			errs = append(errs, errorf("domain", fmt.Sprintf("%s.pledges[%d].after", path, i), "pledge requires an 'after' assertion"))
		}
	}
	for i, c := range ps.Constrained {
		cpath := fmt.Sprintf("%s.constrained[%d]", path, i)
		if when := strings.TrimSpace(c.When); when == "" {
			errs = append(errs, errorf("domain", cpath+".when", "ghost constraint requires a 'when' condition"))
		} else if err := ev.Compile(when); err != nil {
			errs = append(errs, errorf("domain", cpath+".when", "invalid ghost constraint: %s", err))
		}
		if len(c.Pre) == 0 && len(c.Post) == 0 {
			errs = append(errs, warningf("domain", cpath, "ghost constraint adds no conditions"))
		}
		errs = append(errs, validateConditions(c.Pre, cpath+".pre")...)
		errs = append(errs, validateConditions(c.Post, cpath+".post")...)
	}
	return errs
}

func validateConditions(conds []string, path string) []*ValidationError {
	var errs []*ValidationError
	for i, c := range conds {
		if strings.TrimSpace(c) == "" {
			errs = append(errs, errorf("domain", fmt.Sprintf("%s[%d]", path, i), "empty condition"))
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
