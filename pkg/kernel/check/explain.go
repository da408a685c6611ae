package check

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// Explanation is everything known about one query: the governing
// specification and the override chain it was refined along.
type Explanation struct {
	Query query.Query
	Name  string
	Spec  *spec.ProcedureSpecification
	Chain []ChainLink
}

// ChainLink is one element of an override chain with its own specification.
type ChainLink struct {
	Query query.Query
	Name  string
	Spec  *spec.ProcedureSpecification
}

// Explain resolves q and every element of its override chain.
func (s *Session) Explain(q query.Query) (*Explanation, error) {
	sp, err := s.Engine.Resolve(q)
	if err != nil {
		return nil, err
	}
	chain, err := s.Engine.Chain(q)
	if err != nil {
		return nil, err
	}

	ex := &Explanation{Query: q, Name: s.Program.QualifiedName(q.Called), Spec: sp}
	for _, c := range chain {
		csp, err := s.Engine.Resolve(c)
		if err != nil {
			return nil, err
		}
		ex.Chain = append(ex.Chain, ChainLink{Query: c, Name: s.Program.QualifiedName(c.Called), Spec: csp})
	}
	return ex, nil
}

// ParseSubsts parses "T=i32" style bindings.
func ParseSubsts(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid substitution %q: expected NAME=TYPE", a)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate substitution for %q", k)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// ParseQuery builds a query from a procedure id and "NAME=TYPE" bindings.
func ParseQuery(called string, args []string) (query.Query, error) {
	bindings, err := ParseSubsts(args)
	if err != nil {
		return query.Query{}, err
	}
	return query.New(query.ProcedureID(called), query.NewSubstitution(bindings)), nil
}
