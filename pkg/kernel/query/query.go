// Package query identifies a specification resolution request: the called
// procedure plus the generic substitution in force at the call site.
package query

import (
	"sort"
	"strconv"
	"strings"
)

// ProcedureID is an opaque handle naming a procedure declaration.
type ProcedureID string

// Substitution binds a procedure's generic parameters to concrete types.
// The zero value is the empty substitution. Substitutions are comparable:
// two values are equal iff they bind every parameter identically.
type Substitution struct {
	canon string
}

// NewSubstitution builds a substitution from parameter → type bindings.
// Binding order does not matter.
func NewSubstitution(bindings map[string]string) Substitution {
	if len(bindings) == 0 {
		return Substitution{}
	}
	names := make([]string, 0, len(bindings))
	for n := range bindings {
		names = append(names, n)
	}
	sort.Strings(names)

	// name and value are length-prefixed: any byte may appear in either.
	var b strings.Builder
	for _, n := range names {
		writeField(&b, n)
		writeField(&b, bindings[n])
	}
	return Substitution{canon: b.String()}
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

// fields decodes the canonical form into name, value pairs in name order.
func (s Substitution) fields() [][2]string {
	var out [][2]string
	rest := s.canon
	next := func() string {
		n, tail, _ := strings.Cut(rest, ":")
		size, _ := strconv.Atoi(n)
		rest = tail[size:]
		return tail[:size]
	}
	for rest != "" {
		name := next()
		out = append(out, [2]string{name, next()})
	}
	return out
}

// IsEmpty reports whether s binds no parameters.
func (s Substitution) IsEmpty() bool { return s.canon == "" }

// Bindings returns a fresh copy of the parameter bindings.
func (s Substitution) Bindings() map[string]string {
	out := map[string]string{}
	for _, f := range s.fields() {
		out[f[0]] = f[1]
	}
	return out
}

// String renders the substitution as [T=i32, U=bool].
func (s Substitution) String() string {
	fields := s.fields()
	pairs := make([]string, len(fields))
	for i, f := range fields {
		pairs[i] = f[0] + "=" + f[1]
	}
	return "[" + strings.Join(pairs, ", ") + "]"
}

// Query is the cache key for procedure specifications. It is comparable and
// may be used directly as a map key.
type Query struct {
	Called ProcedureID
	Substs Substitution
}

// New creates a query for a call of called under substs.
func New(called ProcedureID, substs Substitution) Query {
	return Query{Called: called, Substs: substs}
}

// AdaptToCall derives a query for the same logical call resolved against a
// different target, typically the trait method an implementation overrides.
func (q Query) AdaptToCall(called ProcedureID, substs Substitution) Query {
	return Query{Called: called, Substs: substs}
}

// String renders the query as called[T=i32]; an empty substitution is
// omitted.
func (q Query) String() string {
	if q.Substs.IsEmpty() {
		return string(q.Called)
	}
	return string(q.Called) + q.Substs.String()
}
