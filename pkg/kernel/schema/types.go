// Package schema defines the specref/v0 document: the program metadata a
// symbol database is built from, the user-authored specification table, and
// the call sites to resolve.
package schema

import (
	"github.com/ormasoftchile/specref/pkg/kernel/diag"
)

// APIVersion is the only supported document version.
const APIVersion = "specref/v0"

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Document is the top-level specref/v0 document.
type Document struct {
	APIVersion string  `yaml:"apiVersion"      json:"apiVersion"`
	Program    Program `yaml:"program"         json:"program"`
	Specs      Specs   `yaml:"specs,omitempty" json:"specs,omitempty"`
	Calls      []Call  `yaml:"calls,omitempty" json:"calls,omitempty"`
}

// ---------------------------------------------------------------------------
// Program metadata
// ---------------------------------------------------------------------------

// Program describes the declarations of the analyzed program.
type Program struct {
	Traits     []Trait     `yaml:"traits,omitempty"     json:"traits,omitempty"`
	Procedures []Procedure `yaml:"procedures,omitempty" json:"procedures,omitempty"`
}

// Trait is a trait declaration.
type Trait struct {
	ID   string    `yaml:"id"             json:"id" jsonschema:"minLength=1"`
	Name string    `yaml:"name,omitempty" json:"name,omitempty"`
	Span diag.Span `yaml:"span,omitempty" json:"span,omitempty"`
}

// Procedure is a procedure declaration: a free function, a trait method, or
// an implementation method.
type Procedure struct {
	ID        string     `yaml:"id"                  json:"id" jsonschema:"minLength=1"`
	Name      string     `yaml:"name,omitempty"      json:"name,omitempty"`
	Trait     string     `yaml:"trait,omitempty"     json:"trait,omitempty"`
	Span      diag.Span  `yaml:"span,omitempty"      json:"span,omitempty"`
	Overrides []Override `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Override declares that a procedure implements a trait method. When is an
// optional condition over the call substitution; Substs, when present,
// rewrites the substitution used to resolve the trait method. Substs values
// are templates over the call bindings, e.g. "{{ .T }}".
type Override struct {
	Method string            `yaml:"method"           json:"method" jsonschema:"minLength=1"`
	When   string            `yaml:"when,omitempty"   json:"when,omitempty"`
	Substs map[string]string `yaml:"substs,omitempty" json:"substs,omitempty"`
}

// ---------------------------------------------------------------------------
// Specifications
// ---------------------------------------------------------------------------

// Specs is the user-authored specification table.
type Specs struct {
	Procedures map[string]ProcSpec `yaml:"procedures,omitempty" json:"procedures,omitempty"`
	Loops      map[string]LoopSpec `yaml:"loops,omitempty"      json:"loops,omitempty"`
	Extern     map[string]string   `yaml:"extern,omitempty"     json:"extern,omitempty"`
}

// ProcSpec is the contract written on one procedure. Omitted fields are
// unspecified and will be inherited during refinement.
type ProcSpec struct {
	Kind        string            `yaml:"kind,omitempty"        json:"kind,omitempty" jsonschema:"enum=predicate,enum=pure,enum=impure"`
	Pre         []string          `yaml:"pre,omitempty"         json:"pre,omitempty"`
	Post        []string          `yaml:"post,omitempty"        json:"post,omitempty"`
	Pledges     []Pledge          `yaml:"pledges,omitempty"     json:"pledges,omitempty"`
	Trusted     *bool             `yaml:"trusted,omitempty"     json:"trusted,omitempty"`
	Terminates  string            `yaml:"terminates,omitempty"  json:"terminates,omitempty"`
	Constrained []ConstrainedSpec `yaml:"constrained,omitempty" json:"constrained,omitempty"`
}

// ConstrainedSpec adds conditions that only apply when When holds for the
// call substitution (a ghost constraint).
type ConstrainedSpec struct {
	When string   `yaml:"when"           json:"when" jsonschema:"minLength=1"`
	Pre  []string `yaml:"pre,omitempty"  json:"pre,omitempty"`
	Post []string `yaml:"post,omitempty" json:"post,omitempty"`
}

// Pledge is a pledge annotation.
type Pledge struct {
	Reference string `yaml:"reference,omitempty" json:"reference,omitempty"`
	Before    string `yaml:"before,omitempty"    json:"before,omitempty"`
	After     string `yaml:"after"               json:"after" jsonschema:"minLength=1"`
}

// LoopSpec is the invariant of one loop site.
type LoopSpec struct {
	Invariant []string  `yaml:"invariant"      json:"invariant"`
	Span      diag.Span `yaml:"span,omitempty" json:"span,omitempty"`
}

// ---------------------------------------------------------------------------
// Call sites
// ---------------------------------------------------------------------------

// Call is a call site whose effective specification should be resolved.
type Call struct {
	Called string            `yaml:"called"           json:"called" jsonschema:"minLength=1"`
	Substs map[string]string `yaml:"substs,omitempty" json:"substs,omitempty"`
	Span   diag.Span         `yaml:"span,omitempty"   json:"span,omitempty"`
}

// ProcedureByID returns the procedure declaration with the given id.
func (d *Document) ProcedureByID(id string) (*Procedure, bool) {
	for i := range d.Program.Procedures {
		if d.Program.Procedures[i].ID == id {
			return &d.Program.Procedures[i], true
		}
	}
	return nil, false
}

// TraitByID returns the trait declaration with the given id.
func (d *Document) TraitByID(id string) (*Trait, bool) {
	for i := range d.Program.Traits {
		if d.Program.Traits[i].ID == id {
			return &d.Program.Traits[i], true
		}
	}
	return nil, false
}
