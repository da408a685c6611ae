package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and structurally decodes a specref/v0 document.
// Returns a structural error if the YAML contains unknown fields.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a specref/v0 document from a reader.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // strict: reject unknown fields
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	normalize(&doc)
	return &doc, nil
}

// normalize trims whitespace around identifiers and condition payloads so
// that YAML block scalars compare equal to their inline forms.
func normalize(doc *Document) {
	for i := range doc.Program.Traits {
		doc.Program.Traits[i].ID = strings.TrimSpace(doc.Program.Traits[i].ID)
	}
	for i := range doc.Program.Procedures {
		p := &doc.Program.Procedures[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Trait = strings.TrimSpace(p.Trait)
		for j := range p.Overrides {
			p.Overrides[j].Method = strings.TrimSpace(p.Overrides[j].Method)
			p.Overrides[j].When = strings.TrimSpace(p.Overrides[j].When)
		}
	}
	for id, ps := range doc.Specs.Procedures {
		trimAll(ps.Pre)
		trimAll(ps.Post)
		for j := range ps.Constrained {
			ps.Constrained[j].When = strings.TrimSpace(ps.Constrained[j].When)
			trimAll(ps.Constrained[j].Pre)
			trimAll(ps.Constrained[j].Post)
		}
		doc.Specs.Procedures[id] = ps
	}
	for _, ls := range doc.Specs.Loops {
		trimAll(ls.Invariant)
	}
}

func trimAll(ss []string) {
	for i := range ss {
		ss[i] = strings.TrimSpace(ss[i])
	}
}
