package refine

import (
	"fmt"

	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// Cache maps queries to their refined specification. It is append-only for
// the lifetime of one analysis pass: the raw table and the symbol database
// are immutable, so entries never go stale.
type Cache struct {
	entries map[query.Query]*spec.ProcedureSpecification
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[query.Query]*spec.ProcedureSpecification)}
}

// Get returns the cached specification for q.
func (c *Cache) Get(q query.Query) (*spec.ProcedureSpecification, bool) {
	s, ok := c.entries[q]
	return s, ok
}

// Insert stores s under q. Inserting a key twice is an engine bug.
func (c *Cache) Insert(q query.Query, s spec.ProcedureSpecification) {
	if _, ok := c.entries[q]; ok {
		panic(fmt.Sprintf("refine: duplicate cache insert for %s", q))
	}
	c.entries[q] = &s
}

// Len returns the number of cached refinements.
func (c *Cache) Len() int {
	return len(c.entries)
}
