package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id of the generated document schema.
const SchemaID = "https://github.com/ormasoftchile/specref/schemas/specref-v0.json"

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// specref/v0 Document Go types.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&Document{})
	s.ID = SchemaID
	s.Title = "Specification table — specref/v0"
	s.Description = "Schema for specref/v0 program and specification documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document schema: %w", err)
	}
	return data, nil
}
