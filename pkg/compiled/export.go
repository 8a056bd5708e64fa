package compiled

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema reflects Methodology into a JSON Schema Draft
// 2020-12 document via reflection.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Methodology{})
	s.ID = "https://github.com/ormasoftchile/methopipe/schemas/methodology_compiled.schema.json"
	s.Title = "Compiled Methodology"
	s.Description = "Schema for compiled methodology YAML/JSON documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal compiled methodology schema: %w", err)
	}
	return data, nil
}
