package compiled

import (
	"encoding/json"
	"fmt"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is a single schema violation.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks m against the generated JSON Schema. It is the QA
// Reviewer's Layer-1 schema precheck, factored out so the Compiler can
// also call it as a self-check before writing its output.
func Validate(m *Methodology) []*ValidationError {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("generate schema: %v", err)}}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal schema: %v", err)}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("methodology_compiled.schema.json", schemaDoc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("add schema resource: %v", err)}}
	}
	sch, err := c.Compile("methodology_compiled.schema.json")
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("compile schema: %v", err)}}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("marshal document: %v", err)}}
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("unmarshal document: %v", err)}}
	}

	if err := sch.Validate(doc); err != nil {
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			var out []*ValidationError
			for _, leaf := range flattenValidationError(ve) {
				out = append(out, &ValidationError{
					Path:    joinLoc(leaf.InstanceLocation),
					Message: fmt.Sprintf("%v", leaf.ErrorKind),
				})
			}
			return out
		}
		return []*ValidationError{{Message: err.Error()}}
	}
	return nil
}

func flattenValidationError(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationError(cause)...)
	}
	return flat
}

func joinLoc(loc []string) string {
	s := "#"
	for _, p := range loc {
		s += "/" + p
	}
	return s
}
