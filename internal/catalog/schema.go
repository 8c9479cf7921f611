package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildCatalogJSONSchema returns the JSON-Schema a catalog file must satisfy.
func BuildCatalogJSONSchema() map[string]any {
	entry := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"document_type", "keywords", "base_confidence"},
		"properties": map[string]any{
			"document_type": map[string]any{"type": "string", "minLength": 1},
			"keywords": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "minLength": 1},
			},
			"base_confidence": map[string]any{"type": "number", "exclusiveMinimum": 0.0, "maximum": 1.0},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"entries"},
		"properties": map[string]any{
			"fallback_type": map[string]any{"type": "string", "minLength": 1},
			"entries": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    entry,
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("catalog.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("catalog does not match schema: %w", err)
	}
	return nil
}
