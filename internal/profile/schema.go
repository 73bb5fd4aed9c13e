package profile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildConfigSchema returns the JSON-Schema (draft 2020-12 subset) for the
// bank profile configuration file, as a generic map.
func buildConfigSchema() map[string]any {
	patternProp := map[string]any{"type": "string", "minLength": 1}

	profileProps := map[string]any{
		"bank":              map[string]any{"type": "string", "minLength": 1},
		"sender_address":    map[string]any{"type": "string", "minLength": 3},
		"subject_filter":    map[string]any{"type": "string"},
		"amount_pattern":    patternProp,
		"date_pattern":      patternProp,
		"merchant_patterns": map[string]any{"type": "array", "items": patternProp},
		"date_formats": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"minItems": 1,
		},
		"symbols": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"symbol":   map[string]any{"type": "string", "minLength": 1},
					"currency": map[string]any{"type": "string", "pattern": `^[A-Za-z]{3}$`},
				},
				"required": []string{"symbol", "currency"},
			},
		},
		"default_currency":    map[string]any{"type": "string", "pattern": `^[A-Za-z]{3}$`},
		"default_description": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"profiles": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           profileProps,
					"required":             []string{"bank", "sender_address", "amount_pattern", "date_pattern", "date_formats"},
				},
			},
		},
		"required": []string{"profiles"},
	}
}

// ValidateConfig validates raw profile-config JSON against the schema.
func ValidateConfig(raw []byte) error {
	b, err := json.Marshal(buildConfigSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profiles.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("profiles.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
