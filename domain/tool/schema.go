package tool

import (
	"encoding/json"
	"errors"
)

// Schema wraps JSON Schema for input validation.
type Schema struct {
	raw json.RawMessage
}

// NewSchema creates a schema from raw JSON.
func NewSchema(raw json.RawMessage) Schema {
	return Schema{raw: raw}
}

// EmptySchema returns a schema that accepts any input.
func EmptySchema() Schema {
	return Schema{raw: json.RawMessage(`{}`)}
}

// ObjectSchema returns a schema for an object with the given properties.
func ObjectSchema(properties map[string]json.RawMessage, required []string) Schema {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, _ := json.Marshal(schema)
	return Schema{raw: raw}
}

// StringProperty is a convenience for the common string-typed field.
func StringProperty(description string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{
		"type":        "string",
		"description": description,
	})
	return raw
}

// IntProperty is a convenience for an integer-typed field.
func IntProperty(description string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{
		"type":        "integer",
		"description": description,
	})
	return raw
}

// Raw returns the underlying JSON schema.
func (s Schema) Raw() json.RawMessage {
	return s.raw
}

// IsEmpty returns true if the schema is empty or nil.
func (s Schema) IsEmpty() bool {
	return len(s.raw) == 0 || string(s.raw) == "{}" || string(s.raw) == "null"
}

// Validate checks data against the schema. Structural validation is limited
// to well-formedness and required top-level fields.
func (s Schema) Validate(data json.RawMessage) error {
	if !json.Valid(data) {
		return errors.New("invalid JSON")
	}
	if s.IsEmpty() {
		return nil
	}

	var spec struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(s.raw, &spec); err != nil || len(spec.Required) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.New("input is not an object")
	}
	for _, name := range spec.Required {
		if _, ok := fields[name]; !ok {
			return errors.New("missing required field " + name)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s.raw == nil {
		return []byte("{}"), nil
	}
	return s.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	s.raw = data
	return nil
}
