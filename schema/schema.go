// Package schema normalizes the schema systems a handler can declare
// (Go struct reflection, declarative models, ad hoc field mappings) into
// JSON Schema fragments, and parses and serializes payloads against them.
package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Type represents a JSON Schema type that can be a single string
// or an array of strings.
//
// See: https://json-schema.org/draft/2020-12/json-schema-validation#section-6.1.1
type Type struct {
	value []string
}

// TypeOf creates a Type with one or more type names.
func TypeOf(types ...string) Type {
	return Type{value: types}
}

// Values returns the underlying type names.
func (t Type) Values() []string {
	return t.value
}

// First returns the first declared type name or an empty string.
func (t Type) First() string {
	if len(t.value) == 0 {
		return ""
	}
	return t.value[0]
}

// Has reports whether name is one of the declared types.
func (t Type) Has(name string) bool {
	for _, v := range t.value {
		if v == name {
			return true
		}
	}
	return false
}

// IsZero lets yaml.v3 and encoding/json omitzero skip an unset type.
func (t Type) IsZero() bool {
	return len(t.value) == 0
}

// MarshalJSON encodes a single type as a string and several as an array.
func (t Type) MarshalJSON() ([]byte, error) {
	if len(t.value) == 1 {
		return json.Marshal(t.value[0])
	}
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts either a string or an array of strings.
func (t *Type) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		t.value = []string{single}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	t.value = arr
	return nil
}

// MarshalYAML encodes a single type as a scalar and several as a sequence.
func (t Type) MarshalYAML() (any, error) {
	switch len(t.value) {
	case 0:
		return nil, nil
	case 1:
		return t.value[0], nil
	default:
		return t.value, nil
	}
}

// UnmarshalYAML accepts either a scalar or a sequence.
func (t *Type) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.value = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}
		t.value = arr
		return nil
	default:
		return fmt.Errorf("unsupported YAML node kind %d for schema type", node.Kind)
	}
}

// Schema is a JSON Schema fragment as embedded in an OpenAPI 3.1 document.
//
// See: https://spec.openapis.org/oas/v3.1.0#schema-object
type Schema struct {
	ID        string             `json:"$id,omitempty"`
	SchemaURI string             `json:"$schema,omitempty"`
	Ref       string             `json:"$ref,omitempty"`
	Defs      map[string]*Schema `json:"$defs,omitempty"`

	Type   Type   `json:"type,omitzero" yaml:"type,omitempty"`
	Format string `json:"format,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
	Examples    []any  `json:"examples,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
	WriteOnly   bool   `json:"writeOnly,omitempty"`

	MultipleOf *float64 `json:"multipleOf,omitempty"`
	Minimum    *float64 `json:"minimum,omitempty"`
	Maximum    *float64 `json:"maximum,omitempty"`

	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	Items       *Schema `json:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty"`

	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Required             []string           `json:"required,omitempty"`

	Enum []any `json:"enum,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`
}

// Clone returns a deep copy of s. Scalar interface values (defaults,
// examples, enum members) are shared.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Type = Type{value: append([]string(nil), s.Type.value...)}
	out.Items = s.Items.Clone()
	out.AdditionalProperties = s.AdditionalProperties.Clone()
	out.Not = s.Not.Clone()
	out.Required = append([]string(nil), s.Required...)
	out.Enum = append([]any(nil), s.Enum...)
	out.Examples = append([]any(nil), s.Examples...)
	out.Properties = cloneMap(s.Properties)
	out.Defs = cloneMap(s.Defs)
	out.AllOf = cloneList(s.AllOf)
	out.OneOf = cloneList(s.OneOf)
	out.AnyOf = cloneList(s.AnyOf)
	return &out
}

func cloneMap(in map[string]*Schema) map[string]*Schema {
	if in == nil {
		return nil
	}
	out := make(map[string]*Schema, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneList(in []*Schema) []*Schema {
	if in == nil {
		return nil
	}
	out := make([]*Schema, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}

// IsRequired reports whether the object schema lists name as required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// ArrayOf wraps item into an array schema.
func ArrayOf(item *Schema) *Schema {
	return &Schema{Type: TypeOf("array"), Items: item}
}

// RefTo returns a reference to a named component schema.
func RefTo(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}
