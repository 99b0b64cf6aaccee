package schema

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Exampler can be implemented by schema types to attach an example value
// to their generated schema.
//
//	func (p Pet) SchemaExample() any {
//	    return Pet{ID: 1, Name: "Rex"}
//	}
type Exampler interface {
	SchemaExample() any
}

var timeType = reflect.TypeOf(time.Time{})

// generator reflects Go struct types into JSON Schema. Nested named
// structs go through refs when set and are inlined otherwise.
type generator struct {
	refs     Refs
	visiting map[reflect.Type]bool
}

func newGenerator(refs Refs) *generator {
	return &generator{refs: refs, visiting: make(map[reflect.Type]bool)}
}

func (g *generator) typeSchema(t reflect.Type) (*Schema, error) {
	t = indirect(t)

	if t.Kind() == reflect.Struct && t != timeType && t.Name() != "" && t.PkgPath() != "" {
		if g.refs != nil {
			return g.refs.Ref(adapterForType(t))
		}
		if g.visiting[t] {
			// recursive type without a registry
			return &Schema{Type: TypeOf("object")}, nil
		}
		if isModel(t) {
			return modelSchema(t)
		}
		return g.structSchema(t)
	}

	return g.inlineSchema(t)
}

func (g *generator) inlineSchema(t reflect.Type) (*Schema, error) {
	if t == timeType {
		return &Schema{Type: TypeOf("string"), Format: "date-time"}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeOf("boolean")}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: TypeOf("integer")}, nil

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: TypeOf("number")}, nil

	case reflect.String:
		return &Schema{Type: TypeOf("string")}, nil

	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: TypeOf("string"), Format: "byte"}, nil
		}
		items, err := g.typeSchema(t.Elem())
		if err != nil {
			return nil, err
		}
		return ArrayOf(items), nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: TypeOf("object")}, nil
		}
		values, err := g.typeSchema(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: TypeOf("object"), AdditionalProperties: values}, nil

	case reflect.Struct:
		return g.structSchema(t)
	}

	// interfaces and anything without a JSON shape accept any value
	return &Schema{}, nil
}

func (g *generator) structSchema(t reflect.Type) (*Schema, error) {
	g.visiting[t] = true
	defer delete(g.visiting, t)

	s := &Schema{
		Type:       TypeOf("object"),
		Properties: make(map[string]*Schema),
	}
	if err := g.collectFields(t, s, false); err != nil {
		return nil, err
	}
	if len(s.Properties) == 0 {
		s.Properties = nil
	}

	if t.Name() != "" {
		if ex, ok := reflect.New(t).Elem().Interface().(Exampler); ok {
			s.Example = ex.SchemaExample()
		}
	}
	return s, nil
}

// collectFields adds the exported fields of t to s. Fields of
// pointer-embedded structs are never required since the pointer may be nil.
func (g *generator) collectFields(t reflect.Type, s *Schema, allOptional bool) error {
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			ft := field.Type
			isPtr := ft.Kind() == reflect.Pointer
			if isPtr {
				ft = ft.Elem()
			}
			if jsonName == "" && ft.Kind() == reflect.Struct {
				if ft == baseModelType {
					continue
				}
				if err := g.collectFields(ft, s, allOptional || isPtr); err != nil {
					return err
				}
				continue
			}
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fs, err := g.typeSchema(field.Type)
		if err != nil {
			return err
		}
		forceRequired := applyTag(fs, field.Tag.Get("openapi"))
		if opts.stringEncode && fs.Ref == "" {
			fs.Type = TypeOf("string")
		}
		s.Properties[name] = fs

		optional := opts.omitempty || allOptional || field.Type.Kind() == reflect.Pointer
		if forceRequired || !optional {
			s.Required = append(s.Required, name)
		}
	}
	return nil
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applyTag applies the `openapi` struct tag to s and reports whether the
// tag forces the field to be required. A $ref schema only keeps its
// reference, so constraints are dropped for it.
func applyTag(s *Schema, tag string) bool {
	if tag == "" {
		return false
	}

	required := false
	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "required" {
			required = true
			continue
		}
		if s.Ref != "" {
			continue
		}

		switch key {
		case "description":
			s.Description = value
		case "title":
			s.Title = value
		case "format":
			s.Format = value
		case "example":
			s.Example = typedValue(s, value)
		case "default":
			s.Default = typedValue(s, value)
		case "pattern":
			s.Pattern = value
		case "enum":
			values := strings.Split(value, "|")
			s.Enum = make([]any, len(values))
			for i, v := range values {
				s.Enum[i] = typedValue(s, v)
			}
		case "minimum":
			s.Minimum = parseFloat(value)
		case "maximum":
			s.Maximum = parseFloat(value)
		case "multipleOf":
			s.MultipleOf = parseFloat(value)
		case "minLength":
			s.MinLength = parseInt(value)
		case "maxLength":
			s.MaxLength = parseInt(value)
		case "minItems":
			s.MinItems = parseInt(value)
		case "maxItems":
			s.MaxItems = parseInt(value)
		case "uniqueItems":
			s.UniqueItems = true
		case "deprecated":
			s.Deprecated = true
		case "readOnly":
			s.ReadOnly = true
		case "writeOnly":
			s.WriteOnly = true
		}
	}
	return required
}

func parseFloat(value string) *float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(value string) *int {
	v, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &v
}

// typedValue converts a tag value to the Go type matching the schema type.
func typedValue(s *Schema, value string) any {
	switch s.Type.First() {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}
