package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const generatedName = "Generated"

// Fields is an ad hoc schema declared as a mapping of field name to Field.
// It is turned into a struct type and then handled by struct reflection.
// The identity of a Fields value is its map, so reusing the same variable
// yields the same component while two equal literals yield two.
//
//	schema.Fields{
//	    "id":   schema.Int().Required(),
//	    "kind": schema.String().Enum("cat", "dog"),
//	}
type Fields map[string]Field

// Field describes one entry of a Fields mapping.
type Field struct {
	typ      reflect.Type
	elem     *Field
	nested   Fields
	required bool
	tags     []string
}

// String is a string field.
func String() Field {
	return Field{typ: reflect.TypeOf("")}
}

// Int is an integer field.
func Int() Field {
	return Field{typ: reflect.TypeOf(int64(0))}
}

// Float is a number field.
func Float() Field {
	return Field{typ: reflect.TypeOf(float64(0))}
}

// Bool is a boolean field.
func Bool() Field {
	return Field{typ: reflect.TypeOf(false)}
}

// UUID is a string field validated as a UUID.
func UUID() Field {
	return String().Format("uuid")
}

// List declares an array of elem.
func List(elem Field) Field {
	return Field{elem: &elem}
}

// Nested declares an inline object.
func Nested(fields Fields) Field {
	return Field{nested: fields}
}

// Required marks the field as required.
func (f Field) Required() Field {
	f.required = true
	return f
}

// Enum restricts the field to the given values.
func (f Field) Enum(values ...string) Field {
	return f.tag("enum=" + strings.Join(values, "|"))
}

// Describe sets the field description. Commas are replaced by semicolons.
func (f Field) Describe(text string) Field {
	return f.tag("description=" + strings.ReplaceAll(text, ",", ";"))
}

// Format sets the string format (uuid, email, date-time...).
func (f Field) Format(format string) Field {
	return f.tag("format=" + format)
}

func (f Field) tag(part string) Field {
	f.tags = append(append([]string(nil), f.tags...), part)
	return f
}

func (f Field) reflectType() reflect.Type {
	switch {
	case f.nested != nil:
		return f.nested.structType()
	case f.elem != nil:
		return reflect.SliceOf(f.elem.reflectType())
	case f.typ != nil:
		return f.typ
	}
	return reflect.TypeOf((*any)(nil)).Elem()
}

// structType builds the struct type carrying one field per entry, in
// name order, with json and openapi tags derived from the Field.
func (fs Fields) structType() reflect.Type {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]reflect.StructField, 0, len(names))
	for i, name := range names {
		f := fs[name]
		jsonTag := name
		if !f.required {
			jsonTag += ",omitempty"
		}
		tag := fmt.Sprintf(`json:%q`, jsonTag)
		if len(f.tags) > 0 {
			tag += fmt.Sprintf(` openapi:%q`, strings.Join(f.tags, ","))
		}
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: f.reflectType(),
			Tag:  reflect.StructTag(tag),
		})
	}
	return reflect.StructOf(fields)
}

func (fs Fields) adapter() *typedAdapter {
	return &typedAdapter{
		kind: KindStruct,
		t:    fs.structType(),
		key:  fieldsKey(reflect.ValueOf(fs).Pointer()),
		base: generatedName,
	}
}

type fieldsKey uintptr

func asFields(v any) (Fields, bool) {
	switch x := v.(type) {
	case Fields:
		return x, true
	case map[string]Field:
		return Fields(x), true
	}
	return nil, false
}
