package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// BaseModel marks a struct as a declarative model. Models are described
// with `jsonschema` struct tags instead of `openapi` tags:
//
//	type Owner struct {
//	    schema.BaseModel
//	    Email string `json:"email" jsonschema:"format=email,description=Contact address"`
//	}
type BaseModel struct{}

var baseModelType = reflect.TypeOf(BaseModel{})

func isModel(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type == baseModelType {
			return true
		}
	}
	return false
}

var modelReflector = &jsonschema.Reflector{
	Anonymous:                 true,
	AllowAdditionalProperties: true,
	DoNotReference:            true,
	ExpandedStruct:            true,
}

func modelSchema(t reflect.Type) (*Schema, error) {
	js := modelReflector.ReflectFromType(t)

	data, err := json.Marshal(js)
	if err != nil {
		return nil, fmt.Errorf("marshal model schema %v: %w", t, err)
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode model schema %v: %w", t, err)
	}
	s.ID = ""
	s.SchemaURI = ""
	s.Defs = nil
	return &s, nil
}
