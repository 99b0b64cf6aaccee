package schema

import (
	"reflect"
)

// Resolver picks the schema system for a schema-like value.
// The zero value enables every system.
type Resolver struct {
	DisableModels  bool
	DisableStructs bool
}

// Resolve resolves v with the default Resolver.
func Resolve(v any) (Adapter, error) {
	return Resolver{}.Resolve(v)
}

// Resolve returns the Adapter for v. Values that already are adapters,
// *Schema fragments, Empty and Decl wrappers are handled first. Other
// values are tried against the declarative model system, then struct
// reflection, then field mappings (built into an ad hoc struct). A slice
// of a schema type resolves to the list form of its element.
func (r Resolver) Resolve(v any) (Adapter, error) {
	switch x := v.(type) {
	case nil:
		return nil, &TypeError{Value: v}
	case Decl:
		a, err := r.Resolve(x.value)
		if err != nil {
			return nil, err
		}
		return withOptions(a, options{many: x.many, partial: x.partial, name: x.name}), nil
	case Adapter:
		return x, nil
	case *Schema:
		if x == nil {
			return nil, &TypeError{Value: v}
		}
		return inlineAdapter{schema: x}, nil
	case EmptySchema:
		return emptyAdapter{}, nil
	}

	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}

	many := false
	t = indirect(t)
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		many = true
		t = indirect(t.Elem())
	}

	a, err := r.resolveType(t, v)
	if err != nil {
		return nil, err
	}
	if many {
		return withOptions(a, options{many: true}), nil
	}
	return a, nil
}

func (r Resolver) resolveType(t reflect.Type, v any) (Adapter, error) {
	if isModel(t) {
		if r.DisableModels {
			return nil, &UnresolvableError{Type: t}
		}
		return modelAdapter(t), nil
	}

	if t.Kind() == reflect.Struct {
		if r.DisableStructs {
			return nil, &UnresolvableError{Type: t}
		}
		return structAdapter(t), nil
	}

	if fields, ok := asFields(v); ok {
		if r.DisableStructs {
			return nil, &UnresolvableError{Type: t}
		}
		return fields.adapter(), nil
	}

	return nil, &TypeError{Value: v}
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func structAdapter(t reflect.Type) *typedAdapter {
	return &typedAdapter{kind: KindStruct, t: t, key: t, base: t.Name()}
}

func modelAdapter(t reflect.Type) *typedAdapter {
	return &typedAdapter{kind: KindModel, t: t, key: t, base: t.Name()}
}

// adapterForType is used for nested types met while reflecting a struct.
func adapterForType(t reflect.Type) Adapter {
	if isModel(t) {
		return modelAdapter(t)
	}
	return structAdapter(t)
}
