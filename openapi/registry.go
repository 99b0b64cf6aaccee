package openapi

import (
	"maps"
	"strconv"

	"github.com/vitalvas/oasgen/schema"
)

// Registry collects the component schemas of one synthesis pass. Schemas
// are deduplicated by the identity of their underlying object: the same
// object always maps to the same name, and distinct objects that share a
// display name get numeric suffixes (Pet, Pet1, Pet2).
//
// See: https://spec.openapis.org/oas/v3.1.0#components-object (schemas)
type Registry struct {
	resolver schema.Resolver
	schemas  map[string]*Schema
	names    map[registryKey]string // object -> chosen name
	owners   map[string]registryKey // name -> object that claimed it
}

type registryKey struct {
	key     any
	partial bool
	name    string
}

// NewRegistry creates an empty registry resolving schemas with resolver.
func NewRegistry(resolver schema.Resolver) *Registry {
	return &Registry{
		resolver: resolver,
		schemas:  make(map[string]*Schema),
		names:    make(map[registryKey]string),
		owners:   make(map[string]registryKey),
	}
}

// Schema resolves v and returns the schema to embed in an operation:
// a $ref for registered types, a copy for inline schemas and {} for the
// empty sentinel. List forms wrap the result in an array.
func (r *Registry) Schema(v any) (*Schema, error) {
	a, err := r.resolver.Resolve(v)
	if err != nil {
		return nil, err
	}
	return r.schemaFor(a)
}

func (r *Registry) schemaFor(a schema.Adapter) (*Schema, error) {
	switch a.Kind() {
	case schema.KindEmpty, schema.KindInline:
		return a.JSONSchema(r)
	}
	return r.Ref(a)
}

// Ref implements schema.Refs.
func (r *Registry) Ref(a schema.Adapter) (*Schema, error) {
	name, err := r.Register(a)
	if err != nil {
		return nil, err
	}
	if a.Many() {
		return schema.ArrayOf(schema.RefTo(name)), nil
	}
	return schema.RefTo(name), nil
}

// Register stores the item schema of a and returns its component name.
func (r *Registry) Register(a schema.Adapter) (string, error) {
	item := a.Item()
	k := registryKey{key: item.Key(), partial: item.Partial(), name: item.Name()}
	if name, ok := r.names[k]; ok {
		return name, nil
	}

	name := r.claim(item.Name(), k)

	// The placeholder lets self-referencing types resolve to their own name.
	r.schemas[name] = &Schema{}
	s, err := item.JSONSchema(r)
	if err != nil {
		r.release(name, k)
		return "", err
	}
	r.schemas[name] = s
	return name, nil
}

// RegisterAs registers v under name. Typed schemas keep their own display
// name; inline schemas are stored under name.
func (r *Registry) RegisterAs(name string, v any) (*Schema, error) {
	a, err := r.resolver.Resolve(v)
	if err != nil {
		return nil, err
	}
	if a.Kind() == schema.KindStruct || a.Kind() == schema.KindModel {
		return r.Ref(a)
	}

	s, err := a.Item().JSONSchema(r)
	if err != nil {
		return nil, err
	}
	ref := schema.RefTo(r.fragment(registryKey{key: a.Key(), name: name}, name, s))
	if a.Many() {
		return schema.ArrayOf(ref), nil
	}
	return ref, nil
}

// fragment stores an already built schema under k, reusing the name k
// was given before.
func (r *Registry) fragment(k registryKey, name string, s *Schema) string {
	if existing, ok := r.names[k]; ok {
		return existing
	}
	name = r.claim(name, k)
	r.schemas[name] = s
	return name
}

func (r *Registry) claim(name string, k registryKey) string {
	if _, taken := r.owners[name]; taken {
		for i := 1; ; i++ {
			candidate := name + strconv.Itoa(i)
			if _, taken := r.owners[candidate]; !taken {
				name = candidate
				break
			}
		}
	}
	r.names[k] = name
	r.owners[name] = k
	return name
}

func (r *Registry) release(name string, k registryKey) {
	delete(r.names, k)
	delete(r.owners, name)
	delete(r.schemas, name)
}

// Schemas returns the accumulated components map.
func (r *Registry) Schemas() map[string]*Schema {
	return maps.Clone(r.schemas)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.schemas)
}
