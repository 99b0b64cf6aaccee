package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Location names where an input payload is read from.
type Location string

const (
	LocationJSON      Location = "json"
	LocationQuery     Location = "query"
	LocationHeaders   Location = "headers"
	LocationCookies   Location = "cookies"
	LocationForm      Location = "form"
	LocationFiles     Location = "files"
	LocationFormFiles Location = "form+files"
	LocationPath      Location = "path"
)

// ParseLocation validates a location string.
func ParseLocation(s string) (Location, error) {
	switch loc := Location(s); loc {
	case LocationJSON, LocationQuery, LocationHeaders, LocationCookies,
		LocationForm, LocationFiles, LocationFormFiles, LocationPath:
		return loc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocation, s)
}

// IsBody reports whether the location is carried in the request body.
func (l Location) IsBody() bool {
	switch l {
	case LocationJSON, LocationForm, LocationFiles, LocationFormFiles:
		return true
	}
	return false
}

// ContentType returns the request body media type for body locations.
func (l Location) ContentType() string {
	switch l {
	case LocationForm:
		return "application/x-www-form-urlencoded"
	case LocationFiles, LocationFormFiles:
		return "multipart/form-data"
	case LocationJSON:
		return "application/json"
	}
	return ""
}

// ParameterIn returns the OpenAPI parameter "in" value for non-body locations.
func (l Location) ParameterIn() string {
	switch l {
	case LocationQuery:
		return "query"
	case LocationHeaders:
		return "header"
	case LocationCookies:
		return "cookie"
	case LocationPath:
		return "path"
	}
	return ""
}

// Kind identifies the schema system behind an Adapter.
type Kind int

const (
	KindEmpty Kind = iota
	KindInline
	KindStruct
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInline:
		return "inline"
	case KindStruct:
		return "struct"
	case KindModel:
		return "model"
	}
	return "unknown"
}

// Refs turns a nested schema into a component reference. A nil Refs
// makes adapters inline nested types.
type Refs interface {
	Ref(a Adapter) (*Schema, error)
}

// Adapter is the uniform contract over the supported schema systems.
type Adapter interface {
	Kind() Kind

	// Key identifies the underlying schema object. Two adapters with equal
	// keys describe the same schema.
	Key() any

	// Name is the display name used for the component schema.
	Name() string

	Many() bool
	Partial() bool

	// Item returns the adapter for a single element of a list schema.
	Item() Adapter

	JSONSchema(refs Refs) (*Schema, error)
	Parse(raw any, loc Location) (any, error)
	Serialize(v any) (any, error)
}

// EmptySchema is the type of the Empty sentinel.
type EmptySchema struct{}

// Empty declares "no schema". It renders as {} and parses any input as-is.
var Empty = EmptySchema{}

// Decl carries list, partial and naming modifiers around a schema value.
type Decl struct {
	value   any
	many    bool
	partial bool
	name    string
}

// Many declares a list of v. Many(v) is equivalent to a slice of v's type.
func Many(v any) Decl {
	d := asDecl(v)
	d.many = true
	return d
}

// Partial declares v with every field optional. Its component name gets an
// "Update" suffix so it never collides with the full schema.
func Partial(v any) Decl {
	d := asDecl(v)
	d.partial = true
	return d
}

// Named overrides the display name of v.
func Named(name string, v any) Decl {
	d := asDecl(v)
	d.name = name
	return d
}

func asDecl(v any) Decl {
	if d, ok := v.(Decl); ok {
		return d
	}
	return Decl{value: v}
}

type options struct {
	many    bool
	partial bool
	name    string
}

func (o options) merge(d Decl) options {
	o.many = o.many || d.many
	o.partial = o.partial || d.partial
	if d.name != "" {
		o.name = d.name
	}
	return o
}

// displayName derives a component name from a Go type name. Anonymous
// types share the name "Generated".
func displayName(typeName string) string {
	if typeName == "" {
		return generatedName
	}
	name := sanitizeName(typeName)
	if trimmed := strings.TrimSuffix(name, "Schema"); trimmed != "" {
		name = trimmed
	}
	return name
}

// sanitizeName turns generic instantiations like "Page[pkg.User]" into
// "PageUser" and "Page[[]pkg.User]" into "PageUserList".
func sanitizeName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}
	return result
}

type emptyAdapter struct {
	many bool
}

func (emptyAdapter) Kind() Kind {
	return KindEmpty
}

func (emptyAdapter) Key() any {
	return Empty
}

func (emptyAdapter) Name() string {
	return ""
}

func (a emptyAdapter) Many() bool {
	return a.many
}

func (emptyAdapter) Partial() bool {
	return false
}

func (emptyAdapter) Item() Adapter {
	return emptyAdapter{}
}

func (emptyAdapter) Serialize(v any) (any, error) {
	return roundTrip(v)
}

func (a emptyAdapter) JSONSchema(Refs) (*Schema, error) {
	if a.many {
		return ArrayOf(&Schema{}), nil
	}
	return &Schema{}, nil
}

func (emptyAdapter) Parse(raw any, loc Location) (any, error) {
	if loc == LocationJSON {
		return decodeJSON(raw)
	}
	return raw, nil
}

type inlineAdapter struct {
	schema *Schema
	many   bool
}

func (inlineAdapter) Kind() Kind {
	return KindInline
}

func (a inlineAdapter) Key() any {
	return a.schema
}

func (inlineAdapter) Name() string {
	return ""
}

func (a inlineAdapter) Many() bool {
	return a.many
}

func (inlineAdapter) Partial() bool {
	return false
}

func (a inlineAdapter) Item() Adapter {
	return inlineAdapter{schema: a.schema}
}

func (a inlineAdapter) JSONSchema(Refs) (*Schema, error) {
	s := a.schema.Clone()
	if a.many {
		return ArrayOf(s), nil
	}
	return s, nil
}

func (a inlineAdapter) Parse(raw any, loc Location) (any, error) {
	return parse(a.schema, nil, a.many, raw, loc)
}

func (a inlineAdapter) Serialize(v any) (any, error) {
	return serialize(a.schema, a.many, v)
}

// typedAdapter serves every schema system that is backed by a Go type:
// struct reflection, declarative models and field mappings.
type typedAdapter struct {
	kind Kind
	t    reflect.Type
	key  any
	base string
	opts options
}

func (a *typedAdapter) Kind() Kind {
	return a.kind
}

func (a *typedAdapter) Key() any {
	return a.key
}

func (a *typedAdapter) Many() bool {
	return a.opts.many
}

func (a *typedAdapter) Partial() bool {
	return a.opts.partial
}

func (a *typedAdapter) Name() string {
	name := a.opts.name
	if name == "" {
		name = displayName(a.base)
	}
	if a.opts.partial {
		name += "Update"
	}
	return name
}

func (a *typedAdapter) Item() Adapter {
	item := *a
	item.opts.many = false
	return &item
}

// Type returns the Go type payloads are decoded into.
func (a *typedAdapter) Type() reflect.Type {
	return a.t
}

func (a *typedAdapter) JSONSchema(refs Refs) (*Schema, error) {
	var (
		s   *Schema
		err error
	)
	switch a.kind {
	case KindModel:
		s, err = modelSchema(a.t)
	default:
		s, err = newGenerator(refs).structSchema(a.t)
	}
	if err != nil {
		return nil, err
	}
	if a.opts.partial {
		s.Required = nil
	}
	if a.opts.many {
		return ArrayOf(s), nil
	}
	return s, nil
}

func (a *typedAdapter) Parse(raw any, loc Location) (any, error) {
	s, err := a.Item().JSONSchema(nil)
	if err != nil {
		return nil, err
	}
	return parse(s, a.t, a.opts.many, raw, loc)
}

func (a *typedAdapter) Serialize(v any) (any, error) {
	s, err := a.Item().JSONSchema(nil)
	if err != nil {
		return nil, err
	}
	return serialize(s, a.opts.many, v)
}

func withOptions(a Adapter, o options) Adapter {
	switch x := a.(type) {
	case *typedAdapter:
		out := *x
		out.opts = x.opts.merge(Decl{many: o.many, partial: o.partial, name: o.name})
		return &out
	case inlineAdapter:
		x.many = x.many || o.many
		return x
	case emptyAdapter:
		x.many = x.many || o.many
		return x
	}
	return a
}
