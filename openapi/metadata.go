package openapi

import (
	"slices"

	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/schema"
)

// Metadata is the OpenAPI metadata declared for one handler and method.
// Values are immutable: every constructor returns a fragment and Merge
// combines fragments into a new value.
//
//	meta, err := openapi.Merge(
//	    openapi.Input(PetIn{}, "json"),
//	    openapi.Output(Pet{}, openapi.Status(http.StatusCreated)),
//	    openapi.Summary("Create a pet"),
//	    openapi.Auth(basic),
//	)
type Metadata struct {
	body   *bodyDecl
	inputs []inputDecl
	output *outputDecl

	auth  auth.Scheme
	roles []string

	summary     string
	description string
	docText     string
	operationID string
	tags        []string
	deprecated  bool
	hide        bool
	responses   []extraResponse

	security    []SecurityRequirement
	hasSecurity bool

	err error
}

type bodyDecl struct {
	schema      any
	location    schema.Location
	contentType string
	description string
	example     any
	examples    map[string]*Example
}

type inputDecl struct {
	schema   any
	location schema.Location
}

type outputDecl struct {
	schema      any
	status      int
	description string
	contentType string
	example     any
	examples    map[string]*Example
	links       map[string]*Link
}

type extraResponse struct {
	status      int
	description string
	fromList    bool
}

// Option configures Input and Output declarations.
type Option func(*declOptions)

type declOptions struct {
	status      int
	description string
	contentType string
	example     any
	examples    map[string]*Example
	links       map[string]*Link
}

// Status sets the status code of an output (default 200).
func Status(code int) Option {
	return func(o *declOptions) {
		o.status = code
	}
}

// Describe sets the response or request body description.
func Describe(text string) Option {
	return func(o *declOptions) {
		o.description = text
	}
}

// ContentType overrides the media type derived from the location.
func ContentType(ct string) Option {
	return func(o *declOptions) {
		o.contentType = ct
	}
}

// WithExample attaches a single example.
func WithExample(v any) Option {
	return func(o *declOptions) {
		o.example = v
	}
}

// WithExamples attaches named examples.
func WithExamples(examples map[string]*Example) Option {
	return func(o *declOptions) {
		o.examples = examples
	}
}

// WithLinks attaches response links to an output.
func WithLinks(links map[string]*Link) Option {
	return func(o *declOptions) {
		o.links = links
	}
}

func collect(opts []Option) declOptions {
	var o declOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Input declares an input schema read from location: one of json, query,
// headers, cookies, form, files, form+files or path. Body locations (json,
// form, files, form+files) declare the request body; a handler may have
// at most one.
func Input(s any, location string, opts ...Option) Metadata {
	loc, err := schema.ParseLocation(location)
	if err != nil {
		return Metadata{err: configError("input", "unsupported input location", err)}
	}

	if !loc.IsBody() {
		return Metadata{inputs: []inputDecl{{schema: s, location: loc}}}
	}

	o := collect(opts)
	ct := o.contentType
	if ct == "" {
		ct = loc.ContentType()
	}
	return Metadata{body: &bodyDecl{
		schema:      s,
		location:    loc,
		contentType: ct,
		description: o.description,
		example:     o.example,
		examples:    o.examples,
	}}
}

// Body declares a JSON request body.
func Body(s any, opts ...Option) Metadata {
	return Input(s, string(schema.LocationJSON), opts...)
}

// Output declares the primary response.
func Output(s any, opts ...Option) Metadata {
	o := collect(opts)
	if o.status == 0 {
		o.status = 200
	}
	return Metadata{output: &outputDecl{
		schema:      s,
		status:      o.status,
		description: o.description,
		contentType: o.contentType,
		example:     o.example,
		examples:    o.examples,
		links:       o.links,
	}}
}

// Auth declares the authentication object and the roles it requires.
func Auth(s auth.Scheme, roles ...string) Metadata {
	return Metadata{auth: s, roles: roles}
}

// Summary sets the operation summary, overriding the derived one.
func Summary(text string) Metadata {
	return Metadata{summary: text}
}

// Description sets the operation description.
func Description(text string) Metadata {
	return Metadata{description: text}
}

// DocText declares the handler documentation text. Its first line is the
// default summary and the remaining lines the default description.
func DocText(text string) Metadata {
	return Metadata{docText: text}
}

// Tags replaces the tags derived from the scope.
func Tags(tags ...string) Metadata {
	return Metadata{tags: tags}
}

// Deprecated marks the operation as deprecated.
func Deprecated() Metadata {
	return Metadata{deprecated: true}
}

// Hide excludes the operation from the document.
func Hide() Metadata {
	return Metadata{hide: true}
}

// OperationID sets the operation id. Repeated ids in one document get a
// numeric suffix.
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object
func OperationID(id string) Metadata {
	return Metadata{operationID: id}
}

// Responses declares extra responses as status -> description.
func Responses(responses map[int]string) Metadata {
	codes := make([]int, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	m := Metadata{}
	for _, code := range codes {
		m.responses = append(m.responses, extraResponse{status: code, description: responses[code]})
	}
	return m
}

// ResponseCodes declares extra responses described by their status text.
func ResponseCodes(codes ...int) Metadata {
	m := Metadata{}
	for _, code := range codes {
		m.responses = append(m.responses, extraResponse{status: code, fromList: true})
	}
	return m
}

// Security overrides the security requirements derived from auth. With no
// arguments the operation is documented as public.
func Security(reqs ...SecurityRequirement) Metadata {
	if reqs == nil {
		reqs = []SecurityRequirement{}
	}
	return Metadata{security: reqs, hasSecurity: true}
}

// Hidden reports whether the operation is excluded from the document.
func (m Metadata) Hidden() bool {
	return m.hide
}

// Err returns the first error recorded while declaring the metadata.
func (m Metadata) Err() error {
	return m.err
}

// AuthScheme returns the declared authentication object and roles.
func (m Metadata) AuthScheme() (auth.Scheme, []string) {
	return m.auth, m.roles
}

// Merge combines fragments in order. Documentation fields keep the first
// value declared, inputs and extra responses accumulate, and declaring a
// second body or output is a ConfigurationError.
func Merge(ms ...Metadata) (Metadata, error) {
	var out Metadata
	for _, m := range ms {
		merged, err := out.merge(m)
		if err != nil {
			return Metadata{}, err
		}
		out = merged
	}
	return out, out.err
}

func (m Metadata) merge(o Metadata) (Metadata, error) {
	if m.err == nil && o.err != nil {
		m.err = o.err
	}

	switch {
	case m.body != nil && o.body != nil:
		return Metadata{}, configError("input", "handler declares more than one body schema", nil)
	case o.body != nil:
		m.body = o.body
	}

	switch {
	case m.output != nil && o.output != nil:
		return Metadata{}, configError("output", "handler declares more than one output schema", nil)
	case o.output != nil:
		m.output = o.output
	}

	m.inputs = append(slices.Clip(m.inputs), o.inputs...)

	if m.auth == nil && o.auth != nil {
		m.auth = o.auth
		m.roles = o.roles
	}

	m.summary = first(m.summary, o.summary)
	m.description = first(m.description, o.description)
	m.docText = first(m.docText, o.docText)
	m.operationID = first(m.operationID, o.operationID)

	if m.tags == nil {
		m.tags = o.tags
	}
	m.deprecated = m.deprecated || o.deprecated
	m.hide = m.hide || o.hide

	for _, r := range o.responses {
		if !slices.ContainsFunc(m.responses, func(e extraResponse) bool { return e.status == r.status }) {
			m.responses = append(slices.Clip(m.responses), r)
		}
	}

	if !m.hasSecurity && o.hasSecurity {
		m.security = o.security
		m.hasSecurity = true
	}
	return m, nil
}

func first(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
