package openapi

import (
	"maps"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/schema"
)

// Component names of the shared error schemas.
const (
	validationErrorName = "ValidationError"
	httpErrorName       = "HTTPError"
)

// operationBuilder turns one route, method and metadata into an Operation.
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object
type operationBuilder struct {
	cfg      *Config
	registry *Registry
	security *securityResolver
}

// build returns nil for hidden operations.
func (b *operationBuilder) build(route Route, method string, meta Metadata, pathParams []*Parameter) (*Operation, error) {
	if meta.err != nil {
		return nil, meta.err
	}
	if meta.hide {
		return nil, nil
	}

	op := &Operation{
		Tags:        b.tags(route, meta),
		OperationID: b.operationID(route, method, meta),
		Deprecated:  meta.deprecated,
	}
	op.Summary, op.Description = b.texts(route, meta)

	params, err := b.parameters(meta, pathParams)
	if err != nil {
		return nil, err
	}
	op.Parameters = params

	if meta.body != nil {
		body, err := b.requestBody(meta.body)
		if err != nil {
			return nil, err
		}
		op.RequestBody = body
	}

	scheme, roles := effectiveAuth(route, meta)
	// an explicit empty security list opts the operation out of auth
	hasAuth := scheme != nil && !(meta.hasSecurity && len(meta.security) == 0)

	responses, err := b.responses(meta, hasAuth, len(pathParams) > 0)
	if err != nil {
		return nil, err
	}
	op.Responses = responses

	switch {
	case meta.hasSecurity:
		op.Security = meta.security
	case scheme != nil:
		req, err := b.security.requirement(scheme, roles)
		if err != nil {
			return nil, err
		}
		op.Security = []SecurityRequirement{req}
	}

	return op, nil
}

// effectiveAuth returns the route auth, falling back to the scope chain.
func effectiveAuth(route Route, meta Metadata) (auth.Scheme, []string) {
	if meta.auth != nil {
		return meta.auth, meta.roles
	}
	if route.Scope != nil {
		return route.Scope.effectiveAuth()
	}
	return nil, nil
}

func (b *operationBuilder) tags(route Route, meta Metadata) []string {
	if meta.tags != nil {
		return meta.tags
	}
	if b.cfg.AutoTags && route.Scope != nil {
		return []string{route.Scope.TagName()}
	}
	return nil
}

func (b *operationBuilder) texts(route Route, meta Metadata) (string, string) {
	summary, description := meta.summary, meta.description
	docSummary, docDescription := splitDocText(meta.docText)

	if summary == "" && b.cfg.AutoOperationSummary {
		summary = docSummary
		if summary == "" {
			summary = humanize(handlerName(route.Handler))
		}
	}
	if description == "" && b.cfg.AutoOperationDescription {
		description = docDescription
	}
	return summary, description
}

// splitDocText returns the first line and the remaining lines.
func splitDocText(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	first, rest, _ := strings.Cut(text, "\n")

	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(first), strings.TrimSpace(strings.Join(lines, "\n"))
}

func (b *operationBuilder) operationID(route Route, method string, meta Metadata) string {
	if meta.operationID != "" {
		return meta.operationID
	}
	if !b.cfg.AutoOperationID {
		return ""
	}
	return strings.ToLower(method) + "_" + routeIdentifier(route)
}

// routeIdentifier names a route for operation ids: the explicit route name,
// else the scope chain and handler name joined by "_", else the path.
func routeIdentifier(route Route) string {
	if route.Name != "" {
		return route.Name
	}

	name := handlerName(route.namingFunc())
	if name == "" {
		return pathIdentifier(route.Pattern)
	}

	var parts []string
	if route.Scope != nil {
		for _, sc := range route.Scope.chain() {
			if sc.Name != "" {
				parts = append(parts, sc.Name)
			}
		}
	}
	return strings.Join(append(parts, name), "_")
}

// pathIdentifier turns "/pets/<int:id>" into "pets_id".
func pathIdentifier(pattern string) string {
	path, _ := parsePath(pattern)
	ident := strings.Join(strings.FieldsFunc(path, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), "_")
	if ident == "" {
		return "root"
	}
	return ident
}

// uniqueIDs hands out operation ids, suffixing repeats with _2, _3 and so on.
type uniqueIDs map[string]bool

func (u uniqueIDs) claim(id string) string {
	if id == "" {
		return ""
	}
	candidate := id
	for n := 2; u[candidate]; n++ {
		candidate = id + "_" + strconv.Itoa(n)
	}
	u[candidate] = true
	return candidate
}

// parameters expands each non-body input into one parameter per property,
// after the path parameters. An explicit path input replaces the derived
// parameter of the same name in place.
//
// See: https://spec.openapis.org/oas/v3.1.0#parameter-object
func (b *operationBuilder) parameters(meta Metadata, pathParams []*Parameter) ([]*Parameter, error) {
	params := make([]*Parameter, 0, len(pathParams))
	for _, p := range pathParams {
		cp := *p
		params = append(params, &cp)
	}

	for _, in := range meta.inputs {
		a, err := b.registry.resolver.Resolve(in.schema)
		if err != nil {
			return nil, err
		}
		if a.Kind() == schema.KindEmpty {
			continue
		}
		s, err := a.Item().JSONSchema(b.registry)
		if err != nil {
			return nil, err
		}

		where := in.location.ParameterIn()
		for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
			prop := s.Properties[name]
			p := &Parameter{
				Name:        name,
				In:          where,
				Description: prop.Description,
				Required:    where == "path" || s.IsRequired(name),
				Deprecated:  prop.Deprecated,
				Schema:      prop,
			}

			idx := slices.IndexFunc(params, func(x *Parameter) bool {
				return x.Name == p.Name && x.In == p.In
			})
			if idx >= 0 {
				params[idx] = p
				continue
			}
			params = append(params, p)
		}
	}

	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}

// See: https://spec.openapis.org/oas/v3.1.0#request-body-object
func (b *operationBuilder) requestBody(body *bodyDecl) (*RequestBody, error) {
	s, err := b.registry.Schema(body.schema)
	if err != nil {
		return nil, err
	}
	return &RequestBody{
		Description: body.description,
		Required:    true,
		Content: map[string]*MediaType{
			body.contentType: {
				Schema:   s,
				Example:  body.example,
				Examples: body.examples,
			},
		},
	}, nil
}

// See: https://spec.openapis.org/oas/v3.1.0#responses-object
func (b *operationBuilder) responses(meta Metadata, hasAuth, hasPathParams bool) (map[string]*Response, error) {
	cfg := b.cfg
	responses := make(map[string]*Response)

	switch {
	case meta.output != nil:
		resp, err := b.outputResponse(meta.output)
		if err != nil {
			return nil, err
		}
		responses[strconv.Itoa(meta.output.status)] = resp

	case cfg.Auto200Response:
		responses["200"] = &Response{
			Description: cfg.SuccessDescription,
			Content:     jsonContent(&Schema{}),
		}
	}

	hasInput := meta.body != nil || len(meta.inputs) > 0
	if hasInput && cfg.AutoValidationErrorResponse {
		if err := b.errorResponse(responses, cfg.ValidationErrorStatus, cfg.ValidationErrorDescription,
			validationErrorName, cfg.ValidationErrorSchema); err != nil {
			return nil, err
		}
	}
	if hasAuth && cfg.AutoAuthErrorResponse {
		if err := b.errorResponse(responses, cfg.AuthErrorStatus, cfg.AuthErrorDescription,
			httpErrorName, cfg.HTTPErrorSchema); err != nil {
			return nil, err
		}
	}
	if hasPathParams && cfg.Auto404Response {
		if err := b.errorResponse(responses, http.StatusNotFound, cfg.NotFoundDescription,
			httpErrorName, cfg.HTTPErrorSchema); err != nil {
			return nil, err
		}
	}

	for _, extra := range meta.responses {
		code := strconv.Itoa(extra.status)
		description := extra.description
		if description == "" {
			description = http.StatusText(extra.status)
		}

		if existing, ok := responses[code]; ok {
			explicitOutput := meta.output != nil && meta.output.status == extra.status && meta.output.description != ""
			if !extra.fromList && extra.description != "" && !explicitOutput {
				existing.Description = description
			}
			continue
		}

		if extra.status >= 400 {
			if err := b.errorResponse(responses, extra.status, description, httpErrorName, cfg.HTTPErrorSchema); err != nil {
				return nil, err
			}
			continue
		}
		responses[code] = &Response{Description: description}
	}

	return responses, nil
}

// errorResponse adds an error response unless status is already present.
func (b *operationBuilder) errorResponse(responses map[string]*Response, status int, description, component string, v any) error {
	code := strconv.Itoa(status)
	if _, ok := responses[code]; ok {
		return nil
	}

	resp := &Response{Description: description}
	if v != nil {
		ref, err := b.registry.RegisterAs(component, v)
		if err != nil {
			return err
		}
		resp.Content = jsonContent(ref)
	}
	responses[code] = resp
	return nil
}

func (b *operationBuilder) outputResponse(out *outputDecl) (*Response, error) {
	description := out.description
	if description == "" {
		description = b.cfg.SuccessDescription
	}
	resp := &Response{Description: description, Links: out.links}

	if out.status == http.StatusNoContent {
		return resp, nil
	}

	s, err := b.outputSchema(out.schema)
	if err != nil {
		return nil, err
	}

	ct := out.contentType
	if ct == "" {
		ct = "application/json"
	}
	resp.Content = map[string]*MediaType{
		ct: {
			Schema:   s,
			Example:  out.example,
			Examples: out.examples,
		},
	}
	return resp, nil
}

type envelopeKey struct {
	inner any
	many  bool
}

// outputSchema resolves an output schema, nesting it into the configured
// envelope when one is set.
func (b *operationBuilder) outputSchema(v any) (*Schema, error) {
	a, err := b.registry.resolver.Resolve(v)
	if err != nil {
		return nil, err
	}
	data, err := b.registry.schemaFor(a)
	if err != nil {
		return nil, err
	}
	if b.cfg.BaseResponseSchema == nil || a.Kind() == schema.KindEmpty {
		return data, nil
	}

	env, err := b.registry.resolver.Resolve(b.cfg.BaseResponseSchema)
	if err != nil {
		return nil, err
	}
	wrapped, err := env.Item().JSONSchema(b.registry)
	if err != nil {
		return nil, err
	}

	key := b.cfg.BaseResponseDataKey
	if _, ok := wrapped.Properties[key]; !ok {
		return nil, &EnvelopeSchemaError{Key: key}
	}
	wrapped.Properties[key] = data

	item := a.Item()
	name := item.Name()
	if name == "" {
		name = "Generated"
	}
	if a.Many() {
		name += "List"
	}
	name += "Response"

	k := registryKey{
		key:     envelopeKey{inner: item.Key(), many: a.Many()},
		partial: item.Partial(),
		name:    name,
	}
	return schema.RefTo(b.registry.fragment(k, name, wrapped)), nil
}

func jsonContent(s *Schema) map[string]*MediaType {
	return map[string]*MediaType{
		"application/json": {Schema: s},
	}
}

// handlerName returns the bare function name of a handler, or "" for
// anonymous functions and non-function handlers.
func handlerName(h any) string {
	if h == nil {
		return ""
	}
	v := reflect.ValueOf(h)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}

	name := fn.Name()
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, "-fm")

	// closures are named func1, func1.2 and so on
	if strings.TrimLeft(strings.TrimPrefix(name, "func"), "0123456789") == "" {
		return ""
	}
	return name
}

// humanize turns "listPets", "list_pets" or "list-pets" into "List Pets".
func humanize(name string) string {
	var words []string
	var word []rune
	flush := func() {
		if len(word) > 0 {
			words = append(words, strings.ToLower(string(word)))
			word = word[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0:
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && len(word) > 0) {
				flush()
			}
		}
		word = append(word, r)
	}
	flush()

	return cases.Title(language.English).String(strings.Join(words, " "))
}

// tagName derives a tag from a scope name.
func tagName(scope string) string {
	return humanize(scope)
}
