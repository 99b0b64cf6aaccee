package app

import (
	"net/http"

	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/openapi"
)

// Scope groups routes under a shared prefix, tag and authentication.
// Scopes nest: a child inherits its parent's prefix and authentication.
type Scope struct {
	app    *App
	parent *Scope
	scope  *openapi.Scope
	prefix string
}

// ScopeOption configures a Scope.
type ScopeOption func(*scopeOptions)

type scopeOptions struct {
	prefix   string
	tag      *openapi.Tag
	disabled bool
	auth     auth.Scheme
	roles    []string
}

// Prefix sets the path prefix of the scope's routes.
func Prefix(p string) ScopeOption {
	return func(o *scopeOptions) {
		o.prefix = p
	}
}

// Tag sets the tag operations in the scope are grouped under.
func Tag(tag openapi.Tag) ScopeOption {
	return func(o *scopeOptions) {
		o.tag = &tag
	}
}

// Disabled keeps the scope's routes served but out of the document.
func Disabled() ScopeOption {
	return func(o *scopeOptions) {
		o.disabled = true
	}
}

// Auth requires s, and optionally one of roles, on every route in the scope.
func Auth(s auth.Scheme, roles ...string) ScopeOption {
	return func(o *scopeOptions) {
		o.auth = s
		o.roles = roles
	}
}

func (a *App) newScope(parent *Scope, name string, opts []ScopeOption) *Scope {
	var o scopeOptions
	for _, opt := range opts {
		opt(&o)
	}

	sc := &Scope{
		app:    a,
		parent: parent,
		scope: &openapi.Scope{
			Name:     name,
			Tag:      o.tag,
			Disabled: o.disabled,
			Auth:     o.auth,
			Roles:    o.roles,
		},
		prefix: o.prefix,
	}
	if parent != nil {
		sc.scope.Parent = parent.scope
		sc.prefix = joinPath(parent.prefix, o.prefix)
	}

	a.mu.Lock()
	a.scopes = append(a.scopes, sc.scope)
	a.mu.Unlock()

	a.spec.Invalidate()
	return sc
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.scope.Name
}

// Scope creates a nested scope.
func (s *Scope) Scope(name string, opts ...ScopeOption) *Scope {
	return s.app.newScope(s, name, opts)
}

// Handle registers h for method and pattern relative to the scope prefix.
func (s *Scope) Handle(method, pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return s.app.handle(s, method, pattern, h, metas)
}

// Get registers h for GET requests on pattern relative to the scope prefix.
func (s *Scope) Get(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return s.Handle(http.MethodGet, pattern, h, metas...)
}

// Post registers h for POST requests on pattern relative to the scope prefix.
func (s *Scope) Post(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return s.Handle(http.MethodPost, pattern, h, metas...)
}

// Put registers h for PUT requests on pattern relative to the scope prefix.
func (s *Scope) Put(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return s.Handle(http.MethodPut, pattern, h, metas...)
}

// Patch registers h for PATCH requests on pattern relative to the scope prefix.
func (s *Scope) Patch(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return s.Handle(http.MethodPatch, pattern, h, metas...)
}

// Delete registers h for DELETE requests on pattern relative to the scope prefix.
func (s *Scope) Delete(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return s.Handle(http.MethodDelete, pattern, h, metas...)
}
