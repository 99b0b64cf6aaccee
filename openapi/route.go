package openapi

import (
	"github.com/vitalvas/oasgen/auth"
)

// Route describes one registered URL rule.
type Route struct {
	// Pattern is the path template, with typed placeholders such as
	// "/pets/<int:id>" or "/pets/{id}".
	Pattern string
	Methods []string

	// Handler identifies the handler. It is passed back to RouteTable.Metadata.
	Handler any

	// Func is the handler function used for naming. When nil Handler is
	// used if it is a function.
	Func any

	// Name identifies the route in generated operation ids. When empty the
	// scope chain and handler function name are used.
	Name string

	// Scope is the group the route was registered in, or nil.
	Scope *Scope
}

// namingFunc returns the function the route is named after.
func (r Route) namingFunc() any {
	if r.Func != nil {
		return r.Func
	}
	return r.Handler
}

// Scope is a named group of routes. Scopes nest through Parent.
type Scope struct {
	Name   string
	Parent *Scope

	// Tag overrides the tag generated for the scope.
	Tag *Tag

	// Disabled removes the scope's routes from the document.
	Disabled bool

	// Auth applies to every route in the scope.
	Auth  auth.Scheme
	Roles []string
}

// Enabled reports whether the scope and all its parents take part in the
// document.
func (s *Scope) Enabled() bool {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.Disabled {
			return false
		}
	}
	return true
}

// TagName returns the tag operations in the scope are grouped under.
func (s *Scope) TagName() string {
	if s.Tag != nil && s.Tag.Name != "" {
		return s.Tag.Name
	}
	return tagName(s.Name)
}

// chain returns the scope and its parents, outermost first.
func (s *Scope) chain() []*Scope {
	var out []*Scope
	for sc := s; sc != nil; sc = sc.Parent {
		out = append([]*Scope{sc}, out...)
	}
	return out
}

// effectiveAuth returns the innermost scope auth in the chain.
func (s *Scope) effectiveAuth() (auth.Scheme, []string) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.Auth != nil {
			return sc.Auth, sc.Roles
		}
	}
	return nil, nil
}

// RouteTable is the router collaborator the synthesizer reads from. The
// synthesizer never mutates the values it returns.
type RouteTable interface {
	// Routes lists routes in registration order.
	Routes() []Route

	// Scopes lists scopes in registration order.
	Scopes() []*Scope

	// Metadata returns the metadata attached to handler for method.
	Metadata(handler any, method string) (Metadata, bool)
}
