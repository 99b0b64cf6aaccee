package mux

import (
	"errors"
	"net/http"
	"slices"
	"strings"
)

// Route stores information to match a request.
type Route struct {
	router  *Router
	handler http.Handler
	methods []string
	path    *routeRegexp
	err     error
}

// Match matches this route against the request. A path match with a
// method mismatch sets match.MatchErr to ErrMethodMismatch.
func (r *Route) Match(req *http.Request, match *RouteMatch) bool {
	if r.err != nil || r.path == nil {
		return false
	}
	if !r.path.Match(req.URL.Path) {
		return false
	}

	if sub, ok := r.handler.(*Router); ok {
		return sub.Match(req, match)
	}

	if len(r.methods) > 0 && !slices.Contains(r.methods, req.Method) {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	match.Route = r
	match.Handler = r.handler
	match.Vars = r.path.vars(req.URL.Path)
	return true
}

// Handler sets a handler for the route.
func (r *Route) Handler(handler http.Handler) *Route {
	if r.err == nil {
		r.handler = handler
	}
	return r
}

// HandlerFunc sets a handler function for the route.
func (r *Route) HandlerFunc(f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handler(http.HandlerFunc(f))
}

// GetHandler returns the handler for the route, if any.
func (r *Route) GetHandler() http.Handler {
	return r.handler
}

// Path adds a path matcher to the route per RFC 3986 Section 3.3.
// Inside a subrouter the template is appended to the parent prefix.
func (r *Route) Path(tpl string) *Route {
	return r.setPath(tpl, false)
}

// PathPrefix adds a path prefix matcher to the route.
func (r *Route) PathPrefix(tpl string) *Route {
	return r.setPath(tpl, true)
}

func (r *Route) setPath(tpl string, prefix bool) *Route {
	if r.err != nil {
		return r
	}
	if r.router != nil && r.router.prefix != "" {
		tpl = strings.TrimRight(r.router.prefix, "/") + tpl
	}

	rr, err := newRouteRegexp(tpl, prefix)
	if err != nil {
		r.err = err
		return r
	}
	r.path = rr
	return r
}

// Methods adds a method matcher to the route. Methods are matched against
// the request method token defined in RFC 9110 Section 9.
// Calling Methods again replaces the previous list.
func (r *Route) Methods(methods ...string) *Route {
	upper := make([]string, len(methods))
	for i, m := range methods {
		upper[i] = strings.ToUpper(m)
	}
	r.methods = upper
	return r
}

// Subrouter creates a router for the route. Routes added to it match
// below the route's path prefix.
func (r *Route) Subrouter() *Router {
	router := NewRouter()
	if r.path != nil {
		router.prefix = r.path.template
	}
	r.handler = router
	return router
}

// GetPathTemplate returns the template for the route path, if defined.
func (r *Route) GetPathTemplate() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.path == nil {
		return "", errors.New("mux: route doesn't have a path")
	}
	return r.path.template, nil
}

// GetMethods returns the methods the route matches against.
func (r *Route) GetMethods() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.methods) == 0 {
		return nil, errors.New("mux: route doesn't have methods")
	}
	return slices.Clone(r.methods), nil
}

// GetVarNames returns the variable names for the route.
func (r *Route) GetVarNames() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.path == nil {
		return nil, nil
	}
	return slices.Clone(r.path.varsN), nil
}

// GetError returns any error that was set on the route.
func (r *Route) GetError() error {
	return r.err
}
