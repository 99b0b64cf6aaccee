package mux

import (
	"net/http"
	"strings"
	"sync"
)

var (
	defaultNotFoundHandler         = http.NotFoundHandler()
	defaultMethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
)

// Router registers routes to be matched and dispatches a handler.
//
// It implements the http.Handler interface, so it can be registered to serve
// requests:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/pets/<int:id>", handler).Methods(http.MethodGet)
//	http.ListenAndServe(":8080", r)
type Router struct {
	// NotFoundHandler is called when no route matches.
	// If nil, http.NotFoundHandler() is used.
	NotFoundHandler http.Handler

	// MethodNotAllowedHandler is called when a route matches the path
	// but not the method. If nil, a default 405 handler is used.
	// The Allow header is always set before this handler is invoked.
	MethodNotAllowedHandler http.Handler

	prefix      string
	routes      []*Route
	middlewares []MiddlewareFunc

	// handlerCache caches the middleware-wrapped handler per route
	// to avoid re-wrapping on every request.
	handlerCache sync.Map // map[*Route]http.Handler
}

// NewRouter returns a new router instance.
func NewRouter() *Router {
	return &Router{}
}

// ServeHTTP dispatches the handler registered in the matched route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Remove dot segments per RFC 3986 Section 5.2.4.
	if cleaned := cleanPath(req.URL.Path); cleaned != req.URL.Path {
		u := *req.URL
		u.Path = cleaned
		u.RawPath = ""
		req = req.Clone(req.Context())
		req.URL = &u
	}

	var (
		match   RouteMatch
		handler http.Handler
	)

	switch {
	case r.Match(req, &match):
		handler = match.Handler
		if handler == nil {
			handler = defaultNotFoundHandler
		}
		req = setRouteContext(req, match.Route, match.Vars)

	case match.MatchErr == ErrMethodMismatch:
		w.Header().Set("Allow", strings.Join(allowedMethods(r, req), ", "))
		handler = r.MethodNotAllowedHandler
		if handler == nil {
			handler = defaultMethodNotAllowedHandler
		}

	default:
		handler = r.NotFoundHandler
		if handler == nil {
			handler = defaultNotFoundHandler
		}
	}

	handler.ServeHTTP(w, req)
}

// Match attempts to match the given request against the router's routes.
// A method mismatch on any route is reported as ErrMethodMismatch when no
// route matches fully, so the caller can answer 405 instead of 404.
func (r *Router) Match(req *http.Request, match *RouteMatch) bool {
	var methodMismatch bool

	for _, route := range r.routes {
		if route.Match(req, match) {
			if match.Handler != nil && len(r.middlewares) > 0 {
				match.Handler = r.wrapped(match.Route, match.Handler)
			}
			return true
		}
		if match.MatchErr == ErrMethodMismatch {
			methodMismatch = true
		}
	}

	if methodMismatch {
		match.MatchErr = ErrMethodMismatch
		return false
	}
	match.MatchErr = ErrNotFound
	return false
}

func (r *Router) wrapped(route *Route, h http.Handler) http.Handler {
	if cached, ok := r.handlerCache.Load(route); ok {
		return cached.(http.Handler)
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i].Middleware(h)
	}
	actual, _ := r.handlerCache.LoadOrStore(route, h)
	return actual.(http.Handler)
}

// NewRoute creates an empty route for configuration.
func (r *Router) NewRoute() *Route {
	route := &Route{router: r}
	r.routes = append(r.routes, route)
	return route
}

// Handle registers a new route with a matcher for the URL path and handler.
func (r *Router) Handle(path string, handler http.Handler) *Route {
	return r.NewRoute().Path(path).Handler(handler)
}

// HandleFunc registers a new route with a matcher for the URL path and
// handler function.
func (r *Router) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.NewRoute().Path(path).HandlerFunc(f)
}

// PathPrefix registers a new route with a matcher for the URL path prefix.
func (r *Router) PathPrefix(tpl string) *Route {
	return r.NewRoute().PathPrefix(tpl)
}

// Walk walks the router and all its subrouters, calling walkFn for each route
// in the tree.
func (r *Router) Walk(walkFn WalkFunc) error {
	return r.walk(walkFn, nil)
}

func (r *Router) walk(walkFn WalkFunc, ancestors []*Route) error {
	for _, route := range r.routes {
		err := walkFn(route, r, ancestors)
		if err == SkipRouter {
			continue
		}
		if err != nil {
			return err
		}
		if sr, ok := route.handler.(*Router); ok {
			if err := sr.walk(walkFn, append(ancestors, route)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Use appends a MiddlewareFunc to the chain. Middleware is applied to
// matched handlers only.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.middlewares = append(r.middlewares, mwf...)
}
