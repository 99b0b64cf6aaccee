package mux

import (
	"context"
	"errors"
	"net/http"
)

// routeContextKey is an unexported type for the single context key.
type routeContextKey struct{}

// routeContext holds the matched route and extracted variables.
type routeContext struct {
	route *Route
	vars  map[string]string
}

// Vars returns the route variables for the current request, if any.
func Vars(r *http.Request) map[string]string {
	if rc, ok := r.Context().Value(routeContextKey{}).(*routeContext); ok {
		return rc.vars
	}
	return nil
}

// VarGet returns the value of a single route variable by name and a boolean
// indicating whether the variable exists.
func VarGet(r *http.Request, name string) (string, bool) {
	val, ok := Vars(r)[name]
	return val, ok
}

// CurrentRoute returns the matched route for the current request, if any.
// This only works when called inside the handler of the matched route
// because the matched route is stored in the request context.
func CurrentRoute(r *http.Request) *Route {
	if rc, ok := r.Context().Value(routeContextKey{}).(*routeContext); ok {
		return rc.route
	}
	return nil
}

// SetURLVars sets the URL variables for the given request, returning the
// modified request. This is intended for testing route handlers.
func SetURLVars(r *http.Request, vars map[string]string) *http.Request {
	return setRouteContext(r, CurrentRoute(r), vars)
}

func setRouteContext(r *http.Request, route *Route, vars map[string]string) *http.Request {
	ctx := context.WithValue(r.Context(), routeContextKey{}, &routeContext{route: route, vars: vars})
	return r.WithContext(ctx)
}

// RouteMatch stores information about a matched route.
type RouteMatch struct {
	// Route is the matched route, if any.
	Route *Route

	// Handler is the handler to use for the matched route.
	Handler http.Handler

	// Vars contains the extracted path variables from the matched route.
	Vars map[string]string

	// MatchErr is set to ErrMethodMismatch when the request method
	// does not match but the path does.
	MatchErr error
}

// MiddlewareFunc is a function which receives an http.Handler and returns
// another http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Middleware allows MiddlewareFunc to be applied to a handler.
func (mw MiddlewareFunc) Middleware(handler http.Handler) http.Handler {
	return mw(handler)
}

// WalkFunc is the type of the function called for each route visited by Walk.
// At every invocation, it is given the current route and router, as well as
// a list of ancestor routes that led to the current route.
type WalkFunc func(route *Route, router *Router, ancestors []*Route) error

// ErrMethodMismatch is returned when the method in the request does not match
// the method defined against the route.
var ErrMethodMismatch = errors.New("method is not allowed")

// ErrNotFound is returned when no route match is found.
var ErrNotFound = errors.New("no matching route was found")

// SkipRouter is used as a return value from WalkFunc to indicate that the
// router that walk is about to descend into should be skipped.
var SkipRouter = errors.New("skip this router") //nolint:revive,staticcheck // matches filepath.SkipDir naming
