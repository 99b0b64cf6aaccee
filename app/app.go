package app

import (
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/mux"
	"github.com/vitalvas/oasgen/openapi"
)

// App registers HTTP handlers together with their OpenAPI metadata and
// serves them, plus the generated document, through a mux router.
//
//	a, err := app.New(cfg, app.WithLogger(logger))
//	pets := a.Scope("pets", app.Prefix("/pets"))
//	err = pets.Get("/<int:id>", getPet, openapi.Output(Pet{}))
//	http.ListenAndServe(":8080", a.Handler())
//
// Routes must be registered before the handler starts serving.
type App struct {
	router *mux.Router
	spec   *openapi.Synthesizer
	logger *zap.Logger
	verify auth.Verifier

	mu     sync.RWMutex
	scopes []*openapi.Scope
	regs   map[*mux.Route]*registration
	byKey  map[routeKey]*registration
}

type routeKey struct {
	method  string
	pattern string
}

// registration is one handler registered for one method and pattern. It
// is the handler the router dispatches to and the identity the
// synthesizer passes back to Metadata.
type registration struct {
	fn     http.HandlerFunc
	method string
	scope  *Scope
	meta   openapi.Metadata

	chain atomic.Pointer[http.Handler]
}

func (r *registration) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	(*r.chain.Load()).ServeHTTP(w, req)
}

func (r *registration) setChain(h http.Handler) {
	r.chain.Store(&h)
}

func sameFunc(a, b http.HandlerFunc) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	logger    *zap.Logger
	verify    auth.Verifier
	synthOpts []openapi.SynthesizerOption
}

// WithLogger sets the logger used by the app and its synthesizer.
func WithLogger(logger *zap.Logger) Option {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithVerifier sets the credential verifier used to enforce scope and
// route authentication. Without one every protected request is rejected.
func WithVerifier(v auth.Verifier) Option {
	return func(o *appOptions) {
		o.verify = v
	}
}

// WithSynthesizerOptions passes options through to openapi.New.
func WithSynthesizerOptions(opts ...openapi.SynthesizerOption) Option {
	return func(o *appOptions) {
		o.synthOpts = append(o.synthOpts, opts...)
	}
}

func denyAll(*http.Request, auth.Scheme, auth.Credentials) ([]string, bool) {
	return nil, false
}

// New creates an App. A nil cfg uses openapi.DefaultConfig.
func New(cfg *openapi.Config, opts ...Option) (*App, error) {
	o := appOptions{logger: zap.NewNop(), verify: denyAll}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		router: mux.NewRouter(),
		logger: o.logger,
		verify: o.verify,
		regs:   make(map[*mux.Route]*registration),
		byKey:  make(map[routeKey]*registration),
	}

	synthOpts := append([]openapi.SynthesizerOption{openapi.WithLogger(o.logger)}, o.synthOpts...)
	spec, err := openapi.New(a, cfg, synthOpts...)
	if err != nil {
		return nil, err
	}
	a.spec = spec

	a.router.Use(RequestID, Recovery(o.logger))
	spec.Mount(a.router)
	return a, nil
}

// Handler returns the router serving registered routes, the document and
// the docs page.
func (a *App) Handler() http.Handler {
	return a.router
}

// Router returns the underlying router, for routes kept out of the
// document such as /metrics.
func (a *App) Router() *mux.Router {
	return a.router
}

// Use appends middleware applied to every matched route.
func (a *App) Use(mws ...mux.MiddlewareFunc) {
	a.router.Use(mws...)
}

// Synthesizer returns the synthesizer reading from the app.
func (a *App) Synthesizer() *openapi.Synthesizer {
	return a.spec
}

// Scope creates a top-level scope.
func (a *App) Scope(name string, opts ...ScopeOption) *Scope {
	return a.newScope(nil, name, opts)
}

// Handle registers h for method and pattern. Metadata fragments are
// merged. Registering the same handler for a method and pattern again
// merges the new fragments after the existing ones.
func (a *App) Handle(method, pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return a.handle(nil, method, pattern, h, metas)
}

// Get registers h for GET requests on pattern.
func (a *App) Get(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return a.Handle(http.MethodGet, pattern, h, metas...)
}

// Post registers h for POST requests on pattern.
func (a *App) Post(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return a.Handle(http.MethodPost, pattern, h, metas...)
}

// Put registers h for PUT requests on pattern.
func (a *App) Put(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return a.Handle(http.MethodPut, pattern, h, metas...)
}

// Patch registers h for PATCH requests on pattern.
func (a *App) Patch(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return a.Handle(http.MethodPatch, pattern, h, metas...)
}

// Delete registers h for DELETE requests on pattern.
func (a *App) Delete(pattern string, h http.HandlerFunc, metas ...openapi.Metadata) error {
	return a.Handle(http.MethodDelete, pattern, h, metas...)
}

func (a *App) handle(sc *Scope, method, pattern string, h http.HandlerFunc, metas []openapi.Metadata) error {
	if h == nil {
		return fmt.Errorf("register %s %s: nil handler", method, pattern)
	}
	method = strings.ToUpper(method)

	var prefix string
	if sc != nil {
		prefix = sc.prefix
	}
	full := joinPath(prefix, pattern)
	key := routeKey{method: method, pattern: full}

	a.mu.Lock()
	defer a.mu.Unlock()

	if reg, ok := a.byKey[key]; ok && sameFunc(reg.fn, h) {
		meta, err := openapi.Merge(append([]openapi.Metadata{reg.meta}, metas...)...)
		if err != nil {
			return fmt.Errorf("register %s %s: %w", method, full, err)
		}
		reg.meta = meta
		reg.setChain(a.protect(reg.scope, meta, reg.fn))

		a.spec.Invalidate()
		a.logger.Debug("route metadata merged", zap.String("method", method), zap.String("pattern", full))
		return nil
	}

	meta, err := openapi.Merge(metas...)
	if err != nil {
		return fmt.Errorf("register %s %s: %w", method, full, err)
	}

	reg := &registration{fn: h, method: method, scope: sc, meta: meta}
	reg.setChain(a.protect(sc, meta, h))

	route := a.router.Handle(full, reg).Methods(method)
	if err := route.GetError(); err != nil {
		return fmt.Errorf("register %s %s: %w", method, full, err)
	}

	a.regs[route] = reg
	if _, ok := a.byKey[key]; !ok {
		a.byKey[key] = reg
	}

	a.spec.Invalidate()
	a.logger.Debug("route registered", zap.String("method", method), zap.String("pattern", full))
	return nil
}

// protect wraps h with the authentication the scope chain and the route
// require, outermost scope first.
func (a *App) protect(sc *Scope, meta openapi.Metadata, h http.Handler) http.Handler {
	var mws []func(http.Handler) http.Handler
	for s := sc; s != nil; s = s.parent {
		if s.scope.Auth != nil {
			mws = append(mws, auth.Middleware(s.scope.Auth, a.verify, s.scope.Roles...))
		}
	}
	slices.Reverse(mws)

	if scheme, roles := meta.AuthScheme(); scheme != nil {
		mws = append(mws, auth.Middleware(scheme, a.verify, roles...))
	}

	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Routes implements openapi.RouteTable. Routes are read from the router
// in registration order; routes added directly on Router are skipped.
func (a *App) Routes() []openapi.Route {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var routes []openapi.Route
	_ = a.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		reg, ok := a.regs[route]
		if !ok {
			return nil
		}
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}

		r := openapi.Route{
			Pattern: tpl,
			Methods: []string{reg.method},
			Handler: reg,
			Func:    reg.fn,
		}
		if reg.scope != nil {
			r.Scope = reg.scope.scope
		}
		routes = append(routes, r)
		return nil
	})
	return routes
}

// Scopes implements openapi.RouteTable.
func (a *App) Scopes() []*openapi.Scope {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.scopes)
}

// Metadata implements openapi.RouteTable. handler is the value Routes
// reported for the route.
func (a *App) Metadata(handler any, method string) (openapi.Metadata, bool) {
	reg, ok := handler.(*registration)
	if !ok || reg.method != strings.ToUpper(method) {
		return openapi.Metadata{}, false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return reg.meta, true
}
