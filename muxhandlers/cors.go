package muxhandlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/vitalvas/oasgen/mux"
)

// ErrWildcardCredentials is returned when AllowedOrigins contains "*" and
// AllowCredentials is true. Use AllowOriginFunc for dynamic origin checks
// with credentials.
var ErrWildcardCredentials = errors.New("cors: wildcard origin \"*\" cannot be used with allow_credentials")

// CORSConfig configures CORSMiddleware. It lets documentation UIs hosted
// on another origin fetch the spec endpoint and call the API.
//
// Spec references:
//   - CORS protocol: https://fetch.spec.whatwg.org/#http-cors-protocol
//   - Web Origin:    https://www.rfc-editor.org/rfc/rfc6454
type CORSConfig struct {
	// AllowedOrigins lists exact origins, "*", or subdomain patterns such
	// as "https://*.example.com". An empty list disables the middleware.
	AllowedOrigins []string `toml:"allowed_origins"`

	// AllowOriginFunc is consulted when no AllowedOrigins entry matches.
	AllowOriginFunc func(origin string) bool `toml:"-"`

	// AllowedMethods overrides the methods advertised to the browser. When
	// empty the methods registered for the matched path are used.
	AllowedMethods []string `toml:"allowed_methods"`

	// AllowedHeaders lists request headers the client may send. When empty
	// or "*" the preflight Access-Control-Request-Headers value is reflected.
	AllowedHeaders []string `toml:"allowed_headers"`

	ExposeHeaders    []string `toml:"expose_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`

	// MaxAge is how long, in seconds, a preflight result may be cached.
	// Zero omits the header and negative values send "0".
	MaxAge int `toml:"max_age"`
}

// Enabled reports whether any origin can pass the policy.
func (c CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0 || c.AllowOriginFunc != nil
}

// Validate checks the origin patterns and the credentials combination.
func (c CORSConfig) Validate() error {
	_, err := newCORSPolicy(c)
	return err
}

// originPattern is a subdomain pattern split at its "*".
type originPattern struct {
	prefix, suffix string
}

func (p originPattern) match(origin string) bool {
	return len(origin) >= len(p.prefix)+len(p.suffix) &&
		strings.HasPrefix(origin, p.prefix) &&
		strings.HasSuffix(origin, p.suffix)
}

type corsPolicy struct {
	cfg      CORSConfig
	wildcard bool
	exact    []string
	patterns []originPattern
}

func newCORSPolicy(cfg CORSConfig) (*corsPolicy, error) {
	p := &corsPolicy{cfg: cfg}

	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.wildcard = true
			continue
		}

		lower := strings.ToLower(o)
		prefix, suffix, wild := strings.Cut(lower, "*")
		if !wild {
			p.exact = append(p.exact, lower)
			continue
		}
		if strings.Contains(suffix, "*") {
			return nil, fmt.Errorf("cors: origin pattern %q has more than one wildcard", o)
		}
		p.patterns = append(p.patterns, originPattern{prefix: prefix, suffix: suffix})
	}

	if p.wildcard && cfg.AllowCredentials {
		return nil, ErrWildcardCredentials
	}
	return p, nil
}

func (p *corsPolicy) allowed(origin string) bool {
	if p.wildcard {
		return true
	}
	lower := strings.ToLower(origin)
	if slices.Contains(p.exact, lower) {
		return true
	}
	for _, pat := range p.patterns {
		if pat.match(lower) {
			return true
		}
	}
	return p.cfg.AllowOriginFunc != nil && p.cfg.AllowOriginFunc(origin)
}

// setOrigin writes the origin headers of an allowed request.
func (p *corsPolicy) setOrigin(h http.Header, origin string) {
	if p.wildcard {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	if p.cfg.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

func (p *corsPolicy) setMethods(h http.Header, router *mux.Router, req *http.Request) {
	methods := p.cfg.AllowedMethods
	if len(methods) == 0 {
		methods = routeMethods(router, req)
	}
	if len(methods) > 0 {
		h.Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
	}
}

// preflight answers an OPTIONS request carrying
// Access-Control-Request-Method.
func (p *corsPolicy) preflight(w http.ResponseWriter, router *mux.Router, req *http.Request) {
	h := w.Header()
	h.Del("Allow")
	p.setOrigin(h, req.Header.Get("Origin"))
	p.setMethods(h, router, req)

	requested := req.Header.Get("Access-Control-Request-Headers")
	switch {
	case len(p.cfg.AllowedHeaders) > 0 && !slices.Contains(p.cfg.AllowedHeaders, "*"):
		h.Set("Access-Control-Allow-Headers", strings.Join(p.cfg.AllowedHeaders, ","))
	case requested != "":
		h.Set("Access-Control-Allow-Headers", requested)
	}

	switch {
	case p.cfg.MaxAge > 0:
		h.Set("Access-Control-Max-Age", strconv.Itoa(p.cfg.MaxAge))
	case p.cfg.MaxAge < 0:
		h.Set("Access-Control-Max-Age", "0")
	}

	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
	w.WriteHeader(http.StatusNoContent)
}

func isPreflight(req *http.Request) bool {
	return req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != ""
}

// CORSMiddleware returns a middleware implementing the CORS protocol for
// routes on r.
//
// Router middleware only runs for matched routes, so preflight requests
// for paths without an OPTIONS route are answered from r's
// MethodNotAllowedHandler, which this function replaces.
func CORSMiddleware(r *mux.Router, cfg CORSConfig) (mux.MiddlewareFunc, error) {
	p, err := newCORSPolicy(cfg)
	if err != nil {
		return nil, err
	}

	prev := r.MethodNotAllowedHandler
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if isPreflight(req) && p.allowed(req.Header.Get("Origin")) {
			p.preflight(w, r, req)
			return
		}
		if prev != nil {
			prev.ServeHTTP(w, req)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			origin := req.Header.Get("Origin")
			if origin == "" {
				if !p.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, req)
				return
			}
			if !p.allowed(origin) {
				next.ServeHTTP(w, req)
				return
			}

			if isPreflight(req) {
				p.preflight(w, r, req)
				return
			}

			h := w.Header()
			p.setOrigin(h, origin)
			p.setMethods(h, r, req)
			if len(p.cfg.ExposeHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(p.cfg.ExposeHeaders, ","))
			}
			next.ServeHTTP(w, req)
		})
	}, nil
}

// routeMethods returns the methods registered for routes matching the
// request path, in registration order.
func routeMethods(router *mux.Router, req *http.Request) []string {
	var out []string

	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, method := range methods {
			if slices.Contains(out, method) {
				continue
			}
			test := req.Clone(req.Context())
			test.Method = method
			if route.Match(test, &mux.RouteMatch{}) {
				out = append(out, method)
			}
		}
		return nil
	})
	return out
}
