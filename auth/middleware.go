package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"slices"
)

// Verifier checks credentials extracted by scheme and returns the roles
// granted to the caller.
type Verifier func(r *http.Request, scheme Scheme, c Credentials) (roles []string, ok bool)

// Middleware enforces s on every request. Missing or rejected credentials
// produce 401 with the scheme challenge. When roles are given, the caller
// must hold at least one of them or the request is rejected with 403.
// A *Multi is verified scheme by scheme and the granted roles are combined.
func Middleware(s Scheme, verify Verifier, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted, ok := check(r, s, verify)
			if !ok {
				unauthorized(w, s.Challenge())
				return
			}
			if len(roles) > 0 && !hasAny(granted, roles) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func check(r *http.Request, s Scheme, verify Verifier) ([]string, bool) {
	if m, ok := s.(*Multi); ok {
		if len(m.Schemes) == 0 {
			return nil, false
		}
		var granted []string
		for _, inner := range m.Schemes {
			roles, ok := check(r, inner, verify)
			if !ok {
				return nil, false
			}
			granted = append(granted, roles...)
		}
		return granted, true
	}

	c, ok := s.Credentials(r)
	if !ok {
		return nil, false
	}
	return verify(r, s, c)
}

func hasAny(granted, wanted []string) bool {
	for _, role := range wanted {
		if slices.Contains(granted, role) {
			return true
		}
	}
	return false
}

// Users returns a Verifier for Basic credentials backed by a static
// username -> password map. Every user is granted the roles given.
func Users(users map[string]string, roles ...string) Verifier {
	return func(_ *http.Request, _ Scheme, c Credentials) ([]string, bool) {
		expected, exists := users[c.Username]
		// compare even for unknown users so timing does not reveal them
		match := constantTimeEqual(c.Password, expected)
		if !exists || !match {
			return nil, false
		}
		return roles, true
	}
}

// Tokens returns a Verifier for token and API key credentials backed by a
// static token -> roles map.
func Tokens(tokens map[string][]string) Verifier {
	return func(_ *http.Request, _ Scheme, c Credentials) ([]string, bool) {
		for token, roles := range tokens {
			if constantTimeEqual(c.Token, token) {
				return roles, true
			}
		}
		return nil, false
	}
}

// constantTimeEqual compares SHA-256 digests so neither content nor
// length leaks through timing.
func constantTimeEqual(a, b string) bool {
	aHash := sha256.Sum256([]byte(a))
	bHash := sha256.Sum256([]byte(b))

	return subtle.ConstantTimeCompare(aHash[:], bHash[:]) == 1
}

func unauthorized(w http.ResponseWriter, challenge string) {
	if challenge != "" {
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.WriteHeader(http.StatusUnauthorized)
}
