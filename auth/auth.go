// Package auth defines the authentication objects that routes and scopes
// declare, and a middleware that enforces them at request time.
package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Scheme is an authentication object. The OpenAPI security resolver
// classifies schemes by concrete type: *Basic, *Token, *APIKey and *Multi.
type Scheme interface {
	// Credentials extracts credentials from r. ok is false when the
	// request carries none.
	Credentials(r *http.Request) (c Credentials, ok bool)

	// Challenge is the WWW-Authenticate value sent on 401 responses.
	Challenge() string
}

// Credentials holds whatever a scheme extracted from a request.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Basic is HTTP Basic authentication.
//
// Spec reference: https://www.rfc-editor.org/rfc/rfc7617
type Basic struct {
	// Realm defaults to "Restricted".
	Realm       string
	Description string
}

func (b *Basic) Credentials(r *http.Request) (Credentials, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return Credentials{}, false
	}
	return Credentials{Username: username, Password: password}, true
}

func (b *Basic) Challenge() string {
	realm := b.Realm
	if realm == "" {
		realm = "Restricted"
	}
	return fmt.Sprintf("Basic realm=%q", realm)
}

// Token is token authentication carried in the Authorization header as
// "<Scheme> <token>", or as the raw value of a custom Header.
type Token struct {
	// Scheme defaults to "Bearer".
	Scheme      string
	Header      string
	Description string
}

// SchemeName returns the configured scheme or "Bearer".
func (t *Token) SchemeName() string {
	if t.Scheme == "" {
		return "Bearer"
	}
	return t.Scheme
}

func (t *Token) Credentials(r *http.Request) (Credentials, bool) {
	if t.Header != "" {
		v := r.Header.Get(t.Header)
		return Credentials{Token: v}, v != ""
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, t.SchemeName()) || token == "" {
		return Credentials{}, false
	}
	return Credentials{Token: strings.TrimSpace(token)}, true
}

func (t *Token) Challenge() string {
	if t.Header != "" {
		return ""
	}
	return t.SchemeName()
}

// API key locations.
const (
	InHeader = "header"
	InCookie = "cookie"
	InQuery  = "query"
)

// APIKey is a key read from a header, cookie or query parameter.
type APIKey struct {
	Name string
	// In defaults to InHeader.
	In          string
	Description string
}

// Location returns In or its default.
func (k *APIKey) Location() string {
	if k.In == "" {
		return InHeader
	}
	return k.In
}

func (k *APIKey) Credentials(r *http.Request) (Credentials, bool) {
	var v string
	switch k.Location() {
	case InCookie:
		if c, err := r.Cookie(k.Name); err == nil {
			v = c.Value
		}
	case InQuery:
		v = r.URL.Query().Get(k.Name)
	default:
		v = r.Header.Get(k.Name)
	}
	return Credentials{Token: v}, v != ""
}

func (k *APIKey) Challenge() string {
	return ""
}

// Multi requires every one of its schemes to succeed.
type Multi struct {
	Schemes []Scheme
}

// All returns a Multi combining the given schemes.
func All(schemes ...Scheme) *Multi {
	return &Multi{Schemes: schemes}
}

// Credentials reports the credentials of the first scheme and succeeds
// only when every scheme found credentials.
func (m *Multi) Credentials(r *http.Request) (Credentials, bool) {
	var first Credentials
	for i, s := range m.Schemes {
		c, ok := s.Credentials(r)
		if !ok {
			return Credentials{}, false
		}
		if i == 0 {
			first = c
		}
	}
	return first, len(m.Schemes) > 0
}

func (m *Multi) Challenge() string {
	for _, s := range m.Schemes {
		if c := s.Challenge(); c != "" {
			return c
		}
	}
	return ""
}
