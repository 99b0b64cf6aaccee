package openapi

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/vitalvas/oasgen/auth"
)

// Base names given to derived security schemes.
const (
	basicAuthName  = "BasicAuth"
	bearerAuthName = "BearerAuth"
	apiKeyAuthName = "ApiKeyAuth"
)

// securityResolver names the authentication objects of one synthesis pass
// in discovery order and derives their security schemes.
//
// See: https://spec.openapis.org/oas/v3.1.0#security-scheme-object
type securityResolver struct {
	names   map[auth.Scheme]string
	schemes map[string]*SecurityScheme
	counts  map[string]int
}

func newSecurityResolver() *securityResolver {
	return &securityResolver{
		names:   make(map[auth.Scheme]string),
		schemes: make(map[string]*SecurityScheme),
		counts:  make(map[string]int),
	}
}

// requirement returns the security requirement for s. Every scheme of a
// composite object is required together; roles become scopes.
func (r *securityResolver) requirement(s auth.Scheme, roles []string) (SecurityRequirement, error) {
	leaves, err := flatten(s)
	if err != nil {
		return nil, err
	}

	req := make(SecurityRequirement, len(leaves))
	for _, leaf := range leaves {
		name, err := r.name(leaf)
		if err != nil {
			return nil, err
		}
		scopes := make([]string, len(roles))
		copy(scopes, roles)
		req[name] = scopes
	}
	return req, nil
}

// discover assigns names to the schemes of s without building a requirement.
func (r *securityResolver) discover(s auth.Scheme) error {
	_, err := r.requirement(s, nil)
	return err
}

func flatten(s auth.Scheme) ([]auth.Scheme, error) {
	if err := checkScheme(s); err != nil {
		return nil, err
	}
	m, ok := s.(*auth.Multi)
	if !ok {
		return []auth.Scheme{s}, nil
	}

	var out []auth.Scheme
	for _, sub := range m.Schemes {
		leaves, err := flatten(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, leaves...)
	}
	return out, nil
}

// checkScheme rejects objects that cannot be keyed by identity or are of
// an unrecognized kind.
func checkScheme(s auth.Scheme) error {
	if s == nil || reflect.TypeOf(s).Kind() != reflect.Pointer {
		return &UnknownAuthSchemeError{Scheme: s}
	}
	switch s.(type) {
	case *auth.Basic, *auth.Token, *auth.APIKey, *auth.Multi:
		return nil
	}
	return &UnknownAuthSchemeError{Scheme: s}
}

func (r *securityResolver) name(s auth.Scheme) (string, error) {
	if name, ok := r.names[s]; ok {
		return name, nil
	}

	base, scheme, err := deriveScheme(s)
	if err != nil {
		return "", err
	}

	r.counts[base]++
	name := base
	if n := r.counts[base]; n > 1 {
		name = base + "_" + strconv.Itoa(n)
	}
	r.names[s] = name
	r.schemes[name] = scheme
	return name, nil
}

func deriveScheme(s auth.Scheme) (string, *SecurityScheme, error) {
	switch x := s.(type) {
	case *auth.Basic:
		return basicAuthName, &SecurityScheme{
			Type:        "http",
			Scheme:      "basic",
			Description: x.Description,
		}, nil

	case *auth.Token:
		if x.Header == "" && strings.EqualFold(x.SchemeName(), "Bearer") {
			return bearerAuthName, &SecurityScheme{
				Type:        "http",
				Scheme:      "bearer",
				Description: x.Description,
			}, nil
		}
		header := x.Header
		if header == "" {
			header = "Authorization"
		}
		return apiKeyAuthName, &SecurityScheme{
			Type:        "apiKey",
			Name:        header,
			In:          auth.InHeader,
			Description: x.Description,
		}, nil

	case *auth.APIKey:
		return apiKeyAuthName, &SecurityScheme{
			Type:        "apiKey",
			Name:        x.Name,
			In:          x.Location(),
			Description: x.Description,
		}, nil
	}
	return "", nil, &UnknownAuthSchemeError{Scheme: s}
}

// Schemes returns the derived security schemes.
func (r *securityResolver) Schemes() map[string]*SecurityScheme {
	return r.schemes
}
