package openapi

import (
	"net/http"

	"github.com/vitalvas/oasgen/schema"
)

// Schema is the JSON Schema fragment type used throughout the document.
type Schema = schema.Schema

// Document represents the root of a synthesized OpenAPI document.
//
// See: https://spec.openapis.org/oas/v3.1.0#openapi-object
type Document struct {
	OpenAPI      string               `json:"openapi"`
	Info         Info                 `json:"info"`
	Servers      []Server             `json:"servers,omitempty"`
	Tags         []Tag                `json:"tags,omitempty"`
	Paths        map[string]*PathItem `json:"paths"`
	Components   *Components          `json:"components,omitempty"`
	ExternalDocs *ExternalDocs        `json:"externalDocs,omitempty"`
}

// Info provides metadata about the API.
//
// See: https://spec.openapis.org/oas/v3.1.0#info-object
type Info struct {
	Title          string   `json:"title" toml:"title"`
	Summary        string   `json:"summary,omitempty" toml:"summary"`
	Description    string   `json:"description,omitempty" toml:"description"`
	TermsOfService string   `json:"termsOfService,omitempty" toml:"terms_of_service"`
	Contact        *Contact `json:"contact,omitempty" toml:"contact"`
	License        *License `json:"license,omitempty" toml:"license"`
	Version        string   `json:"version" toml:"version"`
}

// Contact represents contact information for the API.
type Contact struct {
	Name  string `json:"name,omitempty" toml:"name"`
	URL   string `json:"url,omitempty" toml:"url"`
	Email string `json:"email,omitempty" toml:"email"`
}

// License represents license information for the API.
type License struct {
	Name       string `json:"name" toml:"name"`
	Identifier string `json:"identifier,omitempty" toml:"identifier"`
	URL        string `json:"url,omitempty" toml:"url"`
}

// Server represents a server.
//
// See: https://spec.openapis.org/oas/v3.1.0#server-object
type Server struct {
	URL         string `json:"url" toml:"url"`
	Description string `json:"description,omitempty" toml:"description"`
}

// PathItem describes the operations available on a single path. Only the
// methods the synthesizer emits are modelled, in their canonical order.
//
// See: https://spec.openapis.org/oas/v3.1.0#path-item-object
type PathItem struct {
	Get    *Operation `json:"get,omitempty"`
	Post   *Operation `json:"post,omitempty"`
	Put    *Operation `json:"put,omitempty"`
	Patch  *Operation `json:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty"`
}

// Operation describes a single API operation on a path.
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object
type Operation struct {
	Tags        []string              `json:"tags,omitempty"`
	Summary     string                `json:"summary,omitempty"`
	Description string                `json:"description,omitempty"`
	OperationID string                `json:"operationId,omitempty"`
	Parameters  []*Parameter          `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]*Response  `json:"responses,omitempty"`
	Deprecated  bool                  `json:"deprecated,omitempty"`
	Security    []SecurityRequirement `json:"security,omitempty"`
}

// Parameter describes a single operation parameter. Name and In together
// identify a parameter within an operation.
//
// See: https://spec.openapis.org/oas/v3.1.0#parameter-object
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Deprecated  bool    `json:"deprecated,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
	Example     any     `json:"example,omitempty"`
}

// RequestBody describes a single request body.
//
// See: https://spec.openapis.org/oas/v3.1.0#request-body-object
type RequestBody struct {
	Description string                `json:"description,omitempty"`
	Required    bool                  `json:"required,omitempty"`
	Content     map[string]*MediaType `json:"content"`
}

// Response describes a single response from an API operation.
//
// See: https://spec.openapis.org/oas/v3.1.0#response-object
type Response struct {
	Description string                `json:"description"`
	Content     map[string]*MediaType `json:"content,omitempty"`
	Links       map[string]*Link      `json:"links,omitempty"`
}

// MediaType pairs a schema with optional examples.
//
// See: https://spec.openapis.org/oas/v3.1.0#media-type-object
type MediaType struct {
	Schema   *Schema             `json:"schema,omitempty"`
	Example  any                 `json:"example,omitempty"`
	Examples map[string]*Example `json:"examples,omitempty"`
}

// Example represents a named example value.
//
// See: https://spec.openapis.org/oas/v3.1.0#example-object
type Example struct {
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Value       any    `json:"value,omitempty"`
}

// Link represents a design-time link for a response.
//
// See: https://spec.openapis.org/oas/v3.1.0#link-object
type Link struct {
	OperationRef string         `json:"operationRef,omitempty"`
	OperationID  string         `json:"operationId,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Description  string         `json:"description,omitempty"`
}

// Components holds the reusable schemas and security schemes.
//
// See: https://spec.openapis.org/oas/v3.1.0#components-object
type Components struct {
	Schemas         map[string]*Schema         `json:"schemas,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
}

// Tag adds metadata to a single tag used by operations.
//
// See: https://spec.openapis.org/oas/v3.1.0#tag-object
type Tag struct {
	Name         string        `json:"name" toml:"name"`
	Description  string        `json:"description,omitempty" toml:"description"`
	ExternalDocs *ExternalDocs `json:"externalDocs,omitempty" toml:"external_docs"`
}

// SecurityRequirement maps scheme names to required scopes (roles).
//
// See: https://spec.openapis.org/oas/v3.1.0#security-requirement-object
type SecurityRequirement map[string][]string

// ExternalDocs references external documentation.
type ExternalDocs struct {
	Description string `json:"description,omitempty" toml:"description"`
	URL         string `json:"url" toml:"url"`
}

// SecurityScheme defines a security scheme used by operations.
//
// See: https://spec.openapis.org/oas/v3.1.0#security-scheme-object
type SecurityScheme struct {
	Type         string `json:"type" toml:"type"`
	Description  string `json:"description,omitempty" toml:"description"`
	Name         string `json:"name,omitempty" toml:"name"`
	In           string `json:"in,omitempty" toml:"in"`
	Scheme       string `json:"scheme,omitempty" toml:"scheme"`
	BearerFormat string `json:"bearerFormat,omitempty" toml:"bearer_format"`
}

func (p *PathItem) operation(method string) *Operation {
	switch method {
	case http.MethodGet:
		return p.Get
	case http.MethodPost:
		return p.Post
	case http.MethodPut:
		return p.Put
	case http.MethodPatch:
		return p.Patch
	case http.MethodDelete:
		return p.Delete
	}
	return nil
}

func (p *PathItem) setOperation(method string, op *Operation) {
	switch method {
	case http.MethodGet:
		p.Get = op
	case http.MethodPost:
		p.Post = op
	case http.MethodPut:
		p.Put = op
	case http.MethodPatch:
		p.Patch = op
	case http.MethodDelete:
		p.Delete = op
	}
}

// Operations returns the operations of the path item in canonical method order.
func (p *PathItem) Operations() []*Operation {
	var ops []*Operation
	for _, m := range methodOrder {
		if op := p.operation(m); op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// methodOrder is the canonical order methods are emitted in.
var methodOrder = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
