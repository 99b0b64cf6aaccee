// Package openapi synthesizes an OpenAPI v3.1.0 document from the metadata
// attached to registered HTTP handlers.
//
// A RouteTable supplies the routes, their scopes and the Metadata declared
// for each handler and method. A Synthesizer walks the table, resolves
// declared schemas into component schemas, derives security schemes from
// authentication objects and assembles paths and responses.
//
// See: https://spec.openapis.org/oas/v3.1.0
// See: https://json-schema.org/draft/2020-12/json-schema-core
//
// # Metadata
//
// Metadata values are immutable fragments combined with Merge:
//
//	meta, err := openapi.Merge(
//	    openapi.Input(PetQuery{}, "query"),
//	    openapi.Output(schema.Many(Pet{})),
//	    openapi.DocText("List pets\nReturns every pet in the store."),
//	    openapi.Responses(map[int]string{http.StatusTooManyRequests: "Slow down"}),
//	)
//
// Documentation fields keep the first value declared. Non-body inputs and
// extra responses accumulate. A second body or a second output is a
// ConfigurationError.
//
// # Schemas
//
// Schema values are resolved through the schema package: struct values
// and types, models embedding schema.BaseModel, schema.Fields mappings,
// inline *schema.Schema fragments and schema.Empty. Typed schemas become
// component schemas named after their type:
//
//	PetSchema{}                   -> #/components/schemas/Pet
//	schema.Partial(PetSchema{})   -> #/components/schemas/PetUpdate
//	[]Pet{} or schema.Many(Pet{}) -> array of #/components/schemas/Pet
//
// Distinct objects with the same display name get numeric suffixes:
// Pet, Pet1, Pet2.
//
// # Default responses
//
// Unless disabled in Config each operation gets:
//
//   - 200 with an empty schema when no output is declared
//   - the validation error response when any input is declared
//   - the auth error response when the route or its scope requires auth
//   - 404 when the path has parameters
//
// Automatic responses never replace a declared one.
//
// # Security
//
// Authentication objects from the auth package are named in discovery
// order (shorter paths first, scope auth before route auth): BasicAuth,
// BearerAuth and ApiKeyAuth, then BasicAuth_2, BasicAuth_3 for further
// distinct objects of the same kind. Config.SecuritySchemes override
// derived schemes of the same name.
//
// # Serving
//
// Mount registers the spec endpoint and the docs UI on a mux router:
//
//	s, err := openapi.New(app, cfg, openapi.WithLogger(logger))
//	s.Mount(router)
//
// The document is cached after the first build. Document(true) rebuilds
// it and Invalidate drops the cached copy.
package openapi
