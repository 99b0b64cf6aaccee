package openapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/schema"
)

// testTable is a minimal RouteTable. Handlers are identified by strings.
type testTable struct {
	routes []Route
	scopes []*Scope
	metas  map[string]Metadata
}

func newTestTable() *testTable {
	return &testTable{metas: make(map[string]Metadata)}
}

func (tt *testTable) Routes() []Route {
	return tt.routes
}

func (tt *testTable) Scopes() []*Scope {
	return tt.scopes
}

func (tt *testTable) Metadata(handler any, method string) (Metadata, bool) {
	id, _ := handler.(string)
	m, ok := tt.metas[id+" "+method]
	return m, ok
}

func (tt *testTable) scope(sc *Scope) *Scope {
	tt.scopes = append(tt.scopes, sc)
	return sc
}

// add registers one route. Fragments are merged; a merge error fails the test.
func (tt *testTable) add(t *testing.T, pattern, method string, scope *Scope, metas ...Metadata) {
	t.Helper()
	meta, err := Merge(metas...)
	require.NoError(t, err)
	tt.addRaw(pattern, method, scope, meta)
}

func (tt *testTable) addRaw(pattern, method string, scope *Scope, meta Metadata) {
	id := "h" + strconv.Itoa(len(tt.routes))
	tt.routes = append(tt.routes, Route{Pattern: pattern, Methods: []string{method}, Handler: id, Scope: scope})
	tt.metas[id+" "+method] = meta
}

func newTestSynthesizer(t *testing.T, tt *testTable, cfg *Config, opts ...SynthesizerOption) *Synthesizer {
	t.Helper()
	s, err := New(tt, cfg, opts...)
	require.NoError(t, err)
	return s
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

type Pet struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type PetSchema struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

func TestSynthesizerEndToEnd(t *testing.T) {
	t.Run("pet output becomes a component reference", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodGet, nil, Output(Pet{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		get := doc.Paths["/pets/{id}"].Get
		require.NotNil(t, get)
		assert.Equal(t, "#/components/schemas/Pet", get.Responses["200"].Content["application/json"].Schema.Ref)

		require.NotNil(t, doc.Components)
		assert.JSONEq(t,
			`{"type":"object","properties":{"id":{"type":"integer"},"name":{"type":"string"}}}`,
			toJSON(t, doc.Components.Schemas["Pet"]),
		)
	})

	t.Run("basic auth becomes a security scheme", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/secret", http.MethodGet, nil, Auth(&auth.Basic{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		require.NotNil(t, doc.Components)
		assert.JSONEq(t, `{"type":"http","scheme":"basic"}`, toJSON(t, doc.Components.SecuritySchemes["BasicAuth"]))
		assert.Equal(t, []SecurityRequirement{{"BasicAuth": {}}}, doc.Paths["/secret"].Get.Security)
		assert.JSONEq(t, `[{"BasicAuth":[]}]`, toJSON(t, doc.Paths["/secret"].Get.Security))
	})

	t.Run("document is valid openapi", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil, Output(schema.Many(PetSchema{})))
		tt.add(t, "/pets", http.MethodPost, nil, Body(PetSchema{}), Output(PetSchema{}, Status(http.StatusCreated)))
		tt.add(t, "/pets/<int:id>", http.MethodDelete, nil, Output(schema.Empty, Status(http.StatusNoContent)), Auth(&auth.Token{}))

		cfg := DefaultConfig()
		cfg.Version = "3.0.3"
		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.NoError(t, Validate(t.Context(), doc))
	})
}

func TestSynthesizerCache(t *testing.T) {
	tt := newTestTable()
	tt.add(t, "/pets", http.MethodGet, nil, Output(Pet{}))
	s := newTestSynthesizer(t, tt, nil)

	t.Run("cached document is returned unchanged", func(t *testing.T) {
		first, err := s.Document(false)
		require.NoError(t, err)
		second, err := s.Document(false)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, uint64(1), s.Generation())
	})

	t.Run("forced refresh rebuilds an equal document", func(t *testing.T) {
		cached, err := s.Document(false)
		require.NoError(t, err)
		fresh, err := s.Document(true)
		require.NoError(t, err)

		assert.NotSame(t, cached, fresh)
		assert.Equal(t, cached, fresh)
		assert.Equal(t, uint64(2), s.Generation())
	})

	t.Run("invalidate rebuilds on next call", func(t *testing.T) {
		before, err := s.Document(false)
		require.NoError(t, err)
		s.Invalidate()
		after, err := s.Document(false)
		require.NoError(t, err)
		assert.NotSame(t, before, after)
		assert.Equal(t, uint64(3), s.Generation())
	})

	t.Run("concurrent readers see complete documents", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func(force bool) {
				defer wg.Done()
				doc, err := s.Document(force)
				assert.NoError(t, err)
				assert.NotNil(t, doc.Paths["/pets"].Get)
			}(i%4 == 0)
		}
		wg.Wait()
	})
}

func TestSynthesizerSchemaDedup(t *testing.T) {
	t.Run("same object shares one name", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/a", http.MethodGet, nil, Output(Pet{}))
		tt.add(t, "/b", http.MethodGet, nil, Output(&Pet{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		assert.Equal(t, "#/components/schemas/Pet", doc.Paths["/a"].Get.Responses["200"].Content["application/json"].Schema.Ref)
		assert.Equal(t, "#/components/schemas/Pet", doc.Paths["/b"].Get.Responses["200"].Content["application/json"].Schema.Ref)
		assert.Len(t, doc.Components.Schemas, 1)
	})

	t.Run("distinct objects with one display name get suffixes", func(t *testing.T) {
		first := schema.Fields{"id": schema.Int()}
		second := schema.Fields{"name": schema.String()}

		tt := newTestTable()
		tt.add(t, "/a", http.MethodGet, nil, Output(first))
		tt.add(t, "/b", http.MethodGet, nil, Output(second))
		tt.add(t, "/c", http.MethodGet, nil, Output(first))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		ref := func(path string) string {
			return doc.Paths[path].Get.Responses["200"].Content["application/json"].Schema.Ref
		}
		assert.Equal(t, "#/components/schemas/Generated", ref("/a"))
		assert.Equal(t, "#/components/schemas/Generated1", ref("/b"))
		assert.Equal(t, "#/components/schemas/Generated", ref("/c"))
	})

	t.Run("partial and full schemas are distinct", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodPost, nil, Body(PetSchema{}))
		tt.add(t, "/pets/{id}", http.MethodPatch, nil, Body(schema.Partial(PetSchema{})))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		post := doc.Paths["/pets"].Post.RequestBody.Content["application/json"].Schema
		patch := doc.Paths["/pets/{id}"].Patch.RequestBody.Content["application/json"].Schema
		assert.Equal(t, "#/components/schemas/Pet", post.Ref)
		assert.Equal(t, "#/components/schemas/PetUpdate", patch.Ref)
		assert.Equal(t, []string{"id", "name"}, doc.Components.Schemas["Pet"].Required)
		assert.Empty(t, doc.Components.Schemas["PetUpdate"].Required)
	})

	t.Run("list output wraps a reference", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil, Output([]Pet{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		s := doc.Paths["/pets"].Get.Responses["200"].Content["application/json"].Schema
		assert.Equal(t, "array", s.Type.First())
		assert.Equal(t, "#/components/schemas/Pet", s.Items.Ref)
	})
}

func TestSynthesizerDefaultResponses(t *testing.T) {
	t.Run("bare handler gets one empty 200", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/ping", http.MethodGet, nil)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		responses := doc.Paths["/ping"].Get.Responses
		require.Len(t, responses, 1)
		assert.Equal(t, "Successful response", responses["200"].Description)
		assert.JSONEq(t, `{}`, toJSON(t, responses["200"].Content["application/json"].Schema))
		assert.Nil(t, doc.Components)
	})

	t.Run("route without metadata still appears", func(t *testing.T) {
		tt := newTestTable()
		tt.routes = append(tt.routes, Route{Pattern: "/raw", Methods: []string{"get"}, Handler: "raw"})

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		require.NotNil(t, doc.Paths["/raw"].Get)
		assert.Contains(t, doc.Paths["/raw"].Get.Responses, "200")
	})

	t.Run("body and path parameter add validation and not found", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodPut, nil, Body(PetSchema{}), Output(PetSchema{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		responses := doc.Paths["/pets/{id}"].Put.Responses
		assert.Len(t, responses, 3)
		assert.Equal(t, "#/components/schemas/ValidationError", responses["422"].Content["application/json"].Schema.Ref)
		assert.Equal(t, "Not found", responses["404"].Description)
		assert.Equal(t, "#/components/schemas/HTTPError", responses["404"].Content["application/json"].Schema.Ref)
		assert.Contains(t, doc.Components.Schemas, "ValidationError")
		assert.Contains(t, doc.Components.Schemas, "HTTPError")
	})

	t.Run("auth adds auth error", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/me", http.MethodGet, nil, Auth(&auth.Basic{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "Authentication error", doc.Paths["/me"].Get.Responses["401"].Description)
	})

	t.Run("policies can be disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auto200Response = false
		cfg.AutoValidationErrorResponse = false
		cfg.Auto404Response = false

		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodPut, nil, Body(PetSchema{}))

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Empty(t, doc.Paths["/pets/{id}"].Put.Responses)
	})

	t.Run("custom validation status", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ValidationErrorStatus = http.StatusBadRequest

		tt := newTestTable()
		tt.add(t, "/search", http.MethodGet, nil, Input(schema.Fields{"q": schema.String()}, "query"))

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Contains(t, doc.Paths["/search"].Get.Responses, "400")
		assert.NotContains(t, doc.Paths["/search"].Get.Responses, "422")
	})

	t.Run("automatic responses never replace declared ones", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodGet, nil, Output(Pet{}, Status(http.StatusNotFound), Describe("Gone")))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		resp := doc.Paths["/pets/{id}"].Get.Responses["404"]
		assert.Equal(t, "Gone", resp.Description)
		assert.Equal(t, "#/components/schemas/Pet", resp.Content["application/json"].Schema.Ref)
	})
}

func TestSynthesizerExtraResponses(t *testing.T) {
	t.Run("map form adds and overrides descriptions", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodGet, nil,
			Output(Pet{}),
			Responses(map[int]string{
				http.StatusNotFound:        "Pet not found",
				http.StatusTooManyRequests: "Slow down",
				http.StatusAccepted:        "Queued",
			}),
		)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		responses := doc.Paths["/pets/{id}"].Get.Responses
		assert.Equal(t, "Pet not found", responses["404"].Description)
		assert.Equal(t, "Slow down", responses["429"].Description)
		assert.Equal(t, "#/components/schemas/HTTPError", responses["429"].Content["application/json"].Schema.Ref)
		assert.Equal(t, "Queued", responses["202"].Description)
		assert.Nil(t, responses["202"].Content)
	})

	t.Run("list form keeps existing descriptions", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodGet, nil, Output(Pet{}), ResponseCodes(http.StatusNotFound, http.StatusConflict))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		responses := doc.Paths["/pets/{id}"].Get.Responses
		assert.Equal(t, "Not found", responses["404"].Description)
		assert.Equal(t, "Conflict", responses["409"].Description)
	})

	t.Run("explicit output description wins", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil,
			Output(Pet{}, Describe("The pet")),
			Responses(map[int]string{http.StatusOK: "Something else"}),
		)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "The pet", doc.Paths["/pets"].Get.Responses["200"].Description)
	})
}

func TestSynthesizerParameters(t *testing.T) {
	t.Run("path parameters in left to right order", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/{a}/{b}/baz", http.MethodGet, nil)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		params := doc.Paths["/{a}/{b}/baz"].Get.Parameters
		require.Len(t, params, 2)
		assert.Equal(t, "a", params[0].Name)
		assert.Equal(t, "b", params[1].Name)
	})

	t.Run("typed placeholders are normalized", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/<int:id>", http.MethodGet, nil)
		tt.add(t, "/pets/<id>", http.MethodDelete, nil)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		item := doc.Paths["/pets/{id}"]
		require.NotNil(t, item)
		require.NotNil(t, item.Get)
		require.NotNil(t, item.Delete)
		assert.Equal(t, "integer", item.Get.Parameters[0].Schema.Type.First())
		assert.Equal(t, "string", item.Delete.Parameters[0].Schema.Type.First())
	})

	t.Run("query input expands per property after path parameters", func(t *testing.T) {
		type Query struct {
			Limit  int    `json:"limit,omitempty" openapi:"description=Page size"`
			Cursor string `json:"cursor"`
		}

		tt := newTestTable()
		tt.add(t, "/owners/{owner}/pets", http.MethodGet, nil, Input(Query{}, "query"))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		params := doc.Paths["/owners/{owner}/pets"].Get.Parameters
		require.Len(t, params, 3)
		assert.Equal(t, "owner", params[0].Name)
		assert.Equal(t, "path", params[0].In)
		assert.Equal(t, "cursor", params[1].Name)
		assert.True(t, params[1].Required)
		assert.Equal(t, "limit", params[2].Name)
		assert.Equal(t, "query", params[2].In)
		assert.False(t, params[2].Required)
		assert.Equal(t, "Page size", params[2].Description)
	})

	t.Run("explicit path input replaces the derived parameter", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/{id}/{slot}", http.MethodGet, nil,
			Input(schema.Fields{"id": schema.UUID()}, "path"),
			Input(schema.Fields{"X-Trace": schema.String()}, "headers"),
		)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		params := doc.Paths["/pets/{id}/{slot}"].Get.Parameters
		require.Len(t, params, 3)
		assert.Equal(t, "id", params[0].Name)
		assert.Equal(t, "uuid", params[0].Schema.Format)
		assert.True(t, params[0].Required)
		assert.Equal(t, "slot", params[1].Name)
		assert.Equal(t, "header", params[2].In)
	})
}

func TestSynthesizerRequestBody(t *testing.T) {
	t.Run("content type follows location", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/upload", http.MethodPost, nil, Input(schema.Fields{"file": schema.String()}, "files"))
		tt.add(t, "/login", http.MethodPost, nil, Input(schema.Fields{"user": schema.String()}, "form"))
		tt.add(t, "/raw", http.MethodPost, nil, Body(Pet{}, ContentType("application/vnd.pet+json")))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		assert.Contains(t, doc.Paths["/upload"].Post.RequestBody.Content, "multipart/form-data")
		assert.Contains(t, doc.Paths["/login"].Post.RequestBody.Content, "application/x-www-form-urlencoded")
		assert.Contains(t, doc.Paths["/raw"].Post.RequestBody.Content, "application/vnd.pet+json")
		assert.True(t, doc.Paths["/raw"].Post.RequestBody.Required)
	})

	t.Run("inline schema is embedded", func(t *testing.T) {
		inline := &Schema{Type: schema.TypeOf("object"), Properties: map[string]*Schema{"q": {Type: schema.TypeOf("string")}}}

		tt := newTestTable()
		tt.add(t, "/search", http.MethodPost, nil, Body(inline))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		got := doc.Paths["/search"].Post.RequestBody.Content["application/json"].Schema
		assert.Empty(t, got.Ref)
		assert.Equal(t, inline, got)
		assert.NotSame(t, inline, got)
	})
}

func TestSynthesizerSecurity(t *testing.T) {
	t.Run("distinct objects of one kind get numbered names", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/a", http.MethodGet, nil, Auth(&auth.Basic{}))
		tt.add(t, "/bb", http.MethodGet, nil, Auth(&auth.Basic{}))
		tt.add(t, "/ccc", http.MethodGet, nil, Auth(&auth.Basic{}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		assert.Len(t, doc.Components.SecuritySchemes, 3)
		assert.Contains(t, doc.Components.SecuritySchemes, "BasicAuth")
		assert.Contains(t, doc.Components.SecuritySchemes, "BasicAuth_2")
		assert.Contains(t, doc.Components.SecuritySchemes, "BasicAuth_3")
		assert.Equal(t, []SecurityRequirement{{"BasicAuth_3": {}}}, doc.Paths["/ccc"].Get.Security)
	})

	t.Run("shorter paths are named first", func(t *testing.T) {
		long, short := &auth.Basic{}, &auth.Basic{}

		tt := newTestTable()
		tt.add(t, "/a/long/path", http.MethodGet, nil, Auth(long))
		tt.add(t, "/a", http.MethodGet, nil, Auth(short))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, []SecurityRequirement{{"BasicAuth": {}}}, doc.Paths["/a"].Get.Security)
		assert.Equal(t, []SecurityRequirement{{"BasicAuth_2": {}}}, doc.Paths["/a/long/path"].Get.Security)
	})

	t.Run("scope auth is inherited", func(t *testing.T) {
		token := &auth.Token{}

		tt := newTestTable()
		admin := tt.scope(&Scope{Name: "admin", Auth: token, Roles: []string{"admin"}})
		tt.add(t, "/admin/users", http.MethodGet, admin)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		op := doc.Paths["/admin/users"].Get
		assert.Equal(t, []SecurityRequirement{{"BearerAuth": {"admin"}}}, op.Security)
		assert.Contains(t, op.Responses, "401")
		assert.JSONEq(t, `{"type":"http","scheme":"bearer"}`, toJSON(t, doc.Components.SecuritySchemes["BearerAuth"]))
	})

	t.Run("scheme kinds", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/k", http.MethodGet, nil, Auth(&auth.APIKey{Name: "X-API-Key"}))
		tt.add(t, "/c", http.MethodGet, nil, Auth(&auth.APIKey{Name: "sid", In: auth.InCookie}))
		tt.add(t, "/t", http.MethodGet, nil, Auth(&auth.Token{Header: "X-Token"}))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		schemes := doc.Components.SecuritySchemes
		assert.JSONEq(t, `{"type":"apiKey","name":"X-API-Key","in":"header"}`, toJSON(t, schemes["ApiKeyAuth"]))
		assert.JSONEq(t, `{"type":"apiKey","name":"sid","in":"cookie"}`, toJSON(t, schemes["ApiKeyAuth_2"]))
		assert.JSONEq(t, `{"type":"apiKey","name":"X-Token","in":"header"}`, toJSON(t, schemes["ApiKeyAuth_3"]))
	})

	t.Run("composite auth requires every scheme", func(t *testing.T) {
		basic, key := &auth.Basic{}, &auth.APIKey{Name: "X-API-Key"}

		tt := newTestTable()
		tt.add(t, "/both", http.MethodGet, nil, Auth(auth.All(basic, key), "ops"))

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, []SecurityRequirement{{"BasicAuth": {"ops"}, "ApiKeyAuth": {"ops"}}}, doc.Paths["/both"].Get.Security)
	})

	t.Run("overrides win on name collision", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SecuritySchemes = map[string]*SecurityScheme{
			"BearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			"OAuth":      {Type: "http", Scheme: "bearer"},
		}

		tt := newTestTable()
		tt.add(t, "/me", http.MethodGet, nil, Auth(&auth.Token{}))

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "JWT", doc.Components.SecuritySchemes["BearerAuth"].BearerFormat)
		assert.Contains(t, doc.Components.SecuritySchemes, "OAuth")
	})

	t.Run("explicit security override", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/me", http.MethodGet, nil, Auth(&auth.Basic{}), Security(SecurityRequirement{"OAuth": {"read"}}))
		tt.add(t, "/public", http.MethodGet, nil, Auth(&auth.Basic{}), Security())

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, []SecurityRequirement{{"OAuth": {"read"}}}, doc.Paths["/me"].Get.Security)
		assert.Contains(t, doc.Paths["/me"].Get.Responses, "401")
		assert.Empty(t, doc.Paths["/public"].Get.Security)
	})

	t.Run("empty security drops the auth error response", func(t *testing.T) {
		tt := newTestTable()
		admin := tt.scope(&Scope{Name: "admin", Auth: &auth.Token{}})
		tt.add(t, "/admin/health", http.MethodGet, admin, Security())
		tt.add(t, "/admin/users", http.MethodGet, admin)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)

		public := doc.Paths["/admin/health"].Get
		assert.Empty(t, public.Security)
		assert.NotContains(t, public.Responses, "401")
		assert.Contains(t, doc.Paths["/admin/users"].Get.Responses, "401")
	})

	t.Run("unknown scheme fails synthesis", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/x", http.MethodGet, nil, Auth(customScheme{}))

		_, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownAuthScheme)

		var target *UnknownAuthSchemeError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, customScheme{}, target.Scheme)
	})
}

type customScheme struct{}

func (customScheme) Credentials(*http.Request) (auth.Credentials, bool) {
	return auth.Credentials{}, false
}

func (customScheme) Challenge() string {
	return ""
}

func TestSynthesizerHidden(t *testing.T) {
	t.Run("hidden method is omitted", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil)
		tt.add(t, "/pets", http.MethodPost, nil, Hide())

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.NotNil(t, doc.Paths["/pets"].Get)
		assert.Nil(t, doc.Paths["/pets"].Post)
	})

	t.Run("path with only hidden methods is absent", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/internal", http.MethodGet, nil, Hide())
		tt.add(t, "/internal", http.MethodPost, nil, Hide())

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.NotContains(t, doc.Paths, "/internal")
		assert.NotNil(t, doc.Paths)
	})

	t.Run("disabled scopes are skipped", func(t *testing.T) {
		tt := newTestTable()
		parent := tt.scope(&Scope{Name: "internal", Disabled: true})
		child := tt.scope(&Scope{Name: "debug", Parent: parent})
		tt.add(t, "/internal/debug", http.MethodGet, child)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Empty(t, doc.Paths)
		assert.Empty(t, doc.Tags)
	})
}

func TestSynthesizerDocumentFields(t *testing.T) {
	t.Run("info merges over base", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.InfoBase = &Info{Title: "Base", Version: "0.1.0", Contact: &Contact{Name: "ops"}}
		cfg.Info = Info{Version: "2.0.0"}
		cfg.AppDescription = "  Pet store API.  "

		doc, err := newTestSynthesizer(t, newTestTable(), cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "Base", doc.Info.Title)
		assert.Equal(t, "2.0.0", doc.Info.Version)
		assert.Equal(t, "ops", doc.Info.Contact.Name)
		assert.Equal(t, "Pet store API.", doc.Info.Description)
	})

	t.Run("defaults", func(t *testing.T) {
		doc, err := newTestSynthesizer(t, newTestTable(), nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "3.1.0", doc.OpenAPI)
		assert.Equal(t, "API", doc.Info.Title)
		assert.Equal(t, "1.0.0", doc.Info.Version)
		assert.JSONEq(t, `{"openapi":"3.1.0","info":{"title":"API","version":"1.0.0"},"paths":{}}`, toJSON(t, doc))
	})

	t.Run("auto description disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AutoDescription = false
		cfg.AppDescription = "ignored"

		doc, err := newTestSynthesizer(t, newTestTable(), cfg).Document(false)
		require.NoError(t, err)
		assert.Empty(t, doc.Info.Description)
	})

	t.Run("tags follow scope registration order", func(t *testing.T) {
		tt := newTestTable()
		pets := tt.scope(&Scope{Name: "pets"})
		tt.scope(&Scope{Name: "store_orders", Tag: &Tag{Description: "Orders"}})
		tt.scope(&Scope{Name: "hidden", Disabled: true})
		tt.add(t, "/pets", http.MethodGet, pets)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Equal(t, []Tag{{Name: "Pets"}, {Name: "Store Orders", Description: "Orders"}}, doc.Tags)
		assert.Equal(t, []string{"Pets"}, doc.Paths["/pets"].Get.Tags)
	})

	t.Run("explicit tags win", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tags = []Tag{{Name: "custom"}}

		tt := newTestTable()
		tt.scope(&Scope{Name: "pets"})

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, []Tag{{Name: "custom"}}, doc.Tags)
	})

	t.Run("operation text and id", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AutoOperationID = true

		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil, DocText("List pets\n\n    Returns all pets.\n    Paged."))
		tt.routes[0].Name = "list_pets"
		tt.add(t, "/pets", http.MethodPost, nil, Summary("Create"), DocText("Ignored\nKept description"), OperationID("makePet"), Deprecated())

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)

		get := doc.Paths["/pets"].Get
		assert.Equal(t, "List pets", get.Summary)
		assert.Equal(t, "Returns all pets.\nPaged.", get.Description)
		assert.Equal(t, "get_list_pets", get.OperationID)

		post := doc.Paths["/pets"].Post
		assert.Equal(t, "Create", post.Summary)
		assert.Equal(t, "Kept description", post.Description)
		assert.Equal(t, "makePet", post.OperationID)
		assert.True(t, post.Deprecated)
	})

	t.Run("unsupported methods are skipped", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodOptions, nil)

		doc, err := newTestSynthesizer(t, tt, nil).Document(false)
		require.NoError(t, err)
		assert.Empty(t, doc.Paths)
	})
}

func TestSynthesizerOperationIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoOperationID = true

	t.Run("scope chain disambiguates handler names", func(t *testing.T) {
		tt := newTestTable()
		v1 := tt.scope(&Scope{Name: "v1"})
		v2 := tt.scope(&Scope{Name: "v2"})
		admin := tt.scope(&Scope{Name: "admin", Parent: v2})
		tt.add(t, "/v1/pets", http.MethodGet, v1)
		tt.add(t, "/v2/admin/pets", http.MethodGet, admin)
		tt.routes[0].Func = listPets
		tt.routes[1].Func = listPets

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "get_v1_listPets", doc.Paths["/v1/pets"].Get.OperationID)
		assert.Equal(t, "get_v2_admin_listPets", doc.Paths["/v2/admin/pets"].Get.OperationID)
	})

	t.Run("anonymous handlers are named by path", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/<int:id>/toys", http.MethodGet, nil)
		tt.add(t, "/", http.MethodGet, nil)
		tt.routes[0].Func = func(http.ResponseWriter, *http.Request) {}

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "get_pets_id_toys", doc.Paths["/pets/{id}/toys"].Get.OperationID)
		assert.Equal(t, "get_root", doc.Paths["/"].Get.OperationID)
	})

	t.Run("repeated ids get a numeric suffix", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/a", http.MethodGet, nil, OperationID("fetch"))
		tt.add(t, "/b", http.MethodGet, nil, OperationID("fetch"))
		tt.add(t, "/c", http.MethodGet, nil)
		tt.add(t, "/d", http.MethodGet, nil)
		tt.routes[2].Name = "fetch"
		tt.routes[3].Name = "fetch"

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "fetch", doc.Paths["/a"].Get.OperationID)
		assert.Equal(t, "fetch_2", doc.Paths["/b"].Get.OperationID)
		assert.Equal(t, "get_fetch", doc.Paths["/c"].Get.OperationID)
		assert.Equal(t, "get_fetch_2", doc.Paths["/d"].Get.OperationID)
	})

	t.Run("dropped duplicates do not claim an id", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets/<int:id>", http.MethodGet, nil)
		tt.add(t, "/pets/{id}", http.MethodGet, nil)
		tt.add(t, "/pets/<id>/", http.MethodGet, nil)

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "get_pets_id", doc.Paths["/pets/{id}"].Get.OperationID)
		assert.Equal(t, "get_pets_id_2", doc.Paths["/pets/{id}/"].Get.OperationID)
	})

	t.Run("ids stay unique across methods", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil)
		tt.add(t, "/pets", http.MethodPost, nil)

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)
		assert.Equal(t, "get_pets", doc.Paths["/pets"].Get.OperationID)
		assert.Equal(t, "post_pets", doc.Paths["/pets"].Post.OperationID)
	})
}

func TestSynthesizerDuplicates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	tt := newTestTable()
	tt.add(t, "/pets/<int:id>", http.MethodGet, nil, Summary("first"))
	tt.add(t, "/pets/{id}", http.MethodGet, nil, Summary("second"))

	doc, err := newTestSynthesizer(t, tt, nil, WithLogger(zap.New(core))).Document(false)
	require.NoError(t, err)

	assert.Equal(t, "first", doc.Paths["/pets/{id}"].Get.Summary)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "duplicate operation ignored", logs.All()[0].Message)
}

func TestSynthesizerErrors(t *testing.T) {
	t.Run("unsupported input location", func(t *testing.T) {
		tt := newTestTable()
		tt.addRaw("/x", http.MethodGet, nil, Input(Pet{}, "body"))

		_, err := newTestSynthesizer(t, tt, nil).Document(false)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("non schema value", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/x", http.MethodGet, nil, Output(42))

		_, err := newTestSynthesizer(t, tt, nil).Document(false)
		assert.ErrorIs(t, err, ErrNotSchema)

		var target *TypeError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("unresolvable schema", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/x", http.MethodGet, nil, Output(Pet{}))

		s := newTestSynthesizer(t, tt, nil, WithResolver(schema.Resolver{DisableStructs: true}))
		_, err := s.Document(false)
		assert.ErrorIs(t, err, ErrUnresolvableSchema)
	})

	t.Run("errors repeat until fixed", func(t *testing.T) {
		tt := newTestTable()
		tt.add(t, "/x", http.MethodGet, nil, Output("pet"))
		s := newTestSynthesizer(t, tt, nil)

		_, first := s.Document(false)
		_, second := s.Document(false)
		require.Error(t, first)
		assert.Equal(t, first.Error(), second.Error())
		assert.Equal(t, uint64(0), s.Generation())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DocsUI = "graphiql"
		_, err := New(newTestTable(), cfg)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("nil table", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestSynthesizerEnvelope(t *testing.T) {
	type Envelope struct {
		Code int `json:"code"`
		Data any `json:"data"`
	}

	t.Run("outputs are nested under the data key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BaseResponseSchema = Envelope{}

		tt := newTestTable()
		tt.add(t, "/pets/{id}", http.MethodGet, nil, Output(Pet{}))
		tt.add(t, "/pets", http.MethodGet, nil, Output(schema.Many(Pet{})))
		tt.add(t, "/ping", http.MethodGet, nil)

		doc, err := newTestSynthesizer(t, tt, cfg).Document(false)
		require.NoError(t, err)

		ref := func(path string) string {
			return doc.Paths[path].Get.Responses["200"].Content["application/json"].Schema.Ref
		}
		assert.Equal(t, "#/components/schemas/PetResponse", ref("/pets/{id}"))
		assert.Equal(t, "#/components/schemas/PetListResponse", ref("/pets"))
		assert.Empty(t, ref("/ping"))

		wrapped := doc.Components.Schemas["PetResponse"]
		assert.Equal(t, "#/components/schemas/Pet", wrapped.Properties["data"].Ref)
		assert.Equal(t, "integer", wrapped.Properties["code"].Type.First())

		list := doc.Components.Schemas["PetListResponse"]
		assert.Equal(t, "#/components/schemas/Pet", list.Properties["data"].Items.Ref)
	})

	t.Run("missing data key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BaseResponseSchema = Envelope{}
		cfg.BaseResponseDataKey = "payload"

		tt := newTestTable()
		tt.add(t, "/pets", http.MethodGet, nil, Output(Pet{}))

		_, err := newTestSynthesizer(t, tt, cfg).Document(false)
		assert.ErrorIs(t, err, ErrEnvelopeSchema)

		var target *EnvelopeSchemaError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "payload", target.Key)
	})
}

func TestSynthesizerProcessor(t *testing.T) {
	t.Run("processor result is final", func(t *testing.T) {
		calls := 0
		s := newTestSynthesizer(t, newTestTable(), nil, WithProcessor(func(doc *Document) (*Document, error) {
			calls++
			doc.Info.Title = "Processed"
			return doc, nil
		}))

		doc, err := s.Document(false)
		require.NoError(t, err)
		_, err = s.Document(false)
		require.NoError(t, err)

		assert.Equal(t, "Processed", doc.Info.Title)
		assert.Equal(t, 1, calls)
	})

	t.Run("processor error", func(t *testing.T) {
		boom := errors.New("boom")
		s := newTestSynthesizer(t, newTestTable(), nil, WithProcessor(func(*Document) (*Document, error) {
			return nil, boom
		}))
		_, err := s.Document(false)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("processor returning nil", func(t *testing.T) {
		s := newTestSynthesizer(t, newTestTable(), nil, WithProcessor(func(*Document) (*Document, error) {
			return nil, nil
		}))
		_, err := s.Document(false)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestSynthesizerMirror(t *testing.T) {
	t.Run("writes json when enabled", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.json")
		cfg := DefaultConfig()
		cfg.SyncLocalSpec = true
		cfg.LocalSpecPath = path
		cfg.LocalSpecIndent = 4

		s := newTestSynthesizer(t, newTestTable(), cfg)
		_, err := s.Document(false)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n    \"info\"")
	})

	t.Run("writes yaml by extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.yaml")
		cfg := DefaultConfig()
		cfg.SyncLocalSpec = true
		cfg.LocalSpecPath = path

		_, err := newTestSynthesizer(t, newTestTable(), cfg).Document(false)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "openapi: 3.1.0")
	})

	t.Run("render mirrors the requested format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.json")
		cfg := DefaultConfig()
		cfg.SyncLocalSpec = true
		cfg.LocalSpecPath = path

		out, err := newTestSynthesizer(t, newTestTable(), cfg).Render("yaml", true)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "openapi: 3.1.0")
		assert.Equal(t, string(out), string(data))
	})

	t.Run("render rejects unknown format before building", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.json")
		cfg := DefaultConfig()
		cfg.SyncLocalSpec = true
		cfg.LocalSpecPath = path

		s := newTestSynthesizer(t, newTestTable(), cfg)
		_, err := s.Render("xml", true)
		require.Error(t, err)
		assert.NoFileExists(t, path)
		assert.Zero(t, s.Generation())
	})

	t.Run("unchanged content is not rewritten", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.json")
		cfg := DefaultConfig()
		cfg.SyncLocalSpec = true
		cfg.LocalSpecPath = path

		s := newTestSynthesizer(t, newTestTable(), cfg)
		_, err := s.Document(false)
		require.NoError(t, err)

		past := time.Now().Add(-time.Hour).Truncate(time.Second)
		require.NoError(t, os.Chtimes(path, past, past))

		_, err = s.Document(true)
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(past))
	})

	t.Run("write failures are logged", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		cfg := DefaultConfig()
		cfg.SyncLocalSpec = true
		cfg.LocalSpecPath = filepath.Join(t.TempDir(), "missing", "openapi.json")

		_, err := newTestSynthesizer(t, newTestTable(), cfg, WithLogger(zap.New(core))).Document(false)
		require.NoError(t, err)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("disabled by default", func(t *testing.T) {
		dir := t.TempDir()
		cfg := DefaultConfig()
		cfg.LocalSpecPath = filepath.Join(dir, "openapi.json")

		_, err := newTestSynthesizer(t, newTestTable(), cfg).Document(false)
		require.NoError(t, err)
		assert.NoFileExists(t, cfg.LocalSpecPath)
	})
}
