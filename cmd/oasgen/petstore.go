package main

import (
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/vitalvas/oasgen/app"
	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/mux"
	"github.com/vitalvas/oasgen/openapi"
	"github.com/vitalvas/oasgen/schema"
)

// PetSchema is a pet as returned by the API.
type PetSchema struct {
	ID   int    `json:"id" openapi:"description=Pet identifier,readOnly"`
	Name string `json:"name" openapi:"description=Pet name,minLength=1"`
	Tag  string `json:"tag,omitempty" openapi:"description=Free-form tag"`
}

// PetInSchema is the body accepted when creating or updating a pet.
type PetInSchema struct {
	Name string `json:"name" openapi:"minLength=1"`
	Tag  string `json:"tag,omitempty"`
}

// PetQuery filters the pet list.
type PetQuery struct {
	Limit int    `json:"limit,omitempty" openapi:"description=Maximum number of pets,minimum=1"`
	Tag   string `json:"tag,omitempty"`
}

type petStore struct {
	mu     sync.RWMutex
	nextID int
	pets   map[int]PetSchema
}

func newPetStore() *petStore {
	return &petStore{nextID: 1, pets: make(map[int]PetSchema)}
}

func (s *petStore) list(w http.ResponseWriter, r *http.Request) {
	q, err := app.BindAs[PetQuery](r, "query")
	if err != nil {
		app.Error(w, err)
		return
	}

	s.mu.RLock()
	out := make([]PetSchema, 0, len(s.pets))
	for _, p := range s.pets {
		if q.Tag == "" || p.Tag == q.Tag {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b PetSchema) int { return a.ID - b.ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	app.Respond(w, http.StatusOK, schema.Many(PetSchema{}), out)
}

func (s *petStore) create(w http.ResponseWriter, r *http.Request) {
	in, err := app.BindAs[PetInSchema](r, "json")
	if err != nil {
		app.Error(w, err)
		return
	}

	s.mu.Lock()
	pet := PetSchema{ID: s.nextID, Name: in.Name, Tag: in.Tag}
	s.pets[pet.ID] = pet
	s.nextID++
	s.mu.Unlock()

	app.Respond(w, http.StatusCreated, PetSchema{}, pet)
}

func (s *petStore) get(w http.ResponseWriter, r *http.Request) {
	pet, ok := s.lookup(r)
	if !ok {
		app.JSON(w, http.StatusNotFound, map[string]string{"message": "pet not found"})
		return
	}
	app.Respond(w, http.StatusOK, PetSchema{}, pet)
}

func (s *petStore) update(w http.ResponseWriter, r *http.Request) {
	in, err := app.BindAs[PetInSchema](r, "json")
	if err != nil {
		app.Error(w, err)
		return
	}

	pet, ok := s.lookup(r)
	if !ok {
		app.JSON(w, http.StatusNotFound, map[string]string{"message": "pet not found"})
		return
	}
	pet.Name, pet.Tag = in.Name, in.Tag

	s.mu.Lock()
	s.pets[pet.ID] = pet
	s.mu.Unlock()

	app.Respond(w, http.StatusOK, PetSchema{}, pet)
}

func (s *petStore) remove(w http.ResponseWriter, r *http.Request) {
	pet, ok := s.lookup(r)
	if !ok {
		app.JSON(w, http.StatusNotFound, map[string]string{"message": "pet not found"})
		return
	}

	s.mu.Lock()
	delete(s.pets, pet.ID)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *petStore) lookup(r *http.Request) (PetSchema, bool) {
	raw, _ := mux.VarGet(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return PetSchema{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	pet, ok := s.pets[id]
	return pet, ok
}

func health(w http.ResponseWriter, _ *http.Request) {
	app.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// registerPetStore registers the example routes. Writes require the admin
// role through HTTP basic auth.
func registerPetStore(a *app.App) error {
	store := newPetStore()
	basic := &auth.Basic{Realm: "petstore", Description: "Administrator credentials"}

	pets := a.Scope("pets", app.Prefix("/pets"), app.Tag(openapi.Tag{Name: "Pets", Description: "Pet inventory"}))
	admin := pets.Scope("pets_admin", app.Auth(basic, "admin"))
	system := a.Scope("system", app.Disabled())

	for _, err := range []error{
		pets.Get("/", store.list,
			openapi.Input(PetQuery{}, "query"),
			openapi.Output(schema.Many(PetSchema{})),
			openapi.DocText("List pets\nReturns pets ordered by id, optionally filtered by tag."),
		),
		pets.Get("/<int:id>", store.get,
			openapi.Output(PetSchema{}),
			openapi.Summary("Get a pet"),
		),
		admin.Post("/", store.create,
			openapi.Body(PetInSchema{}),
			openapi.Output(PetSchema{}, openapi.Status(http.StatusCreated), openapi.Describe("Pet created")),
			openapi.Summary("Create a pet"),
		),
		admin.Put("/<int:id>", store.update,
			openapi.Body(PetInSchema{}),
			openapi.Output(PetSchema{}),
			openapi.Summary("Replace a pet"),
		),
		admin.Delete("/<int:id>", store.remove,
			openapi.Output(schema.Empty, openapi.Status(http.StatusNoContent)),
			openapi.Summary("Delete a pet"),
		),
		system.Get("/healthz", health, openapi.Hide()),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
