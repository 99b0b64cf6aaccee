// Package app is a small application layer that registers handlers with
// their OpenAPI metadata, serves them on a mux router and publishes the
// synthesized document.
//
// Handlers are grouped in scopes. A scope contributes a path prefix, a tag
// and authentication to its routes, and scopes nest:
//
//	a, err := app.New(cfg, app.WithVerifier(auth.Users(users, "admin")))
//	admin := a.Scope("admin", app.Prefix("/admin"), app.Auth(&auth.Basic{}, "admin"))
//	err = admin.Delete("/pets/<int:id>", deletePet, openapi.Output(schema.Empty, openapi.Status(204)))
//
// Patterns accept converter placeholders ("<int:id>", "<uuid:ref>",
// "<name>") as well as mux placeholders ("{id}", "{id:int}",
// "{id:[0-9]+}"). Both forms constrain matching and type the documented
// path parameter.
//
// Every registration keeps its own metadata, so closures built by one
// factory and registered on different routes stay distinct. Registering
// the same handler for the same method and pattern again merges metadata.
package app
