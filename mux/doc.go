// Package mux implements the request router behind package app. It matches
// the request path against registered templates, extracts path variables
// and dispatches to the handler of the first matching route.
//
// # Templates
//
// A template is a path with placeholders. Two placeholder forms are
// accepted and may be mixed:
//
//	r.HandleFunc("/pets/{id}", h)          // any segment
//	r.HandleFunc("/pets/{id:int}", h)      // macro
//	r.HandleFunc("/pets/{id:[0-9]{3}}", h) // raw regular expression
//	r.HandleFunc("/pets/<int:id>", h)      // typed converter
//	r.HandleFunc("/pets/<name>", h)        // any segment
//
// Converters and macros share one table:
//
//	string   - one path segment (default)
//	path     - the rest of the path, slashes included
//	int      - unsigned integer (e.g. 42)
//	float    - decimal number (e.g. 3.14, 42, .5)
//	uuid     - RFC 4122 UUID
//	slug     - URL-safe slug (e.g. my-post-title)
//	alpha    - alphabetic characters
//	alphanum - alphanumeric characters
//	date     - ISO 8601 date (e.g. 2024-01-15)
//	hex      - hexadecimal string
//
// An unknown name after the colon of a brace placeholder is used as a raw
// regular expression. An unknown converter is a registration error, read
// back through Route.GetError.
//
// Variables are stored in the request context:
//
//	id, ok := mux.VarGet(r, "id")
//
// # Methods
//
// Routes restricted with Methods answer 405 Method Not Allowed, with an
// Allow header, when the path matches but the method does not (RFC 9110
// Section 15.5.6).
//
// # Inspection
//
// Walk visits every route, subrouters included, in registration order.
// GetPathTemplate and GetMethods return what was registered, so a route
// table can be rebuilt from the router:
//
//	r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
//	    tpl, _ := route.GetPathTemplate()
//	    methods, _ := route.GetMethods()
//	    fmt.Println(tpl, methods)
//	    return nil
//	})
//
// # Middleware
//
// Use appends middleware applied to matched handlers only. The wrapped
// handler is built once per route.
package mux
