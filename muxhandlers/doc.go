// Package muxhandlers provides HTTP middleware for the mux router.
//
// # CORS Middleware
//
// CORSMiddleware implements the CORS protocol per the Fetch Standard so
// that documentation UIs served from another origin can load the OpenAPI
// document and try out operations. Allowed methods are discovered from
// the routes registered on the router.
//
//	mw, err := muxhandlers.CORSMiddleware(r, muxhandlers.CORSConfig{
//	    AllowedOrigins: []string{"https://*.example.com"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// # Compression Middleware
//
// CompressionMiddleware compresses response bodies with gzip or deflate
// based on Accept-Encoding. Bodies shorter than MinLength are sent as is.
//
//	mw, err := muxhandlers.CompressionMiddleware(muxhandlers.CompressionConfig{
//	    MinLength: 1024,
//	})
//
// Both configurations carry TOML tags and are loaded from the [http]
// section of the service configuration.
package muxhandlers
