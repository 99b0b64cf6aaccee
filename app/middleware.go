package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitalvas/oasgen/mux"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored by RequestID, or an
// empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID propagates an incoming X-Request-ID or generates a
// time-ordered UUID v7 and sets it on the response.
//
// Spec reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			v7, err := uuid.NewV7()
			if err != nil {
				v7 = uuid.New()
			}
			id = v7.String()
			r.Header.Set(RequestIDHeader, id)
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// Recovery recovers from panics in downstream handlers, logs them and
// answers 500 Internal Server Error.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					fields := []zap.Field{
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.String("panic", fmt.Sprint(rec)),
						zap.Stack("stack"),
					}
					if route := mux.CurrentRoute(r); route != nil {
						if tpl, err := route.GetPathTemplate(); err == nil {
							fields = append(fields, zap.String("route", tpl))
						}
					}
					logger.Error("panic in handler", fields...)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
