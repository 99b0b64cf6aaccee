package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"

	"github.com/vitalvas/oasgen/mux"
	"github.com/vitalvas/oasgen/schema"
)

// MaxBodyBytes limits the request bodies read by Bind.
const MaxBodyBytes = 10 << 20

// Bind reads the input declared by s at location from r, validates it
// against the schema and returns the decoded value. Typed schemas decode
// into their Go type. Validation failures are *schema.ValidationError.
func Bind(r *http.Request, s any, location string) (any, error) {
	loc, err := schema.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	a, err := schema.Resolve(s)
	if err != nil {
		return nil, err
	}

	raw, err := rawInput(r, loc)
	if err != nil {
		return nil, err
	}
	return a.Parse(raw, loc)
}

// BindAs binds the input at location into a T.
func BindAs[T any](r *http.Request, location string) (T, error) {
	var zero T
	v, err := Bind(r, zero, location)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("bind: decoded %T, want %T", v, zero)
	}
	return out, nil
}

func rawInput(r *http.Request, loc schema.Location) (any, error) {
	switch loc {
	case schema.LocationJSON:
		data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(data) > MaxBodyBytes {
			return nil, errors.New("request body too large")
		}
		return data, nil

	case schema.LocationQuery:
		return r.URL.Query(), nil

	case schema.LocationHeaders:
		return r.Header, nil

	case schema.LocationCookies:
		return r.Cookies(), nil

	case schema.LocationPath:
		params := make(map[string]string)
		maps.Copy(params, mux.Vars(r))
		return params, nil

	case schema.LocationForm:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil

	case schema.LocationFiles, schema.LocationFormFiles:
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return nil, err
		}
		return r.MultipartForm, nil
	}
	return nil, fmt.Errorf("%w: %q", schema.ErrUnsupportedLocation, loc)
}

// JSON encodes v and writes it with status code. If encoding fails 500 is
// written instead.
func JSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Respond serializes v through the output schema s, keeping only the
// declared properties, and writes it as JSON.
func Respond(w http.ResponseWriter, code int, s any, v any) {
	a, err := schema.Resolve(s)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	out, err := a.Serialize(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	JSON(w, code, out)
}

// errorBody matches the default validation and HTTP error schemas.
type errorBody struct {
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Error writes err as a JSON error body. Validation failures answer 422
// with the failing fields under detail; other errors answer 400.
func Error(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusUnprocessableEntity, errorBody{
			Message: "Validation error",
			Detail:  map[string]any{string(verr.Location): verr.Fields},
		})
		return
	}
	JSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
}
