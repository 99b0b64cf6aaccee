package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	msgRequired  = "Missing data for required field."
	msgNull      = "Field may not be null."
	msgInvalid   = "Invalid input type."
	msgUUID      = "Not a valid UUID."
	schemaErrKey = "_schema"
)

// parse converts raw input read from loc into a value conforming to s.
// With a non-nil t the result is decoded into a value of that type
// (or a slice of it for many).
func parse(s *Schema, t reflect.Type, many bool, raw any, loc Location) (any, error) {
	verr := &ValidationError{Location: loc}

	value, err := normalize(s, raw, loc)
	if err != nil {
		verr.add(schemaErrKey, err.Error())
		return nil, verr
	}

	if many {
		items, ok := value.([]any)
		if !ok {
			verr.add(schemaErrKey, "Not a valid list.")
			return nil, verr
		}
		for i, item := range items {
			validate(s, item, strconv.Itoa(i), verr)
		}
	} else {
		validate(s, value, "", verr)
	}
	if !verr.empty() {
		return nil, verr
	}

	if t == nil || loc == LocationFiles || loc == LocationFormFiles {
		return value, nil
	}

	target := t
	if many {
		target = reflect.SliceOf(t)
	}
	out, err := decodeInto(value, target)
	if err != nil {
		verr.add(schemaErrKey, err.Error())
		return nil, verr
	}
	return out, nil
}

func normalize(s *Schema, raw any, loc Location) (any, error) {
	switch loc {
	case LocationJSON:
		return decodeJSON(raw)
	case LocationFiles:
		form, err := multipartForm(raw)
		if err != nil {
			return nil, err
		}
		return filesMap(form.File), nil
	case LocationFormFiles:
		form, err := multipartForm(raw)
		if err != nil {
			return nil, err
		}
		out := coerce(s, form.Value, false)
		for k, v := range filesMap(form.File) {
			out[k] = v
		}
		return out, nil
	case LocationHeaders:
		values, err := stringValues(raw)
		if err != nil {
			return nil, err
		}
		return coerce(s, values, true), nil
	case LocationCookies:
		if cookies, ok := raw.([]*http.Cookie); ok {
			values := make(map[string][]string, len(cookies))
			for _, c := range cookies {
				values[c.Name] = append(values[c.Name], c.Value)
			}
			return coerce(s, values, false), nil
		}
		fallthrough
	default:
		values, err := stringValues(raw)
		if err != nil {
			return nil, err
		}
		return coerce(s, values, false), nil
	}
}

func decodeJSON(raw any) (any, error) {
	var data []byte
	switch x := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		data = x
	case string:
		data = []byte(x)
	case io.Reader:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		data = b
	default:
		return roundTrip(raw)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return out, nil
}

func stringValues(raw any) (map[string][]string, error) {
	switch x := raw.(type) {
	case nil:
		return map[string][]string{}, nil
	case url.Values:
		return x, nil
	case http.Header:
		return x, nil
	case map[string][]string:
		return x, nil
	case map[string]string:
		out := make(map[string][]string, len(x))
		for k, v := range x {
			out[k] = []string{v}
		}
		return out, nil
	case *multipart.Form:
		return x.Value, nil
	}
	return nil, fmt.Errorf("%s: unsupported input %T", msgInvalid, raw)
}

func multipartForm(raw any) (*multipart.Form, error) {
	switch x := raw.(type) {
	case *multipart.Form:
		return x, nil
	case map[string][]*multipart.FileHeader:
		return &multipart.Form{File: x}, nil
	case nil:
		return &multipart.Form{}, nil
	}
	return nil, fmt.Errorf("%s: unsupported input %T", msgInvalid, raw)
}

func filesMap(files map[string][]*multipart.FileHeader) map[string]any {
	out := make(map[string]any, len(files))
	for k, v := range files {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		out[k] = v
	}
	return out
}

// coerce picks the declared properties out of string-valued input and
// converts them by property type. Values that fail conversion are kept
// as strings so validation reports them.
func coerce(s *Schema, values map[string][]string, foldCase bool) map[string]any {
	out := make(map[string]any)
	if s == nil || len(s.Properties) == 0 {
		for k, v := range values {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out
	}

	for name, prop := range s.Properties {
		vals, ok := lookup(values, name, foldCase)
		if !ok || len(vals) == 0 {
			continue
		}
		if prop.Type.Has("array") {
			items := make([]any, len(vals))
			for i, v := range vals {
				items[i] = coerceScalar(prop.Items, v)
			}
			out[name] = items
			continue
		}
		out[name] = coerceScalar(prop, vals[0])
	}
	return out
}

func lookup(values map[string][]string, name string, foldCase bool) ([]string, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	if !foldCase {
		return nil, false
	}
	for k, v := range values {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func coerceScalar(s *Schema, v string) any {
	if s == nil {
		return v
	}
	switch s.Type.First() {
	case "integer":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "number":
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

func validate(s *Schema, v any, path string, verr *ValidationError) {
	if s == nil || s.Ref != "" {
		return
	}
	key := path
	if key == "" {
		key = schemaErrKey
	}

	if v == nil {
		if !s.Type.IsZero() && !s.Type.Has("null") {
			verr.add(key, msgNull)
		}
		return
	}
	if isFile(v) {
		return
	}

	if !s.Type.IsZero() && !matchesType(s.Type, v) {
		verr.add(key, fmt.Sprintf("Not a valid %s.", typeNoun(s.Type.First())))
		return
	}

	if len(s.Enum) > 0 && !inEnum(s.Enum, v) {
		verr.add(key, "Must be one of: "+joinEnum(s.Enum)+".")
	}

	if s.Format == "uuid" {
		if str, ok := v.(string); ok {
			if _, err := uuid.Parse(str); err != nil {
				verr.add(key, msgUUID)
			}
		}
	}

	switch x := v.(type) {
	case map[string]any:
		for _, name := range s.Required {
			if _, ok := x[name]; !ok {
				verr.add(join(path, name), msgRequired)
			}
		}
		for name, prop := range s.Properties {
			if pv, ok := x[name]; ok {
				validate(prop, pv, join(path, name), verr)
			}
		}
	case []any:
		for i, item := range x {
			validate(s.Items, item, join(path, strconv.Itoa(i)), verr)
		}
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func isFile(v any) bool {
	switch v.(type) {
	case *multipart.FileHeader, []*multipart.FileHeader:
		return true
	}
	return false
}

func matchesType(t Type, v any) bool {
	for _, name := range t.Values() {
		switch name {
		case "string":
			if _, ok := v.(string); ok {
				return true
			}
		case "boolean":
			if _, ok := v.(bool); ok {
				return true
			}
		case "integer":
			switch n := v.(type) {
			case int, int64:
				return true
			case float64:
				if n == math.Trunc(n) {
					return true
				}
			}
		case "number":
			switch v.(type) {
			case int, int64, float64:
				return true
			}
		case "array":
			if _, ok := v.([]any); ok {
				return true
			}
		case "object":
			if _, ok := v.(map[string]any); ok {
				return true
			}
		}
	}
	return false
}

func typeNoun(t string) string {
	switch t {
	case "object":
		return "mapping type"
	case "array":
		return "list"
	}
	return t
}

func inEnum(enum []any, v any) bool {
	for _, e := range enum {
		if fmt.Sprint(e) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}

func joinEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, ", ")
}

func decodeInto(v any, t reflect.Type) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%s %v", msgInvalid, err)
	}
	return ptr.Elem().Interface(), nil
}

// roundTrip converts structs and maps into their generic JSON form.
func roundTrip(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// serialize renders v as a JSON-compatible value holding only the
// properties declared by s.
func serialize(s *Schema, many bool, v any) (any, error) {
	data, err := roundTrip(v)
	if err != nil {
		return nil, fmt.Errorf("serialize %T: %w", v, err)
	}
	if !many {
		return filter(s, data), nil
	}

	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("serialize %T: expected a list", v)
	}
	for i, item := range items {
		items[i] = filter(s, item)
	}
	return items, nil
}

func filter(s *Schema, v any) any {
	if s == nil {
		return v
	}
	switch x := v.(type) {
	case map[string]any:
		if len(s.Properties) == 0 {
			return x
		}
		out := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if pv, ok := x[name]; ok {
				out[name] = filter(prop, pv)
			}
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = filter(s.Items, item)
		}
		return x
	}
	return v
}
