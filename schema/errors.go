package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var (
	// ErrNotSchema is matched by TypeError.
	ErrNotSchema = errors.New("value is not a schema")

	// ErrUnresolvable is matched by UnresolvableError.
	ErrUnresolvable = errors.New("unresolvable schema type")

	// ErrUnsupportedLocation is returned for input locations outside the known set.
	ErrUnsupportedLocation = errors.New("unsupported input location")
)

// TypeError is returned when a value that is neither a schema nor a field
// mapping is passed where a schema is expected.
type TypeError struct {
	Value any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("schema: %T is not a schema or a field mapping", e.Value)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrNotSchema
}

// UnresolvableError is returned when a schema-like value matches no
// enabled schema system.
type UnresolvableError struct {
	Type reflect.Type
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("schema: no schema system can resolve %v", e.Type)
}

func (e *UnresolvableError) Is(target error) bool {
	return target == ErrUnresolvable
}

// ValidationError is the structured failure produced by Adapter.Parse.
// Fields maps a field path ("name", "0.name" for list items, "_schema" for
// whole-payload problems) to its messages.
type ValidationError struct {
	Location Location
	Fields   map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return fmt.Sprintf("validation failed in %s: %s", e.Location, strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}
