package openapi

import (
	"errors"
	"fmt"

	"github.com/vitalvas/oasgen/schema"
)

var (
	ErrConfiguration     = errors.New("openapi configuration error")
	ErrUnknownAuthScheme = errors.New("unknown auth scheme")
	ErrEnvelopeSchema    = errors.New("envelope schema lacks data key")

	// ErrUnresolvableSchema and ErrNotSchema are raised by schema resolution.
	ErrUnresolvableSchema = schema.ErrUnresolvable
	ErrNotSchema          = schema.ErrNotSchema
)

// UnresolvableSchemaError is returned when a declared schema matches no
// enabled schema system.
type UnresolvableSchemaError = schema.UnresolvableError

// TypeError is returned when a non-schema value is declared as a schema.
type TypeError = schema.TypeError

// ValidationError is the structured input validation failure.
type ValidationError = schema.ValidationError

// ConfigurationError reports a mistake in declared metadata or settings.
type ConfigurationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(op, reason string, err error) error {
	return &ConfigurationError{Op: op, Reason: reason, Err: err}
}

// UnknownAuthSchemeError is returned for authentication objects of an
// unrecognized concrete type.
type UnknownAuthSchemeError struct {
	Scheme any
}

func (e *UnknownAuthSchemeError) Error() string {
	return fmt.Sprintf("unknown auth scheme %T", e.Scheme)
}

func (e *UnknownAuthSchemeError) Is(target error) bool {
	return target == ErrUnknownAuthScheme
}

// EnvelopeSchemaError is returned when the base response schema has no
// property named by the configured data key.
type EnvelopeSchemaError struct {
	Key string
}

func (e *EnvelopeSchemaError) Error() string {
	return fmt.Sprintf("base response schema has no %q property", e.Key)
}

func (e *EnvelopeSchemaError) Is(target error) bool {
	return target == ErrEnvelopeSchema
}
