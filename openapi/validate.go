package openapi

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validate checks doc against the OpenAPI specification by loading its
// JSON rendering with an independent OpenAPI implementation.
func Validate(ctx context.Context, doc *Document) error {
	data, err := doc.JSON(0)
	if err != nil {
		return fmt.Errorf("marshal openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	t, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("load openapi document: %w", err)
	}
	if err := t.Validate(ctx); err != nil {
		return fmt.Errorf("validate openapi document: %w", err)
	}
	return nil
}
