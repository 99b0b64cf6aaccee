package openapi

import (
	"fmt"
	"strings"

	"github.com/vitalvas/oasgen/schema"
)

// DocsUI selects which interactive documentation UI is served.
type DocsUI string

const (
	DocsSwaggerUI DocsUI = "swagger-ui"
	DocsRedoc     DocsUI = "redoc"
	DocsRapiDoc   DocsUI = "rapidoc"
	DocsElements  DocsUI = "elements"
	DocsRapiPDF   DocsUI = "rapipdf"
)

// DocsUIs lists the supported documentation UIs.
var DocsUIs = []DocsUI{DocsSwaggerUI, DocsRedoc, DocsRapiDoc, DocsElements, DocsRapiPDF}

// Validate reports an invalid UI selection as a ConfigurationError.
func (u DocsUI) Validate() error {
	for _, known := range DocsUIs {
		if u == known {
			return nil
		}
	}
	return configError("docs_ui", fmt.Sprintf("invalid docs UI %q", string(u)), nil)
}

// Config holds every synthesis setting. Fields holding schemas or
// callbacks are not read from configuration files.
type Config struct {
	Version string `toml:"version"`

	// Info fields override InfoBase. An empty title and version fall back
	// to "API" and "1.0.0".
	Info           Info          `toml:"info"`
	InfoBase       *Info         `toml:"info_base"`
	AppDescription string        `toml:"app_description"`
	Servers        []Server      `toml:"servers"`
	ExternalDocs   *ExternalDocs `toml:"external_docs"`
	Tags           []Tag         `toml:"tags"`

	AutoDescription             bool `toml:"auto_description"`
	AutoTags                    bool `toml:"auto_tags"`
	AutoOperationSummary        bool `toml:"auto_operation_summary"`
	AutoOperationDescription    bool `toml:"auto_operation_description"`
	AutoOperationID             bool `toml:"auto_operation_id"`
	Auto200Response             bool `toml:"auto_200_response"`
	AutoValidationErrorResponse bool `toml:"auto_validation_error_response"`
	AutoAuthErrorResponse       bool `toml:"auto_auth_error_response"`
	Auto404Response             bool `toml:"auto_404_response"`

	SuccessDescription string `toml:"success_description"`

	ValidationErrorStatus      int    `toml:"validation_error_status"`
	ValidationErrorDescription string `toml:"validation_error_description"`
	ValidationErrorSchema      any    `toml:"-"`

	AuthErrorStatus      int    `toml:"auth_error_status"`
	AuthErrorDescription string `toml:"auth_error_description"`
	NotFoundDescription  string `toml:"not_found_description"`
	HTTPErrorSchema      any    `toml:"-"`

	// BaseResponseSchema wraps every non-empty output schema: the output
	// is nested under BaseResponseDataKey, which the envelope must declare.
	BaseResponseSchema  any    `toml:"-"`
	BaseResponseDataKey string `toml:"base_response_data_key"`

	// SecuritySchemes are merged over the derived schemes and win on
	// name collision.
	SecuritySchemes map[string]*SecurityScheme `toml:"security_schemes"`

	SpecPath     string `toml:"spec_path"`
	JSONMimetype string `toml:"json_mimetype"`
	YAMLMimetype string `toml:"yaml_mimetype"`

	EnableDocs bool   `toml:"enable_docs"`
	DocsPath   string `toml:"docs_path"`
	DocsUI     DocsUI `toml:"docs_ui"`

	LocalSpecPath   string `toml:"local_spec_path"`
	SyncLocalSpec   bool   `toml:"sync_local_spec"`
	LocalSpecIndent int    `toml:"local_spec_indent"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		Version: "3.1.0",

		AutoDescription:             true,
		AutoTags:                    true,
		AutoOperationSummary:        true,
		AutoOperationDescription:    true,
		Auto200Response:             true,
		AutoValidationErrorResponse: true,
		AutoAuthErrorResponse:       true,
		Auto404Response:             true,

		SuccessDescription: "Successful response",

		ValidationErrorStatus:      422,
		ValidationErrorDescription: "Validation error",
		ValidationErrorSchema:      defaultErrorSchema(),

		AuthErrorStatus:      401,
		AuthErrorDescription: "Authentication error",
		NotFoundDescription:  "Not found",
		HTTPErrorSchema:      defaultErrorSchema(),

		BaseResponseDataKey: "data",

		SpecPath:     "/openapi.json",
		JSONMimetype: "application/json",
		YAMLMimetype: "text/vnd.yaml",

		EnableDocs: true,
		DocsPath:   "/docs",
		DocsUI:     DocsSwaggerUI,

		LocalSpecIndent: 2,
	}
}

func defaultErrorSchema() *Schema {
	return &Schema{
		Type: schema.TypeOf("object"),
		Properties: map[string]*Schema{
			"detail":  {Type: schema.TypeOf("object")},
			"message": {Type: schema.TypeOf("string")},
		},
	}
}

// Validate checks the settings that can be wrong independently of routes.
func (c *Config) Validate() error {
	if c.Version == "" {
		return configError("version", "openapi version is required", nil)
	}
	if c.EnableDocs {
		if err := c.DocsUI.Validate(); err != nil {
			return err
		}
	}
	for name, status := range map[string]int{
		"validation_error_status": c.ValidationErrorStatus,
		"auth_error_status":       c.AuthErrorStatus,
	} {
		if status < 400 || status > 599 {
			return configError(name, fmt.Sprintf("status %d is not an error status", status), nil)
		}
	}
	if c.BaseResponseSchema != nil && c.BaseResponseDataKey == "" {
		return configError("base_response_data_key", "data key is required with a base response schema", nil)
	}
	if !strings.HasPrefix(c.SpecPath, "/") {
		return configError("spec_path", fmt.Sprintf("path %q must start with /", c.SpecPath), nil)
	}
	if c.LocalSpecIndent < 0 {
		return configError("local_spec_indent", "indent must not be negative", nil)
	}
	return nil
}

// SpecFormat returns "yaml" when the spec path ends in .yaml or .yml.
func (c *Config) SpecFormat() string {
	return formatForPath(c.SpecPath)
}

func formatForPath(path string) string {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}
