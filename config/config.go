// Package config loads oasgen settings from a TOML file with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/vitalvas/oasgen/logging"
	"github.com/vitalvas/oasgen/muxhandlers"
	"github.com/vitalvas/oasgen/openapi"
)

// Environment variables that override file settings.
const (
	EnvSpecPath      = "OASGEN_SPEC_PATH"
	EnvDocsUI        = "OASGEN_DOCS_UI"
	EnvLogLevel      = "OASGEN_LOG_LEVEL"
	EnvLogFormat     = "OASGEN_LOG_FORMAT"
	EnvLocalSpecPath = "OASGEN_LOCAL_SPEC_PATH"
	EnvCORSOrigins   = "OASGEN_CORS_ORIGINS"
)

// Config is the root configuration.
type Config struct {
	OpenAPI openapi.Config `toml:"openapi"`
	Log     logging.Config `toml:"log"`
	HTTP    HTTPConfig     `toml:"http"`
}

// HTTPConfig holds the middleware settings of the served API.
type HTTPConfig struct {
	// CORS is enabled when allowed_origins is not empty.
	CORS        muxhandlers.CORSConfig        `toml:"cors"`
	Compress    bool                          `toml:"compress"`
	Compression muxhandlers.CompressionConfig `toml:"compression"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OpenAPI: *openapi.DefaultConfig(),
		Log:     logging.DefaultConfig(),
		HTTP: HTTPConfig{
			Compress:    true,
			Compression: muxhandlers.CompressionConfig{MinLength: 1024},
		},
	}
}

// Load applies, in order, the defaults, the TOML file at path (skipped
// when path is empty) and the environment overrides, then validates the
// result. Unknown keys in the file are errors.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.New(strict.String())
		}
		return err
	}
	return nil
}

// loadEnv applies environment overrides. Setting the local spec path also
// turns the mirror on.
func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSpecPath); v != "" {
		c.OpenAPI.SpecPath = v
	}
	if v := os.Getenv(EnvDocsUI); v != "" {
		c.OpenAPI.DocsUI = openapi.DocsUI(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvLocalSpecPath); v != "" {
		c.OpenAPI.LocalSpecPath = v
		c.OpenAPI.SyncLocalSpec = true
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		var origins []string
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.HTTP.CORS.AllowedOrigins = origins
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.OpenAPI.Validate(); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.HTTP.CORS.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.HTTP.Compression.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}
