// Package logging builds the zap logger used by oasgen binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the log level and output format.
type Config struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig logs info and above as console lines.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatConsole}
}

// Validate checks the level and format names.
func (c Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatConsole:
		return nil
	}
	return fmt.Errorf("unknown log format %q", c.Format)
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

// New builds a logger writing to stderr.
func New(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stderr, opts...)
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer, opts ...zap.Option) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := parseLevel(cfg.Level)

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	if strings.ToLower(cfg.Format) == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core, append([]zap.Option{zap.AddCaller()}, opts...)...), nil
}
