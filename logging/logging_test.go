package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
		require.NoError(t, err)

		logger.Info("document built", zap.Int("paths", 3))
		logger.Debug("hidden")
		require.NoError(t, logger.Sync())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "document built", entry["msg"])
		assert.InDelta(t, 3, entry["paths"], 0)
	})

	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewWithWriter(Config{Level: "DEBUG", Format: "console"}, &buf)
		require.NoError(t, err)

		logger.Debug("route registered", zap.String("pattern", "/pets"))
		out := buf.String()
		assert.Contains(t, out, "DEBUG")
		assert.Contains(t, out, "route registered")
		assert.Contains(t, out, `{"pattern": "/pets"}`)
	})

	t.Run("warn level filters info", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewWithWriter(Config{Level: "warn", Format: "json"}, &buf)
		require.NoError(t, err)

		logger.Info("skip")
		logger.Warn("keep")
		assert.NotContains(t, buf.String(), "skip")
		assert.Contains(t, buf.String(), "keep")
	})

	t.Run("invalid settings", func(t *testing.T) {
		_, err := New(Config{Level: "trace", Format: "json"})
		assert.ErrorContains(t, err, `unknown log level "trace"`)

		_, err = New(Config{Level: "info", Format: "logfmt"})
		assert.ErrorContains(t, err, `unknown log format "logfmt"`)
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})
}
