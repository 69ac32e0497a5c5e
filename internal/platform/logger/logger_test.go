package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engageflow/internal/platform/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json lines carry attributes", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, config.LogConfig{Format: "json", Level: "info"})
		log.Info("procedure_transitioned", "log_type", "audit")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "procedure_transitioned", line["msg"])
		assert.Equal(t, "audit", line["log_type"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, config.LogConfig{Format: "text", Level: "warn"})
		log.Info("dropped")
		assert.Empty(t, buf.String())
		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})
}
