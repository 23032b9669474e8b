package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONWithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn", AppEnv: "staging"})

	logger.Info("hidden")
	logger.Warn("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "staging", entry["env"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogLevel: "loud"})
	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
