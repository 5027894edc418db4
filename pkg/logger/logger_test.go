package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initBuffered swaps the global output for a buffer until the test ends.
func initBuffered(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOutput, prevLogger, prevLevel := output, logger, lvl.Level()
	output = &buf
	t.Cleanup(func() {
		output, logger = prevOutput, prevLogger
		lvl.Set(prevLevel)
		slog.SetDefault(prevLogger)
	})
	require.NoError(t, Init(cfg))
	return &buf
}

func TestInitJSONWithAttrs(t *testing.T) {
	buf := initBuffered(t, Config{
		Output:     "JSON",
		DurationMs: true,
		Attrs:      map[string]string{"service": "tokensale", "env": "test"},
	})

	InfoContext(context.Background(), "Exported snapshot file", slog.Duration("took", 1500*time.Millisecond))
	DebugContext(context.Background(), "not printed at info level")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Exported snapshot file", record[MessageKey])
	assert.Equal(t, "tokensale", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, float64(1500), record["took"])
}

func TestInitGCPSeverity(t *testing.T) {
	buf := initBuffered(t, Config{Output: "gcp"})

	Warn("Worker task failed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARNING", record["severity"])
	assert.Equal(t, "Worker task failed", record["message"])
}

func TestInitRejectsUnknownOutput(t *testing.T) {
	prevLogger := logger
	t.Cleanup(func() { logger = prevLogger })
	assert.Error(t, Init(Config{Output: "xml"}))
}

func TestLevelAttrReplacer(t *testing.T) {
	testCases := []struct {
		level    slog.Level
		expected any
	}{
		{slog.LevelError, slog.LevelError},
		{LevelCritical, "CRITICAL"},
		{LevelPanic, "PANIC"},
		{LevelFatal + 1, "FATAL+1"},
	}
	for _, tc := range testCases {
		attr := levelAttrReplacer(nil, slog.Any(slog.LevelKey, tc.level))
		assert.Equal(t, tc.expected, attr.Value.Any())
	}
}

func TestGCPSeverityMapping(t *testing.T) {
	assert.Equal(t, "DEBUG", gcpSeverityMapping(slog.LevelDebug))
	assert.Equal(t, "INFO", gcpSeverityMapping(slog.LevelInfo))
	assert.Equal(t, "ERROR", gcpSeverityMapping(slog.LevelError))
	assert.Equal(t, "CRITICAL", gcpSeverityMapping(LevelCritical))
	assert.Equal(t, "EMERGENCY", gcpSeverityMapping(LevelFatal))
}
