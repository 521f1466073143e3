package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"off", LogLevelOff},
		{"none", LogLevelOff},
		{"error", LogLevelError},
		{"warning", LogLevelWarn},
		{"Info", LogLevelInfo},
		{"DEBUG", LogLevelDebug},
		{" debug ", LogLevelDebug},
		{"unknown", LogLevelError},
		{"", LogLevelError},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ParseLogLevel(tc.input))
		})
	}
}

func TestLogLevelString(t *testing.T) {
	t.Parallel()
	for _, l := range []LogLevel{LogLevelOff, LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug} {
		assert.Equal(t, l, ParseLogLevel(l.String()))
	}
	assert.Equal(t, "error", LogLevel(42).String())
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestWriterLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriterLogger(LogLevelWarn, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("visible %d", 3)
	logger.Error("visible %d", 4)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "visible 3", lines[0]["message"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Contains(t, lines[1], "time")
	assert.Equal(t, LogLevelWarn, logger.Level())
}

func TestWriterLogger_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriterLogger(LogLevelDebug, &buf)

	logger.With("network", "polygon").Info("switched")
	logger.Info("plain")

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "polygon", lines[0]["network"])
	assert.NotContains(t, lines[1], "network")
}

func TestWriterLogger_Zerolog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriterLogger(LogLevelDebug, &buf)

	logger.Zerolog().Debug().Str("network", "polygon").Msg("switched")
	assert.Contains(t, buf.String(), `"network":"polygon"`)
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "swapdesk.log")
	logger, err := NewLogger(LogLevelDebug, path)
	require.NoError(t, err)

	logger.Debug("written to %s", "file")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Equal(t, path, logger.Path())
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	logger := NullLogger()
	assert.Equal(t, LogLevelOff, logger.Level())
	logger.Debug("ignored")
	logger.Error("ignored")
	logger.Zerolog().Error().Msg("ignored")
	require.NoError(t, logger.Close())

	off, err := NewLogger(LogLevelOff, "/nonexistent/dir/log")
	require.NoError(t, err)
	assert.Empty(t, off.Path())
}
