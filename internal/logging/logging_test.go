package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn := newWithStdout(Options{Level: "info", Format: "json"}, &buf)
	defer closeFn()

	logger.Info("post created", slog.Int64("id", 7))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "post created", line["msg"])
	assert.Equal(t, float64(7), line["id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn := newWithStdout(Options{Level: "warn"}, &buf)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_FileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "faceless.log")

	logger, closeFn := newWithStdout(Options{Path: path}, &buf)
	logger.Info("to both sinks")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to both sinks"))
	assert.Contains(t, buf.String(), "to both sinks")
}
