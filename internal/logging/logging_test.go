package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}

	assert.True(t, ValidLevel(" Warn "))
	assert.False(t, ValidLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, FormatJSON, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("skipping schema", slog.String("owner", "get-pets"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "skipping schema", rec["msg"])
	assert.Equal(t, "get-pets", rec["owner"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, "text", slog.LevelDebug).Debug("scoring", slog.Int("candidates", 3))

	assert.Contains(t, buf.String(), "candidates=3")
}
