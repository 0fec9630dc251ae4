package logger_test

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/datakit-io/datakit/logger"
	"github.com/stretchr/testify/assert"
)

func resetLogger() {
	logger.SetOutput(os.Stderr, slog.LevelInfo)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected slog.Level
		ok       bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"trace", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := logger.ParseLevel(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	logger.SetOutput(&buf, slog.LevelInfo)

	logger.Debug("hidden message", "key", "value")
	logger.Info("visible message", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "key=value")
}

func TestDebugOutput(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	logger.SetOutput(&buf, slog.LevelDebug)

	logger.Debug("exists check failed", "path", "raw/report.csv")

	assert.Contains(t, buf.String(), "exists check failed")
	assert.Contains(t, buf.String(), "raw/report.csv")
}

func TestWith(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	logger.SetOutput(&buf, slog.LevelInfo)

	log := logger.With("backend", "local")
	log.Info("write complete", "path", "processed/out.csv")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "backend=local")
	assert.Contains(t, lines[0], "write complete")
}
