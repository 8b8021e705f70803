package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := NewLoggerWithWriter("warn", &buf)
	l.Info("hidden")
	l.Warn("shown", "row", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "row=3")
}

func TestLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer

	l := NewLoggerWithWriter("error", &buf)
	child := l.With("run_id", "abc")

	l.SetLevel("debug")
	child.Debug("visible after level change")

	assert.Contains(t, buf.String(), "run_id=abc")
	assert.Contains(t, buf.String(), "visible after level change")
}
