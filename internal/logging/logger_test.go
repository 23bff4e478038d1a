package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tandem.log")

	logger, closeFn, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)
	logger.Debug("routing task", "task_id", "abc")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "routing task")
	assert.Contains(t, string(data), "task_id=abc")
}

func TestNew_InvalidPath(t *testing.T) {
	_, _, err := New(Options{File: "/proc/nonexistent/tandem.log"})
	assert.Error(t, err)
}

func TestNewWithLevel_JSONAndLevelChange(t *testing.T) {
	var buf bytes.Buffer
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)
	logger := NewWithLevel(&buf, "json", level)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelInfo)
	logger.Info("shown")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
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
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := slog.Default()
	assert.Same(t, l, OrNop(l))
}

func TestNew_UsesCallerLevelVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tandem.log")
	level := &slog.LevelVar{}

	logger, closeFn, err := New(Options{Level: "error", File: path, LevelVar: level})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level.Level())

	logger.Info("before")
	level.Set(slog.LevelInfo)
	logger.Info("after")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "before")
	assert.Contains(t, string(data), "after")
}
