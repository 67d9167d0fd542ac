package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := Config{Path: t.TempDir()}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "24h", cfg.RotationTime)
	assert.Equal(t, "168h", cfg.MaxAge)
	assert.Equal(t, DefaultPattern, cfg.DefaultPattern)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}

func TestConfig_ValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing path", Config{}},
		{"bad rotation", Config{Path: "x", RotationTime: "daily"}},
		{"bad level", Config{Path: "x", Level: "trace"}},
		{"bad format", Config{Path: "x", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	console := false

	require.NoError(t, Init(Config{
		Path:           dir,
		DefaultPattern: "test.log",
		Level:          "debug",
		Format:         "json",
		Console:        &console,
	}))
	defer Close()

	Logger("test").Info("hello", "k", "v")

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"module":"test"`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, "warn", "text")

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
