package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15, cfg.DetectFPS)
	assert.Equal(t, 60, cfg.RenderFPS)
	assert.Equal(t, 30, cfg.BroadcastFPS)
	assert.False(t, cfg.MotionGate)
	assert.Equal(t, 1.0, cfg.MotionThreshold)
	assert.Zero(t, cfg.Seed)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, ".treelight", filepath.Base(cfg.DataDir))
	assert.Equal(t, filepath.Join(cfg.DataDir, "treelight.db"), cfg.DBPath())
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TREELIGHT_ADDR", "127.0.0.1:9000")
	t.Setenv("TREELIGHT_DATA_DIR", dir)
	t.Setenv("TREELIGHT_CAMERA_ID", "2")
	t.Setenv("TREELIGHT_RENDER_FPS", "30")
	t.Setenv("TREELIGHT_MOTION_GATE", "true")
	t.Setenv("TREELIGHT_SEED", "12345")
	t.Setenv("TREELIGHT_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 2, cfg.CameraID)
	assert.Equal(t, 30, cfg.RenderFPS)
	assert.True(t, cfg.MotionGate)
	assert.Equal(t, uint64(12345), cfg.Seed)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("TREELIGHT_DETECT_FPS", "fast")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse env:"), err.Error())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Addr: ":8080", DetectFPS: 15, RenderFPS: 60, BroadcastFPS: 30, MotionThreshold: 1, LogLevel: "info"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Addr = "" }, "TREELIGHT_ADDR"},
		{"negative camera", func(c *Config) { c.CameraID = -1 }, "TREELIGHT_CAMERA_ID"},
		{"zero render fps", func(c *Config) { c.RenderFPS = 0 }, "TREELIGHT_RENDER_FPS"},
		{"huge detect fps", func(c *Config) { c.DetectFPS = 1000 }, "TREELIGHT_DETECT_FPS"},
		{"zero threshold", func(c *Config) { c.MotionThreshold = 0 }, "TREELIGHT_MOTION_THRESHOLD"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "TREELIGHT_LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"Info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
