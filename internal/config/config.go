// Package config loads treelight settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. Every field maps to a TREELIGHT_*
// environment variable.
type Config struct {
	Addr      string `env:"TREELIGHT_ADDR" envDefault:":8080"`
	DataDir   string `env:"TREELIGHT_DATA_DIR"`
	StaticDir string `env:"TREELIGHT_STATIC_DIR"`

	CameraID     int `env:"TREELIGHT_CAMERA_ID" envDefault:"0"`
	DetectFPS    int `env:"TREELIGHT_DETECT_FPS" envDefault:"15"`
	RenderFPS    int `env:"TREELIGHT_RENDER_FPS" envDefault:"60"`
	BroadcastFPS int `env:"TREELIGHT_BROADCAST_FPS" envDefault:"30"`

	MotionGate      bool    `env:"TREELIGHT_MOTION_GATE" envDefault:"false"`
	MotionThreshold float64 `env:"TREELIGHT_MOTION_THRESHOLD" envDefault:"1.0"`

	// Seed fixes the particle layout. Zero means load or create one in the store.
	Seed uint64 `env:"TREELIGHT_SEED" envDefault:"0"`

	LogLevel string `env:"TREELIGHT_LOG_LEVEL" envDefault:"info"`
	Tray     bool   `env:"TREELIGHT_TRAY" envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".treelight")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("TREELIGHT_ADDR is empty"))
	}
	if c.CameraID < 0 {
		errs = append(errs, fmt.Errorf("TREELIGHT_CAMERA_ID must be >= 0, got %d", c.CameraID))
	}
	for name, fps := range map[string]int{
		"TREELIGHT_DETECT_FPS":    c.DetectFPS,
		"TREELIGHT_RENDER_FPS":    c.RenderFPS,
		"TREELIGHT_BROADCAST_FPS": c.BroadcastFPS,
	} {
		if fps < 1 || fps > 240 {
			errs = append(errs, fmt.Errorf("%s must be in [1, 240], got %d", name, fps))
		}
	}
	if c.MotionThreshold <= 0 || c.MotionThreshold > 100 {
		errs = append(errs, fmt.Errorf("TREELIGHT_MOTION_THRESHOLD must be in (0, 100], got %g", c.MotionThreshold))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DBPath is the SQLite database inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "treelight.db")
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("TREELIGHT_LOG_LEVEL: unknown level %q", s)
}
