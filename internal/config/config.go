// Package config assembles focus-booster settings from defaults, an
// optional YAML file, a .env file and FOCUS_* environment variables.
// Flag parsing is done in cmd/focusbooster; this package is data only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/focus-booster/pkg/camera"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/history"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
	"github.com/teslashibe/focus-booster/pkg/web"
)

// Detector backends.
const (
	DetectorOpenCV = "opencv"
	DetectorMock   = "mock"
)

// Config holds all configuration for the focus-booster service.
type Config struct {
	Server   web.Config     `yaml:"server" json:"server"`
	Camera   camera.Config  `yaml:"camera" json:"camera"`
	Detector DetectorConfig `yaml:"detector" json:"detector"`
	Session  session.Config `yaml:"session" json:"session"`
	Pomodoro PomodoroConfig `yaml:"pomodoro" json:"pomodoro"`
	History  history.Config `yaml:"history" json:"history"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// DetectorConfig selects the detection runtime.
type DetectorConfig struct {
	Backend string           `yaml:"backend" json:"backend"` // "opencv" or "mock"
	Models  detection.Config `yaml:",inline" json:"models"`
}

// PomodoroConfig controls the built-in timer.
type PomodoroConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	pomodoro.Config `yaml:",inline"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Debug  bool   `yaml:"debug" json:"debug"`   // one-off console traces
	Frames bool   `yaml:"frames" json:"frames"` // per-frame console traces
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: web.DefaultConfig(),
		Camera: camera.DefaultConfig(),
		Detector: DetectorConfig{
			Backend: DetectorOpenCV,
			Models:  detection.DefaultConfig(),
		},
		Session: session.DefaultConfig(),
		Pomodoro: PomodoroConfig{
			Enabled: true,
			Config:  pomodoro.DefaultConfig(),
		},
		History: history.DefaultConfig(),
		Log:     LogConfig{Level: "info"},
	}
}

// Load returns defaults overlaid with the YAML file at path. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "server.addr", Message: "listen address is required"}
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "camera", Message: strings.Join(errs, "; ")}
	}

	switch c.Detector.Backend {
	case DetectorOpenCV:
		if c.Detector.Models.FaceModel == "" {
			return &ConfigError{Field: "detector.face_model", Message: "face model path is required for the opencv detector"}
		}
	case DetectorMock:
	default:
		return &ConfigError{Field: "detector.backend", Message: fmt.Sprintf("unknown detector %q (want opencv or mock)", c.Detector.Backend)}
	}

	if c.Session.Interval <= 0 {
		return &ConfigError{Field: "session.interval", Message: "detection interval must be positive"}
	}
	if err := c.Session.Focus.Validate(); err != nil {
		return &ConfigError{Field: "session.focus.ear_threshold", Message: err.Error()}
	}
	if c.Session.Alert.Cooldown <= 0 {
		return &ConfigError{Field: "session.alert.cooldown", Message: "alert cooldown must be positive"}
	}
	if c.Session.Emotion.Bound < 0 {
		return &ConfigError{Field: "session.emotion.bound", Message: "emotion history bound must not be negative"}
	}

	if c.Pomodoro.Enabled {
		if err := c.Pomodoro.Config.Validate(); err != nil {
			return &ConfigError{Field: "pomodoro", Message: err.Error()}
		}
	}

	switch c.History.Backend {
	case history.BackendJSON, history.BackendSQLite, history.BackendNone:
	case history.BackendPostgres:
		if c.History.DSN == "" {
			return &ConfigError{Field: "history.dsn", Message: "connection string is required for the postgres backend"}
		}
	default:
		return &ConfigError{Field: "history.backend", Message: fmt.Sprintf("unknown history backend %q", c.History.Backend)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
