package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FOCUS_"

// LoadEnvConfig applies FOCUS_* environment overrides. Call it after Load
// and LoadDotEnv, before flags are applied.
func (c *Config) LoadEnvConfig() error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	str("ADDR", &c.Server.Addr)
	str("STATIC_DIR", &c.Server.StaticDir)
	str("CAMERA_SOURCE", &c.Camera.Source)
	str("CAMERA_DEVICE", &c.Camera.Device)
	str("DETECTOR", &c.Detector.Backend)
	str("FACE_MODEL", &c.Detector.Models.FaceModel)
	str("LANDMARK_MODEL", &c.Detector.Models.LandmarkModel)
	str("EXPRESSION_MODEL", &c.Detector.Models.ExpressionModel)
	str("HISTORY_BACKEND", &c.History.Backend)
	str("HISTORY_PATH", &c.History.Path)
	str("HISTORY_DSN", &c.History.DSN)
	str("LOG_LEVEL", &c.Log.Level)

	if err := envFloat("EAR_THRESHOLD", &c.Session.Focus.Threshold); err != nil {
		return err
	}
	if err := envDuration("INTERVAL", &c.Session.Interval); err != nil {
		return err
	}
	if err := envDuration("ALERT_COOLDOWN", &c.Session.Alert.Cooldown); err != nil {
		return err
	}
	if err := envInt("EMOTION_BOUND", &c.Session.Emotion.Bound); err != nil {
		return err
	}
	if err := envDuration("WORK", &c.Pomodoro.Work); err != nil {
		return err
	}
	if err := envDuration("BREAK", &c.Pomodoro.Break); err != nil {
		return err
	}
	if err := envBool("POMODORO", &c.Pomodoro.Enabled); err != nil {
		return err
	}
	if err := envBool("DEBUG", &c.Log.Debug); err != nil {
		return err
	}
	return envBool("DEBUG_FRAMES", &c.Log.Frames)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	return v, ok && v != ""
}

func envError(name, v string, err error) error {
	return &ConfigError{Field: EnvPrefix + name, Message: fmt.Sprintf("invalid value %q: %v", v, err)}
}

func envFloat(name string, dst *float64) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = f
	return nil
}

func envInt(name string, dst *int) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = b
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = d
	return nil
}
