package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/focus-booster/internal/config"
	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/history"
)

func TestOptionsApply(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := &options{
		addr:       "0.0.0.0:9000",
		detector:   config.DetectorMock,
		ear:        0.3,
		interval:   time.Second,
		noPomodoro: true,
		debug:      true,
	}
	opts.apply(&cfg)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, config.DetectorMock, cfg.Detector.Backend)
	assert.Equal(t, 0.3, cfg.Session.Focus.Threshold)
	assert.Equal(t, time.Second, cfg.Session.Interval)
	assert.False(t, cfg.Pomodoro.Enabled)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Zero values keep what was loaded.
	def := config.DefaultConfig()
	(&options{}).apply(&def)
	assert.Equal(t, config.DefaultConfig(), def)
}

func TestPrintSessions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSessions(&buf, nil))
	assert.Contains(t, buf.String(), "no sessions")

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	buf.Reset()
	require.NoError(t, printSessions(&buf, []*history.Record{{
		StartedAt:       start,
		EndedAt:         start.Add(25 * time.Minute),
		FocusedDuration: 20 * time.Minute,
		AlertsRaised:    3,
		DominantEmotion: emotion.Happy,
	}}))

	out := buf.String()
	for _, want := range []string{"STARTED", "2024-03-01 09:00", "25m0s", "80%", "happy"} {
		assert.Contains(t, out, want)
	}
}

func TestSessionsCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FOCUS_HISTORY_PATH", filepath.Join(dir, "sessions.json"))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sessions", "--env", filepath.Join(dir, "missing.env"), "--history", history.BackendJSON})

	require.NoError(t, root.Execute())
	assert.True(t, strings.Contains(out.String(), "no sessions"), out.String())
}

func TestConfigCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--env", filepath.Join(t.TempDir(), "missing.env"), "--history", "none"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "backend: none")
}
