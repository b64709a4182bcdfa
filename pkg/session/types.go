// Package session runs the attentiveness loop: it samples frames at a fixed
// cadence during work sessions, classifies focus, aggregates emotions,
// throttles alerts, and summarizes each work session when a break begins.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/focus-booster/pkg/alert"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/focus"
	"github.com/teslashibe/focus-booster/pkg/history"
)

// DefaultInterval is the delay between the end of one detection and the next.
const DefaultInterval = 500 * time.Millisecond

// Phase is the Pomodoro phase supplied by the timer.
type Phase int

const (
	Work Phase = iota
	Break
)

func (p Phase) String() string {
	if p == Work {
		return "work"
	}
	return "break"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(b []byte) error {
	v, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePhase parses "work" or "break".
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "work":
		return Work, nil
	case "break":
		return Break, nil
	}
	return Work, fmt.Errorf("session: unknown phase %q", s)
}

// FrameSource yields the current video frame.
type FrameSource interface {
	CurrentFrame(ctx context.Context) (detection.Frame, error)
}

// Detector is the fail-soft detection adapter the loop drives.
type Detector interface {
	Ready() bool
	DetectFrame(ctx context.Context, frame detection.Frame) ([]detection.Result, bool)
}

// Observer receives a snapshot after every visible state change.
// Calls come from the loop goroutine or SetPhase callers and must not block.
type Observer interface {
	OnSnapshot(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Snapshot)

// OnSnapshot calls f.
func (f ObserverFunc) OnSnapshot(s Snapshot) { f(s) }

// Recorder persists completed work sessions.
type Recorder interface {
	Save(ctx context.Context, r *history.Record) error
}

// Config holds loop tuning.
type Config struct {
	Interval time.Duration  `yaml:"interval" json:"interval"`
	Focus    focus.Config   `yaml:"focus" json:"focus"`
	Alert    alert.Config   `yaml:"alert" json:"alert"`
	Emotion  emotion.Config `yaml:"emotion" json:"emotion"`
}

// DefaultConfig returns the design defaults: 500 ms cadence, EAR 0.25,
// 5 s alert cooldown, 25-sample emotion window.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Focus:    focus.DefaultConfig(),
		Alert:    alert.DefaultConfig(),
		Emotion:  emotion.DefaultConfig(),
	}
}

// Snapshot is a read-only copy of session state for the UI.
type Snapshot struct {
	Phase          Phase            `json:"phase"`
	State          focus.State      `json:"focus_state"`
	Focused        bool             `json:"focused"`
	Alert          string           `json:"alert,omitempty"`
	AlertUntil     *time.Time       `json:"alert_until,omitempty"`
	Emotion        emotion.Label    `json:"emotion,omitempty"`
	EAR            float64          `json:"ear"`
	Summary        *emotion.Summary `json:"summary,omitempty"`
	SessionStarted time.Time        `json:"session_started"`
	FocusedFor     time.Duration    `json:"focused_for"`
	Frames         int              `json:"frames"`
	DetectorReady  bool             `json:"detector_ready"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
