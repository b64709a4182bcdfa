// Package focus turns one frame's detections into a focus verdict.
package focus

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/debug"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/geometry"
)

// DefaultThreshold is the eye aspect ratio below which eyes count as closed.
const DefaultThreshold = 0.25

// State is the user's attentiveness.
type State int

const (
	Focused State = iota
	NotFocused
)

func (s State) String() string {
	if s == Focused {
		return "focused"
	}
	return "not_focused"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "focused":
		*s = Focused
	case "not_focused":
		*s = NotFocused
	default:
		return fmt.Errorf("focus: unknown state %q", b)
	}
	return nil
}

// Kind classifies the evidence a frame provided.
type Kind int

const (
	// Inconclusive frames carry no usable evidence and never change state.
	Inconclusive Kind = iota
	EvidenceFocused
	EvidenceNotFocused
)

// Reason explains a NotFocused verdict; it doubles as the alert text.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNoFace     Reason = "No face detected! Stay alert!"
	ReasonEyesClosed Reason = "Your eyes look tired. Take a quick break!"
)

// Verdict is the classifier output for one frame.
type Verdict struct {
	Kind   Kind
	Reason Reason
	EAR    float64 // average eye aspect ratio; 0 when not measured
}

// Alert reports whether the verdict requests a user alert.
func (v Verdict) Alert() bool {
	return v.Reason != ReasonNone
}

// Config holds classifier tuning.
type Config struct {
	Threshold float64 `yaml:"ear_threshold" json:"ear_threshold"`
}

// DefaultConfig returns the default EAR threshold.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Validate checks the threshold is a usable ratio.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("focus: ear threshold %v must be in (0, 1)", c.Threshold)
	}
	return nil
}

// Classifier maps detections to verdicts.
type Classifier struct {
	threshold float64
	logger    *slog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		threshold: cfg.Threshold,
		logger:    log.Component("focus"),
	}
}

// Threshold returns the configured EAR threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify inspects the primary face of a frame.
func (c *Classifier) Classify(dets []detection.Result) Verdict {
	face := detection.SelectPrimary(dets)
	if face == nil {
		return Verdict{Kind: EvidenceNotFocused, Reason: ReasonNoFace}
	}

	if !face.HasEyes() {
		c.logger.Debug("eye landmarks missing or malformed",
			"left", len(face.LeftEye), "right", len(face.RightEye))
		return Verdict{Kind: Inconclusive}
	}

	ear, ok := geometry.AverageRatio(face.LeftEye, face.RightEye)
	if !ok {
		c.logger.Debug("eye contour rejected", "error", geometry.ErrDegenerateContour)
		return Verdict{Kind: Inconclusive}
	}

	debug.FrameLog("👀 EAR=%.3f (threshold %.3f)\n", ear, c.threshold)

	if ear < c.threshold {
		return Verdict{Kind: EvidenceNotFocused, Reason: ReasonEyesClosed, EAR: ear}
	}
	return Verdict{Kind: EvidenceFocused, EAR: ear}
}

// Apply returns the state after a verdict and whether it changed.
// Inconclusive verdicts keep the current state.
func Apply(current State, v Verdict) (next State, changed bool) {
	switch v.Kind {
	case EvidenceFocused:
		next = Focused
	case EvidenceNotFocused:
		next = NotFocused
	default:
		return current, false
	}
	return next, next != current
}
