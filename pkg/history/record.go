// Package history persists one summary record per completed work session.
package history

import (
	"context"
	"time"

	"github.com/teslashibe/focus-booster/pkg/emotion"
)

// Record summarizes one work session.
type Record struct {
	ID               string                `json:"id"`
	StartedAt        time.Time             `json:"started_at"`
	EndedAt          time.Time             `json:"ended_at"`
	FocusedDuration  time.Duration         `json:"focused_duration"`
	Frames           int                   `json:"frames"`
	NotFocusedEvents int                   `json:"not_focused_events"`
	AlertsRaised     uint64                `json:"alerts_raised"`
	AlertsSuppressed uint64                `json:"alerts_suppressed"`
	DominantEmotion  emotion.Label         `json:"dominant_emotion,omitempty"`
	Suggestion       string                `json:"suggestion,omitempty"`
	EmotionCounts    map[emotion.Label]int `json:"emotion_counts,omitempty"`
}

// Duration returns the wall-clock length of the session.
func (r *Record) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// FocusRatio returns the focused share of the session in [0,1].
func (r *Record) FocusRatio() float64 {
	d := r.Duration()
	if d <= 0 {
		return 0
	}
	ratio := float64(r.FocusedDuration) / float64(d)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Store defines the interface for session history storage.
type Store interface {
	// Save persists a record, assigning an ID if it has none
	Save(ctx context.Context, r *Record) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id string) (*Record, error)

	// List returns the most recent records first; limit <= 0 returns all
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close releases the store
	Close() error
}
