// Package alert rate-limits user-visible notifications.
//
// The throttle is a two-state machine: Idle, and Active until an explicit
// expiry timestamp. Requests made while Active are dropped, not queued.
package alert

import (
	"sync"
	"time"
)

// DefaultCooldown is how long an alert stays visible and blocks new ones.
const DefaultCooldown = 5 * time.Second

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// Alert is the visible notification.
type Alert struct {
	Message     string    `json:"message"`
	ActiveUntil time.Time `json:"active_until"`
}

// Stats counts throttle decisions.
type Stats struct {
	Raised     uint64 `json:"raised"`
	Suppressed uint64 `json:"suppressed"`
}

// Config holds throttle tuning.
type Config struct {
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`
}

// DefaultConfig returns a five second cooldown.
func DefaultConfig() Config {
	return Config{Cooldown: DefaultCooldown}
}

// Throttle holds at most one active alert.
type Throttle struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      Clock
	active   *Alert
	stats    Stats
}

// NewThrottle creates a throttle. A nil clock uses time.Now.
func NewThrottle(cfg Config, clock Clock) *Throttle {
	if clock == nil {
		clock = time.Now
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Throttle{
		cooldown: cooldown,
		now:      clock,
	}
}

// expire moves to Idle once the cooldown has elapsed. Caller holds mu.
func (t *Throttle) expire(now time.Time) {
	if t.active != nil && !now.Before(t.active.ActiveUntil) {
		t.active = nil
	}
}

// Request raises an alert unless one is already active.
// Returns false when the request was suppressed.
func (t *Throttle) Request(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.expire(now)

	if t.active != nil {
		t.stats.Suppressed++
		return false
	}

	t.active = &Alert{
		Message:     message,
		ActiveUntil: now.Add(t.cooldown),
	}
	t.stats.Raised++
	return true
}

// Current returns the active alert, if any.
func (t *Throttle) Current() (Alert, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expire(t.now())
	if t.active == nil {
		return Alert{}, false
	}
	return *t.active, true
}

// Message returns the visible message, or "" when Idle.
func (t *Throttle) Message() string {
	a, _ := t.Current()
	return a.Message
}

// Active reports whether an alert is visible.
func (t *Throttle) Active() bool {
	_, ok := t.Current()
	return ok
}

// Clear returns to Idle immediately.
func (t *Throttle) Clear() {
	t.mu.Lock()
	t.active = nil
	t.mu.Unlock()
}

// Stats returns the decision counters.
func (t *Throttle) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// ResetStats zeroes the decision counters.
func (t *Throttle) ResetStats() {
	t.mu.Lock()
	t.stats = Stats{}
	t.mu.Unlock()
}
