// Package pomodoro provides the work/break countdown that drives session
// phases. When a phase runs out the timer flips to the other phase, notifies
// listeners and stops until started again.
package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/session"
)

// Default phase lengths.
const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

// Messages shown when a phase ends.
const (
	MessageBreak = "Time for a break!"
	MessageWork  = "Back to work!"
)

// Config holds phase lengths.
type Config struct {
	Work      time.Duration `yaml:"work" json:"work"`
	Break     time.Duration `yaml:"break" json:"break"`
	AutoStart bool          `yaml:"auto_start" json:"auto_start"` // keep running across phase flips
}

// DefaultConfig returns a classic 25/5 cycle that pauses at each flip.
func DefaultConfig() Config {
	return Config{
		Work:  DefaultWork,
		Break: DefaultBreak,
	}
}

// Validate checks both phases have a positive length.
func (c Config) Validate() error {
	if c.Work <= 0 {
		return fmt.Errorf("pomodoro: work duration %v must be positive", c.Work)
	}
	if c.Break <= 0 {
		return fmt.Errorf("pomodoro: break duration %v must be positive", c.Break)
	}
	return nil
}

// PhaseFunc is called after the phase changes, outside the timer lock.
type PhaseFunc func(p session.Phase, message string)

// Status is a point-in-time view of the timer.
type Status struct {
	Phase     session.Phase `json:"phase"`
	Running   bool          `json:"running"`
	Remaining time.Duration `json:"remaining"`
	Cycles    int           `json:"cycles"` // completed work phases
	Message   string        `json:"message,omitempty"`
}

// Clock returns the current time.
type Clock func() time.Time

// Timer is a pausable two-phase countdown.
type Timer struct {
	cfg    Config
	now    Clock
	logger *slog.Logger

	mu        sync.Mutex
	phase     session.Phase
	running   bool
	endsAt    time.Time     // valid while running
	remaining time.Duration // valid while paused
	cycles    int
	message   string
	listeners []PhaseFunc
}

// New creates a stopped timer at the start of a work phase.
func New(cfg Config, clock Clock) *Timer {
	if cfg.Work <= 0 {
		cfg.Work = DefaultWork
	}
	if cfg.Break <= 0 {
		cfg.Break = DefaultBreak
	}
	if clock == nil {
		clock = time.Now
	}
	return &Timer{
		cfg:       cfg,
		now:       clock,
		logger:    log.Component("pomodoro"),
		phase:     session.Work,
		remaining: cfg.Work,
	}
}

// OnPhaseChange registers a listener for phase flips and resets.
func (t *Timer) OnPhaseChange(fn PhaseFunc) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Start resumes the countdown. No-op when already running.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.endsAt = t.now().Add(t.remaining)
	t.message = ""
	t.logger.Info("timer started", "phase", t.phase, "remaining", t.remaining.Round(time.Second))
}

// Pause freezes the countdown. No-op when already paused.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.remaining = t.remainingLocked(t.now())
	t.running = false
	t.logger.Info("timer paused", "phase", t.phase, "remaining", t.remaining.Round(time.Second))
}

// Toggle starts a paused timer or pauses a running one.
func (t *Timer) Toggle() {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	if running {
		t.Pause()
	} else {
		t.Start()
	}
}

// Reset stops the timer and returns to a full work phase. Listeners are
// notified when this moves the timer out of a break.
func (t *Timer) Reset() {
	t.mu.Lock()
	wasBreak := t.phase == session.Break
	t.phase = session.Work
	t.running = false
	t.remaining = t.cfg.Work
	t.cycles = 0
	t.message = ""
	listeners := append([]PhaseFunc(nil), t.listeners...)
	t.mu.Unlock()

	t.logger.Info("timer reset")
	if wasBreak {
		notify(listeners, session.Work, "")
	}
}

// Tick advances the timer to now, flipping the phase if it ran out.
// It reports whether a flip happened.
func (t *Timer) Tick(now time.Time) bool {
	t.mu.Lock()
	if !t.running || now.Before(t.endsAt) {
		t.mu.Unlock()
		return false
	}

	var next session.Phase
	var msg string
	if t.phase == session.Work {
		next, msg = session.Break, MessageBreak
		t.cycles++
	} else {
		next, msg = session.Work, MessageWork
	}

	t.phase = next
	t.message = msg
	t.remaining = t.durationLocked(next)
	t.running = t.cfg.AutoStart
	if t.running {
		t.endsAt = now.Add(t.remaining)
	}
	listeners := append([]PhaseFunc(nil), t.listeners...)
	t.mu.Unlock()

	t.logger.Info("phase finished", "next", next, "message", msg)
	notify(listeners, next, msg)
	return true
}

// Run ticks once a second until ctx is cancelled.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(t.now())
		}
	}
}

// Status returns the current timer state.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Phase:     t.phase,
		Running:   t.running,
		Remaining: t.remainingLocked(t.now()),
		Cycles:    t.cycles,
		Message:   t.message,
	}
}

// Countdown formats remaining time as MM:SS.
func (s Status) Countdown() string {
	secs := int(s.Remaining.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (t *Timer) remainingLocked(now time.Time) time.Duration {
	if !t.running {
		return t.remaining
	}
	if d := t.endsAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (t *Timer) durationLocked(p session.Phase) time.Duration {
	if p == session.Break {
		return t.cfg.Break
	}
	return t.cfg.Work
}

func notify(listeners []PhaseFunc, p session.Phase, msg string) {
	for _, fn := range listeners {
		fn(p, msg)
	}
}
