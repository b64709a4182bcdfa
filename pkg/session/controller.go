package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/alert"
	"github.com/teslashibe/focus-booster/pkg/debug"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/focus"
	"github.com/teslashibe/focus-booster/pkg/history"
)

// Option configures a Controller.
type Option func(*Controller)

// WithObserver sets the snapshot observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithRecorder sets where completed work sessions are saved.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithClock overrides time.Now for analytics and alert expiry.
func WithClock(clock alert.Clock) Option {
	return func(c *Controller) { c.now = clock }
}

// WithPhase sets the phase the controller starts in (default Work).
func WithPhase(p Phase) Option {
	return func(c *Controller) { c.phase = p }
}

// Controller owns all per-session state and the detection schedule.
// State is guarded by mu; detection itself runs without holding it.
type Controller struct {
	cfg      Config
	detector Detector
	frames   FrameSource
	observer Observer
	recorder Recorder
	now      alert.Clock
	logger   *slog.Logger

	classifier *focus.Classifier
	emotions   *emotion.Aggregator
	alerts     *alert.Throttle

	running atomic.Bool

	mu sync.Mutex

	// epoch increments on every phase change so detections that started
	// in an earlier phase are discarded.
	epoch      uint64
	phase      Phase
	state      focus.State
	lastEAR    float64
	lastAlert  string // alert message in the last published snapshot
	seq        uint64 // sequence of the last snapshot handed to publish
	summary    *emotion.Summary
	started    time.Time
	focusedFor time.Duration
	focusMark  time.Time
	frameCount int
	lostFocus  int

	// pubMu orders delivery to the observer. Snapshots built under mu are
	// published after it is released, so a slower publisher must not
	// overwrite a newer snapshot with an older one.
	pubMu     sync.Mutex
	published uint64
}

// New creates a controller. The detector and frame source are required.
func New(cfg Config, detector Detector, frames FrameSource, opts ...Option) (*Controller, error) {
	if detector == nil {
		return nil, ErrNoDetector
	}
	if frames == nil {
		return nil, ErrNoFrameSource
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Focus.Threshold == 0 {
		cfg.Focus = focus.DefaultConfig()
	}

	c := &Controller{
		cfg:      cfg,
		detector: detector,
		frames:   frames,
		now:      time.Now,
		logger:   log.Component("session"),
		phase:    Work,
		state:    focus.Focused,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.classifier = focus.NewClassifier(cfg.Focus)
	c.emotions = emotion.NewAggregator(cfg.Emotion)
	c.alerts = alert.NewThrottle(cfg.Alert, c.now)

	now := c.now()
	c.started = now
	c.focusMark = now
	return c, nil
}

// Handle controls a running loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop halts the schedule and waits for the loop to exit. Any detection in
// flight is abandoned and its result discarded. Safe to call repeatedly.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed when the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start launches the detection loop. It runs until Stop or ctx cancellation.
func (c *Controller) Start(ctx context.Context) (*Handle, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer c.running.Store(false)
		c.run(loopCtx)
	}()

	c.logger.Info("detection loop started", "interval", c.cfg.Interval,
		"ear_threshold", c.classifier.Threshold())
	return h, nil
}

// Running reports whether the loop is active.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// run is a fixed-delay schedule: the next tick is armed only after the
// previous one has finished, so detections never overlap.
func (c *Controller) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("detection loop stopped")
			return
		case <-timer.C:
			c.tick(ctx)
			timer.Reset(c.cfg.Interval)
		}
	}
}

// tick performs one sampling step.
func (c *Controller) tick(ctx context.Context) {
	c.mu.Lock()
	phase, epoch := c.phase, c.epoch
	c.mu.Unlock()

	if phase != Work || !c.detector.Ready() {
		c.refreshAlert()
		return
	}

	frame, err := c.frames.CurrentFrame(ctx)
	if err != nil {
		debug.FrameLog("📷 skipping tick: %v\n", err)
		c.refreshAlert()
		return
	}

	dets, ok := c.detector.DetectFrame(ctx, frame)
	if ctx.Err() != nil {
		// Stopped while detecting.
		return
	}
	if !ok {
		c.refreshAlert()
		return
	}

	c.apply(epoch, dets)
}

// apply folds one frame's detections into session state.
func (c *Controller) apply(epoch uint64, dets []detection.Result) {
	c.mu.Lock()
	if c.epoch != epoch || c.phase != Work {
		c.mu.Unlock()
		return
	}

	now := c.now()
	c.accrueLocked(now)
	c.frameCount++

	v := c.classifier.Classify(dets)
	if v.Kind != focus.Inconclusive {
		c.lastEAR = v.EAR
	}
	if next, changed := focus.Apply(c.state, v); changed {
		c.state = next
		if next == focus.NotFocused {
			c.lostFocus++
		}
		c.logger.Info("focus state changed", "state", next, "reason", string(v.Reason), "ear", v.EAR)
	}

	if v.Alert() && c.alerts.Request(string(v.Reason)) {
		c.logger.Info("alert raised", "message", string(v.Reason))
	}

	if face := detection.SelectPrimary(dets); face != nil {
		if l, ok := c.emotions.Observe(face.Expressions); ok {
			debug.FrameLog("🙂 frame emotion: %s\n", l)
		}
	}

	seq, snap := c.nextSnapshotLocked(now)
	c.mu.Unlock()

	c.publish(seq, snap)
}

// refreshAlert publishes a snapshot when an alert expired since the last one.
func (c *Controller) refreshAlert() {
	c.mu.Lock()
	if c.alerts.Message() == c.lastAlert {
		c.mu.Unlock()
		return
	}
	seq, snap := c.nextSnapshotLocked(c.now())
	c.mu.Unlock()

	c.publish(seq, snap)
}

// SetPhase applies a phase change from the timer. Work→Break summarizes the
// session, resets focus to Focused, clears any alert and records the
// session. Break→Work starts a fresh session.
func (c *Controller) SetPhase(ctx context.Context, p Phase) {
	c.mu.Lock()
	prev := c.phase
	if p == prev {
		c.mu.Unlock()
		return
	}

	now := c.now()
	c.accrueLocked(now)
	c.phase = p
	c.epoch++

	var rec *history.Record
	switch p {
	case Break:
		sum := c.emotions.Summarize()
		rec = c.recordLocked(now, sum)
		c.summary = &sum
		c.state = focus.Focused
		c.alerts.Clear()
		c.logger.Info("work session ended",
			"dominant_emotion", string(sum.Dominant),
			"samples", sum.Samples,
			"focused_for", rec.FocusedDuration.Round(time.Second))
	case Work:
		c.resetLocked(now)
		c.logger.Info("work session started")
	}

	seq, snap := c.nextSnapshotLocked(now)
	c.mu.Unlock()

	if rec != nil && c.recorder != nil {
		if err := c.recorder.Save(ctx, rec); err != nil {
			c.logger.Warn("failed to record session", "error", err)
		}
	}
	c.publish(seq, snap)
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(c.now())
}

// accrueLocked adds focused time since the last mark. Caller holds mu.
func (c *Controller) accrueLocked(now time.Time) {
	if c.phase == Work && c.state == focus.Focused && now.After(c.focusMark) {
		c.focusedFor += now.Sub(c.focusMark)
	}
	c.focusMark = now
}

// recordLocked builds the history record for the ending session. Caller holds mu.
func (c *Controller) recordLocked(now time.Time, sum emotion.Summary) *history.Record {
	st := c.alerts.Stats()
	rec := &history.Record{
		StartedAt:        c.started,
		EndedAt:          now,
		FocusedDuration:  c.focusedFor,
		Frames:           c.frameCount,
		NotFocusedEvents: c.lostFocus,
		AlertsRaised:     st.Raised,
		AlertsSuppressed: st.Suppressed,
		DominantEmotion:  sum.Dominant,
		EmotionCounts:    sum.Counts,
	}
	if sum.Suggestion != nil {
		rec.Suggestion = sum.Suggestion.Message
	}
	return rec
}

// resetLocked starts a new work session. Caller holds mu.
func (c *Controller) resetLocked(now time.Time) {
	c.state = focus.Focused
	c.alerts.Clear()
	c.alerts.ResetStats()
	c.emotions.Reset()
	c.started = now
	c.focusMark = now
	c.focusedFor = 0
	c.frameCount = 0
	c.lostFocus = 0
	c.lastEAR = 0
}

// snapshotLocked copies state. Caller holds mu.
func (c *Controller) snapshotLocked(now time.Time) Snapshot {
	focused := c.focusedFor
	if c.phase == Work && c.state == focus.Focused && now.After(c.focusMark) {
		focused += now.Sub(c.focusMark)
	}

	s := Snapshot{
		Phase:          c.phase,
		State:          c.state,
		Focused:        c.state == focus.Focused,
		Emotion:        c.emotions.Last(),
		EAR:            c.lastEAR,
		SessionStarted: c.started,
		FocusedFor:     focused,
		Frames:         c.frameCount,
		DetectorReady:  c.detector.Ready(),
		UpdatedAt:      now,
	}
	if a, ok := c.alerts.Current(); ok {
		s.Alert = a.Message
		until := a.ActiveUntil
		s.AlertUntil = &until
	}
	if c.summary != nil {
		sum := *c.summary
		s.Summary = &sum
	}
	return s
}

// nextSnapshotLocked builds a snapshot destined for the observer and
// stamps it with the next publish sequence. Caller holds mu.
func (c *Controller) nextSnapshotLocked(now time.Time) (uint64, Snapshot) {
	snap := c.snapshotLocked(now)
	c.lastAlert = snap.Alert
	c.seq++
	return c.seq, snap
}

// publish delivers s unless a snapshot built after it was already delivered.
func (c *Controller) publish(seq uint64, s Snapshot) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if seq <= c.published {
		c.logger.Debug("dropping superseded snapshot", "seq", seq, "published", c.published)
		return
	}
	c.published = seq
	if c.observer != nil {
		c.observer.OnSnapshot(s)
	}
}
