package detection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/debug"
)

// Status is a point-in-time view of the adapter.
type Status struct {
	Ready    bool   `json:"ready"`
	LoadErr  string `json:"load_error,omitempty"`
	Frames   uint64 `json:"frames"`
	Failures uint64 `json:"failures"`
}

// Adapter owns the runtime lifecycle: one load, then serialized detections
// that never return errors to the caller.
type Adapter struct {
	runtime Runtime
	logger  *slog.Logger

	loadOnce sync.Once
	errMu    sync.RWMutex
	loadErr  error
	ready    atomic.Bool

	detectMu sync.Mutex // one in-flight Detect at a time
	frames   atomic.Uint64
	failures atomic.Uint64
}

// NewAdapter wraps a runtime.
func NewAdapter(rt Runtime) *Adapter {
	return &Adapter{
		runtime: rt,
		logger:  log.Component("detection"),
	}
}

// Load initializes the runtime exactly once. Concurrent callers wait for the
// first load to finish. The outcome is remembered; a failed load is not retried.
func (a *Adapter) Load(ctx context.Context) error {
	a.loadOnce.Do(func() {
		a.logger.Info("loading detection runtime")
		if err := a.loadRuntime(ctx); err != nil {
			a.errMu.Lock()
			a.loadErr = fmt.Errorf("load detection runtime: %w", err)
			a.errMu.Unlock()
			a.logger.Error("detection runtime failed to load", "error", err)
			return
		}
		a.ready.Store(true)
		a.logger.Info("detection runtime ready")
	})
	return a.LoadErr()
}

func (a *Adapter) loadRuntime(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime panicked: %v", r)
		}
	}()
	return a.runtime.Load(ctx)
}

// LoadErr returns the remembered load failure, if any.
func (a *Adapter) LoadErr() error {
	a.errMu.RLock()
	defer a.errMu.RUnlock()
	return a.loadErr
}

// Ready reports whether Load completed successfully.
func (a *Adapter) Ready() bool {
	return a.ready.Load()
}

// DetectFrame runs detection on one frame. ok is false when the runtime is
// not ready or failed on this frame; failures are logged, never returned.
// A successful call may return an empty slice (no faces).
func (a *Adapter) DetectFrame(ctx context.Context, frame Frame) (results []Result, ok bool) {
	if !a.Ready() {
		return nil, false
	}

	a.detectMu.Lock()
	defer a.detectMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.failures.Add(1)
			a.logger.Error("detector panicked", "panic", r)
			results, ok = nil, false
		}
	}()

	dets, err := a.runtime.Detect(ctx, frame)
	a.frames.Add(1)
	if err != nil {
		a.failures.Add(1)
		a.logger.Warn("frame detection failed", "error", err)
		return nil, false
	}

	debug.FrameLog("👁️  %d face(s) detected\n", len(dets))
	return dets, true
}

// Status returns readiness and counters.
func (a *Adapter) Status() Status {
	st := Status{
		Ready:    a.Ready(),
		Frames:   a.frames.Load(),
		Failures: a.failures.Load(),
	}
	if err := a.LoadErr(); err != nil {
		st.LoadErr = err.Error()
	}
	return st
}

// Close releases the runtime.
func (a *Adapter) Close() error {
	a.detectMu.Lock()
	defer a.detectMu.Unlock()
	a.ready.Store(false)
	return a.runtime.Close()
}
