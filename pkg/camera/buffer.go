package camera

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/focus-booster/pkg/detection"
)

// Buffer keeps the most recent frame pushed by a remote client. It is the
// frame source when the browser owns the camera.
type Buffer struct {
	now func() time.Time

	mu       sync.RWMutex
	maxAge   time.Duration
	frame    detection.Frame
	received time.Time
	pushed   uint64
}

// NewBuffer creates a buffer whose frames expire after maxAge (0 = never).
func NewBuffer(maxAge time.Duration) *Buffer {
	return &Buffer{maxAge: maxAge, now: time.Now}
}

// SetMaxAge changes the staleness window (0 = never).
func (b *Buffer) SetMaxAge(d time.Duration) {
	b.mu.Lock()
	b.maxAge = d
	b.mu.Unlock()
}

// Apply takes the staleness window from cfg. It matches
// Manager.OnConfigChange.
func (b *Buffer) Apply(cfg Config) error {
	b.SetMaxAge(cfg.MaxFrameAge())
	return nil
}

// Push stores a copy of an encoded frame, replacing the previous one.
func (b *Buffer) Push(frame []byte) {
	if len(frame) == 0 {
		return
	}
	cp := make(detection.Frame, len(frame))
	copy(cp, frame)

	b.mu.Lock()
	b.frame = cp
	b.received = b.now()
	b.pushed++
	b.mu.Unlock()
}

// CurrentFrame returns the newest frame.
func (b *Buffer) CurrentFrame(ctx context.Context) (detection.Frame, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.frame == nil {
		return nil, ErrNoFrame
	}
	if b.maxAge > 0 && b.now().Sub(b.received) > b.maxAge {
		return nil, ErrStaleFrame
	}
	return b.frame, nil
}

// Pushed returns how many frames have been received.
func (b *Buffer) Pushed() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pushed
}
