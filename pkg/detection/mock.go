package detection

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/geometry"
)

// Mock implements Runtime for testing and camera-less demos.
type Mock struct {
	// LoadFunc is called when Load is invoked.
	LoadFunc func(ctx context.Context) error

	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, frame Frame) ([]Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock that loads instantly and always sees one
// attentive, neutral face.
func NewMock() *Mock {
	return &Mock{
		LoadFunc: func(ctx context.Context) error {
			return nil
		},
		DetectFunc: func(ctx context.Context, frame Frame) ([]Result, error) {
			return []Result{Face(0.3, emotion.Expressions{emotion.Neutral: 0.9, emotion.Happy: 0.1})}, nil
		},
	}
}

// Load calls LoadFunc and records the call.
func (m *Mock) Load(ctx context.Context) error {
	m.record("Load")
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, frame Frame) ([]Result, error) {
	m.record("Detect")
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, frame)
	}
	return nil, nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of calls to a method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Face builds a detection whose eyes both have the given aspect ratio.
func Face(ratio float64, expr emotion.Expressions) Result {
	return Result{
		Box:         Box{X: 0.3, Y: 0.2, W: 0.4, H: 0.5},
		Confidence:  0.95,
		LeftEye:     geometry.SyntheticEye(200, 150, 40, ratio),
		RightEye:    geometry.SyntheticEye(280, 150, 40, ratio),
		Expressions: expr,
	}
}
