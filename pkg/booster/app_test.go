package booster

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/focus-booster/internal/config"
	"github.com/teslashibe/focus-booster/pkg/camera"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/history"
	"github.com/teslashibe/focus-booster/pkg/session"
)

type stillFrames struct{}

func (stillFrames) CurrentFrame(ctx context.Context) (detection.Frame, error) {
	return detection.Frame("jpeg"), nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Detector.Backend = config.DetectorMock
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.StaticDir = ""
	cfg.History.Path = filepath.Join(t.TempDir(), "sessions.json")
	cfg.Session.Interval = 10 * time.Millisecond
	return cfg
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Focus.Threshold = 2

	_, err := New(cfg)
	var ce *config.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *config.ConfigError", err)
	}
}

func TestInit_DetectorLoadFailure(t *testing.T) {
	mock := detection.NewMock()
	mock.LoadFunc = func(ctx context.Context) error { return detection.ErrModelNotFound }

	app, err := New(testConfig(t), WithRuntime(mock), WithFrameSource(stillFrames{}))
	if err != nil {
		t.Fatal(err)
	}

	if err := app.Init(context.Background()); !errors.Is(err, detection.ErrModelNotFound) {
		t.Fatalf("Init: got %v, want ErrModelNotFound", err)
	}
	if mock.CallCount("Close") != 1 {
		t.Errorf("runtime should be closed after failed init, Close calls = %d", mock.CallCount("Close"))
	}
}

func TestInit_PhaseFlowRecordsSession(t *testing.T) {
	app, err := New(testConfig(t), WithFrameSource(stillFrames{}))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := app.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer app.Shutdown()

	ctrl := app.Controller()
	ctrl.SetPhase(ctx, session.Break)

	records, err := app.store.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if app.Server() == nil {
		t.Error("web server not built")
	}
}

func TestInit_TimerDrivesPhase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pomodoro.Work = time.Second

	app, err := New(cfg, WithFrameSource(stillFrames{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer app.Shutdown()

	app.timer.Start()
	app.timer.Tick(time.Now().Add(2 * time.Second))

	if p := app.Controller().Phase(); p != session.Break {
		t.Errorf("phase: got %v, want break", p)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Backend = history.BackendNone

	app, err := New(cfg, WithFrameSource(stillFrames{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer app.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for app.Controller().Snapshot().Frames == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session loop did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
	if app.Controller().Running() {
		t.Error("session loop still running")
	}

	app.Shutdown()
	app.Shutdown()
}

func TestInit_BrowserFrameAgeFollowsCameraSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Camera.Source = camera.SourceBrowser
	cfg.History.Backend = history.BackendNone

	app, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := app.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer app.Shutdown()

	app.buffer.Push([]byte{0xff, 0xd8})
	time.Sleep(20 * time.Millisecond)
	if _, err := app.buffer.CurrentFrame(ctx); err != nil {
		t.Fatalf("frame within the default window: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/camera", strings.NewReader(`{"max_frame_age_ms":5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Server().App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("POST /api/camera: status %d", resp.StatusCode)
	}

	app.buffer.Push([]byte{0xff, 0xd8})
	time.Sleep(20 * time.Millisecond)
	if _, err := app.buffer.CurrentFrame(ctx); !errors.Is(err, camera.ErrStaleFrame) {
		t.Errorf("after lowering max age: got %v, want ErrStaleFrame", err)
	}
}
