// Package booster wires the focus-booster components into a runnable
// application: detector, frame source, session loop, Pomodoro timer,
// history store and web dashboard.
package booster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/focus-booster/internal/config"
	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/camera"
	"github.com/teslashibe/focus-booster/pkg/debug"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/history"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
	"github.com/teslashibe/focus-booster/pkg/web"
)

// App owns every long-lived component.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	// Overridable before Init, for tests and demos.
	runtime detection.Runtime
	frames  session.FrameSource

	detector *detection.Adapter
	capture  *camera.Capture
	buffer   *camera.Buffer
	cameras  *camera.Manager
	store    history.Store
	timer    *pomodoro.Timer
	ctrl     *session.Controller
	web      *web.Server

	handle       *session.Handle
	shutdownOnce sync.Once
}

// Option customizes an App.
type Option func(*App)

// WithRuntime replaces the detector runtime chosen by configuration.
func WithRuntime(rt detection.Runtime) Option {
	return func(a *App) { a.runtime = rt }
}

// WithFrameSource replaces the camera chosen by configuration.
func WithFrameSource(fs session.FrameSource) Option {
	return func(a *App) { a.frames = fs }
}

// New validates cfg and creates an uninitialized app.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Log.Debug
	debug.Frames = cfg.Log.Frames

	a := &App{
		cfg:    cfg,
		logger: log.Component("app"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init loads the detector, opens the frame source and history store, and
// builds the session loop and web server. Anything opened before a failure
// is released before returning.
func (a *App) Init(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			a.Shutdown()
		}
	}()

	if err := a.initDetector(ctx); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := a.initFrames(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}

	store, err := history.Open(ctx, a.cfg.History)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	a.store = store

	if err := a.initSession(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := a.initWeb(); err != nil {
		return fmt.Errorf("web: %w", err)
	}

	if a.timer != nil {
		a.timer.OnPhaseChange(func(p session.Phase, message string) {
			a.ctrl.SetPhase(context.Background(), p)
			a.web.OnPhaseChange(p, message)
		})
	}

	a.logger.Info("initialized",
		"detector", a.cfg.Detector.Backend,
		"camera", a.cfg.Camera.Source,
		"history", a.cfg.History.Backend,
		"pomodoro", a.timer != nil)
	return nil
}

func (a *App) initDetector(ctx context.Context) error {
	if a.runtime == nil {
		switch a.cfg.Detector.Backend {
		case config.DetectorMock:
			a.runtime = detection.NewMock()
		default:
			a.runtime = detection.NewOpenCV(a.cfg.Detector.Models)
		}
	}

	a.detector = detection.NewAdapter(a.runtime)
	start := time.Now()
	if err := a.detector.Load(ctx); err != nil {
		return err
	}
	a.logger.Info("detector ready", "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *App) initFrames() error {
	a.cameras = camera.NewManager(a.cfg.Camera)
	if a.frames != nil {
		return nil
	}

	switch a.cfg.Camera.Source {
	case camera.SourceBrowser:
		a.buffer = camera.NewBuffer(a.cfg.Camera.MaxFrameAge())
		a.cameras.OnConfigChange = a.buffer.Apply
		a.frames = a.buffer
	default:
		capture, err := camera.Open(a.cfg.Camera)
		if err != nil {
			return err
		}
		a.capture = capture
		a.cameras.OnConfigChange = capture.Apply
		a.frames = capture
	}
	return nil
}

func (a *App) initSession() error {
	opts := []session.Option{session.WithObserver(session.ObserverFunc(a.onSnapshot))}
	if a.store != nil {
		opts = append(opts, session.WithRecorder(a.store))
	}

	ctrl, err := session.New(a.cfg.Session, a.detector, a.frames, opts...)
	if err != nil {
		return err
	}
	a.ctrl = ctrl

	if a.cfg.Pomodoro.Enabled {
		a.timer = pomodoro.New(a.cfg.Pomodoro.Config, nil)
	}
	return nil
}

func (a *App) initWeb() error {
	deps := web.Deps{
		Session:  a.ctrl,
		Detector: a.detector,
		History:  a.store,
		Camera:   a.cameras,
		Settings: a.cfg,
	}
	if a.timer != nil {
		deps.Timer = a.timer
	}
	if a.buffer != nil {
		deps.Frames = a.buffer
	}

	srv, err := web.NewServer(a.cfg.Server, deps)
	if err != nil {
		return err
	}
	a.web = srv
	return nil
}

// onSnapshot forwards loop updates to the dashboard.
func (a *App) onSnapshot(s session.Snapshot) {
	if a.web != nil {
		a.web.OnSnapshot(s)
	}
}

// Run starts the session loop, timer and web server. It blocks until ctx
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	handle, err := a.ctrl.Start(ctx)
	if err != nil {
		return err
	}
	a.handle = handle
	defer handle.Stop()

	if a.timer != nil {
		go a.timer.Run(ctx)
	}

	a.logger.Info("focus booster running", "url", "http://"+a.cfg.Server.Addr)
	if err := a.web.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Controller exposes the session loop.
func (a *App) Controller() *session.Controller {
	return a.ctrl
}

// Server exposes the web server.
func (a *App) Server() *web.Server {
	return a.web
}

// Shutdown stops the loop and releases the detector, camera and store.
// Safe to call more than once and after a failed Init.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		if a.handle != nil {
			a.handle.Stop()
		}
		if a.detector != nil {
			if err := a.detector.Close(); err != nil {
				a.logger.Warn("detector close failed", "error", err)
			}
		}
		if a.capture != nil {
			if err := a.capture.Close(); err != nil {
				a.logger.Warn("camera close failed", "error", err)
			}
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				a.logger.Warn("history close failed", "error", err)
			}
		}
		a.logger.Info("shut down")
	})
}
