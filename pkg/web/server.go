// Package web serves the focus-booster dashboard: a JSON API for session,
// timer and history state, and WebSockets for live status and for frames
// captured by the browser.
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/camera"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/history"
	"github.com/teslashibe/focus-booster/pkg/hub"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
)

// Config holds HTTP server settings.
type Config struct {
	Addr         string `yaml:"addr" json:"addr"`
	StaticDir    string `yaml:"static_dir" json:"static_dir"`
	AllowOrigins string `yaml:"allow_origins" json:"allow_origins"`
	AccessLog    bool   `yaml:"access_log" json:"access_log"`
}

// DefaultConfig listens on localhost:8080 and serves ./web.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		StaticDir:    "./web",
		AllowOrigins: "*",
	}
}

// Session is the controller surface the server drives.
type Session interface {
	Snapshot() session.Snapshot
	SetPhase(ctx context.Context, p session.Phase)
}

// Timer is the Pomodoro surface the server drives.
type Timer interface {
	Start()
	Pause()
	Toggle()
	Reset()
	Status() pomodoro.Status
}

// DetectorStatus reports detector health.
type DetectorStatus interface {
	Status() detection.Status
}

// FrameSink accepts encoded frames from the browser.
type FrameSink interface {
	Push(frame []byte)
}

// Deps are the components the server exposes. Only Session is required.
type Deps struct {
	Session  Session
	Timer    Timer
	Detector DetectorStatus
	History  history.Store
	Frames   FrameSink
	Camera   *camera.Manager

	// Settings is returned as-is by GET /api/config.
	Settings interface{}
}

// Server is the web dashboard server.
type Server struct {
	cfg    Config
	deps   Deps
	app    *fiber.App
	logger *slog.Logger

	statusHub *hub.Hub
}

// ErrNoSession is returned by NewServer without a session.
var ErrNoSession = errors.New("web: session is required")

// NewServer builds the fiber app and routes.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Session == nil {
		return nil, ErrNoSession
	}

	s := &Server{
		cfg:       cfg,
		deps:      deps,
		logger:    log.Component("web"),
		statusHub: hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Focus Booster",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Post("/phase", s.handleSetPhase)
	api.Get("/config", s.handleConfig)
	api.Get("/pomodoro", s.handlePomodoro)
	api.Post("/pomodoro/:action", s.handlePomodoroAction)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// OnSnapshot broadcasts a session snapshot to status clients.
func (s *Server) OnSnapshot(snap session.Snapshot) {
	if err := s.statusHub.BroadcastEvent(hub.EventSnapshot, snap); err != nil {
		s.logger.Warn("failed to encode snapshot", "error", err)
	}
}

// OnPhaseChange broadcasts the timer state after a phase flip.
func (s *Server) OnPhaseChange(p session.Phase, message string) {
	s.broadcastPomodoro()
}

func (s *Server) broadcastPomodoro() {
	if s.deps.Timer == nil {
		return
	}
	if err := s.statusHub.BroadcastEvent(hub.EventPomodoro, s.deps.Timer.Status()); err != nil {
		s.logger.Warn("failed to encode timer status", "error", err)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. The
// countdown is pushed to clients once a second while the timer runs.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.tickPomodoro(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web dashboard listening", "url", "http://"+s.cfg.Addr)
		errc <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func (s *Server) tickPomodoro(ctx context.Context) {
	if s.deps.Timer == nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.deps.Timer.Status().Running {
				s.broadcastPomodoro()
			}
		}
	}
}

// StatusHub returns the hub that carries snapshots and timer events.
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}
