package web

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/focus-booster/internal/procstat"
	"github.com/teslashibe/focus-booster/pkg/camera"
	"github.com/teslashibe/focus-booster/pkg/detection"
	"github.com/teslashibe/focus-booster/pkg/history"
	"github.com/teslashibe/focus-booster/pkg/hub"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
)

// Default and maximum page sizes for /api/sessions.
const (
	defaultSessionLimit = 20
	maxSessionLimit     = 500
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Session  session.Snapshot  `json:"session"`
	Pomodoro *pomodoro.Status  `json:"pomodoro,omitempty"`
	Detector *detection.Status `json:"detector,omitempty"`
}

// PhaseRequest is the body of POST /api/phase.
type PhaseRequest struct {
	Phase string `json:"phase"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// handleHealth reports liveness plus process usage when available.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok"}
	if st, err := procstat.Self(); err == nil {
		resp["process"] = st
	} else {
		s.logger.Debug("process stats unavailable", "error", err)
	}
	return c.JSON(resp)
}

// handleStatus returns session, timer and detector state in one call.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{Session: s.deps.Session.Snapshot()}
	if s.deps.Timer != nil {
		st := s.deps.Timer.Status()
		resp.Pomodoro = &st
	}
	if s.deps.Detector != nil {
		st := s.deps.Detector.Status()
		resp.Detector = &st
	}
	return c.JSON(resp)
}

// handleSetPhase switches the session between work and break directly,
// bypassing the timer.
func (s *Server) handleSetPhase(c *fiber.Ctx) error {
	var req PhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	p, err := session.ParsePhase(req.Phase)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	s.deps.Session.SetPhase(c.UserContext(), p)
	return c.JSON(s.deps.Session.Snapshot())
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.deps.Settings == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(s.deps.Settings)
}

func (s *Server) handlePomodoro(c *fiber.Ctx) error {
	if s.deps.Timer == nil {
		return fiber.NewError(fiber.StatusNotFound, "pomodoro timer disabled")
	}
	return c.JSON(s.deps.Timer.Status())
}

// handlePomodoroAction runs start, pause, toggle or reset.
func (s *Server) handlePomodoroAction(c *fiber.Ctx) error {
	t := s.deps.Timer
	if t == nil {
		return fiber.NewError(fiber.StatusNotFound, "pomodoro timer disabled")
	}

	switch action := c.Params("action"); action {
	case "start":
		t.Start()
	case "pause":
		t.Pause()
	case "toggle":
		t.Toggle()
	case "reset":
		t.Reset()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown action: "+action)
	}

	s.broadcastPomodoro()
	return c.JSON(t.Status())
}

// handleListSessions returns recorded work sessions, newest first.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return c.JSON([]*history.Record{})
	}

	limit := defaultSessionLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxSessionLimit)
	}

	records, err := s.deps.History.List(c.UserContext(), limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*history.Record{}
	}
	return c.JSON(records)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return fiber.NewError(fiber.StatusNotFound, "history disabled")
	}
	rec, err := s.deps.History.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, history.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera not configurable")
	}
	return c.JSON(s.deps.Camera.Config())
}

// handleUpdateCamera applies a partial update, e.g. {"preset":"720p"}.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera not configurable")
	}
	var u camera.Update
	if err := c.BodyParser(&u); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	cfg, err := s.deps.Camera.Apply(u)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(cfg)
}

// handleStatusWS streams snapshot and timer events.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c, nil).Run()
}

// handleFramesWS accepts binary JPEG frames from the browser camera and
// streams status events back on the same socket.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	var handler hub.Handler
	if s.deps.Frames != nil {
		handler = func(t hub.MessageType, data []byte) {
			if t == hub.BinaryMessage {
				s.deps.Frames.Push(data)
			}
		}
	} else {
		s.logger.Warn("frame socket opened but browser frames are disabled")
	}
	hub.NewClient(s.statusHub, c, handler).Run()
}
