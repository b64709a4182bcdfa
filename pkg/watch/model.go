package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/focus-booster/internal/httpc"
	"github.com/teslashibe/focus-booster/pkg/focus"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
)

var (
	colorFocused = lipgloss.Color("#22c55e")
	colorAlert   = lipgloss.Color("#dc2626")
	colorBreak   = lipgloss.Color("#06b6d4")
	colorDimmed  = lipgloss.Color("#6b7280")

	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDimmed).Width(12)
	styleFocused = lipgloss.NewStyle().Foreground(colorFocused).Bold(true)
	styleLost    = lipgloss.NewStyle().Foreground(colorAlert).Bold(true)
	styleBreak   = lipgloss.NewStyle().Foreground(colorBreak).Bold(true)
	styleDimmed  = lipgloss.NewStyle().Foreground(colorDimmed)
	styleAlert   = lipgloss.NewStyle().
			Foreground(colorAlert).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAlert).
			Padding(0, 1)
	styleSuggestion = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBreak).
			Padding(0, 1)
)

// actionMsg reports the outcome of a control request.
type actionMsg struct {
	name string
	err  error
}

// Model is the Bubble Tea model for the watcher.
type Model struct {
	ws      *Client
	apiBase string
	ctx     context.Context
	cancel  context.CancelFunc

	connected bool
	snapshot  *session.Snapshot
	timer     *pomodoro.Status
	lastErr   string
	width     int
}

// NewModel creates the watcher model. apiBase is the HTTP root used for
// control keys.
func NewModel(ws *Client, apiBase string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:      ws,
		apiBase: strings.TrimRight(apiBase, "/"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init starts the WebSocket connection.
func (m Model) Init() tea.Cmd {
	return m.ws.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConnectedMsg:
		m.connected = true
		m.lastErr = ""
		return m, m.ws.ReadLoop(m.ctx)

	case DisconnectedMsg:
		m.connected = false
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
		return m, m.ws.Listen(m.ctx)

	case SnapshotMsg:
		s := msg.Snapshot
		m.snapshot = &s
		return m, m.ws.ReadLoop(m.ctx)

	case PomodoroMsg:
		st := msg.Status
		m.timer = &st
		return m, m.ws.ReadLoop(m.ctx)

	case actionMsg:
		if msg.err != nil {
			m.lastErr = msg.name + ": " + msg.err.Error()
		} else {
			m.lastErr = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		m.ws.Close()
		return m, tea.Quit
	case " ", "p":
		return m, m.post("toggle", "/api/pomodoro/toggle", nil)
	case "r":
		return m, m.post("reset", "/api/pomodoro/reset", nil)
	case "b":
		return m, m.post("break", "/api/phase", map[string]string{"phase": "break"})
	case "w":
		return m, m.post("work", "/api/phase", map[string]string{"phase": "work"})
	}
	return m, nil
}

func (m Model) post(name, path string, body interface{}) tea.Cmd {
	url := m.apiBase + path
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{name: name, err: httpc.PostJSON(ctx, url, body, nil)}
	}
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Focus Booster"))
	if m.connected {
		b.WriteString(styleDimmed.Render("  connected"))
	} else {
		b.WriteString(styleLost.Render("  disconnected"))
	}
	b.WriteString("\n\n")

	if m.timer != nil {
		state := "paused"
		if m.timer.Running {
			state = "running"
		}
		b.WriteString(row("Timer", fmt.Sprintf("%s %s (%s, %d done)",
			phaseText(m.timer.Phase), m.timer.Countdown(), state, m.timer.Cycles)))
	}

	if s := m.snapshot; s != nil {
		b.WriteString(row("Phase", phaseText(s.Phase)))
		if s.Phase == session.Work {
			b.WriteString(row("Focus", focusText(s.State)))
			b.WriteString(row("Eyes (EAR)", fmt.Sprintf("%.3f", s.EAR)))
			if s.Emotion != "" {
				b.WriteString(row("Emotion", string(s.Emotion)))
			}
			b.WriteString(row("Focused", fmt.Sprintf("%s of %s",
				s.FocusedFor.Round(time.Second), s.UpdatedAt.Sub(s.SessionStarted).Round(time.Second))))
		}
		if !s.DetectorReady {
			b.WriteString(row("Detector", styleLost.Render("not ready")))
		}
		if s.Alert != "" {
			b.WriteString("\n" + styleAlert.Render(s.Alert) + "\n")
		}
		if s.Summary != nil && s.Summary.Suggestion != nil {
			b.WriteString("\n" + styleSuggestion.Render(s.Summary.Suggestion.Message) + "\n")
		}
	} else {
		b.WriteString(styleDimmed.Render("waiting for status...") + "\n")
	}

	if m.lastErr != "" {
		b.WriteString("\n" + styleLost.Render(m.lastErr) + "\n")
	}
	b.WriteString("\n" + styleDimmed.Render("space:start/pause  r:reset  b:break  w:work  q:quit"))
	return b.String()
}

func row(label, value string) string {
	return styleLabel.Render(label) + value + "\n"
}

func phaseText(p session.Phase) string {
	if p == session.Break {
		return styleBreak.Render("Break")
	}
	return styleTitle.Render("Work")
}

func focusText(s focus.State) string {
	if s == focus.Focused {
		return styleFocused.Render("focused")
	}
	return styleLost.Render("not focused")
}
