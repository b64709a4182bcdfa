package watch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/focus"
	"github.com/teslashibe/focus-booster/pkg/hub"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
)

func TestDecode(t *testing.T) {
	snap := session.Snapshot{
		Phase: session.Work,
		State: focus.NotFocused,
		Alert: string(focus.ReasonNoFace),
	}
	data, err := hub.EncodeEvent(hub.EventSnapshot, snap)
	if err != nil {
		t.Fatal(err)
	}

	msg, ok := decode(data).(SnapshotMsg)
	if !ok {
		t.Fatalf("decode: got %T, want SnapshotMsg", decode(data))
	}
	if msg.Snapshot.State != focus.NotFocused || msg.Snapshot.Alert != string(focus.ReasonNoFace) {
		t.Errorf("snapshot: got %+v", msg.Snapshot)
	}

	data, _ = hub.EncodeEvent(hub.EventPomodoro, pomodoro.Status{Phase: session.Break, Remaining: time.Minute})
	pm, ok := decode(data).(PomodoroMsg)
	if !ok || pm.Status.Phase != session.Break || pm.Status.Remaining != time.Minute {
		t.Errorf("pomodoro: got %+v", decode(data))
	}

	if decode([]byte(`{"type":"other","data":{}}`)) != nil {
		t.Error("unknown event should decode to nil")
	}
	if decode([]byte(`not json`)) != nil {
		t.Error("garbage should decode to nil")
	}
}

func TestHTTPBase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ws://127.0.0.1:9000/ws/status", "http://127.0.0.1:9000"},
		{"wss://focus.local/ws/status", "https://focus.local"},
		{"::bad", "http://127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if got := HTTPBase(tt.in); got != tt.want {
			t.Errorf("HTTPBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClient_ReadsEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"noise"}`))
		data, _ := hub.EncodeEvent(hub.EventSnapshot, session.Snapshot{Phase: session.Break})
		conn.WriteMessage(websocket.TextMessage, data)
		conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer c.Close()

	if _, ok := c.Listen(ctx)().(ConnectedMsg); !ok {
		t.Fatal("Listen did not connect")
	}
	msg, ok := c.ReadLoop(ctx)().(SnapshotMsg)
	if !ok {
		t.Fatal("ReadLoop did not return a snapshot")
	}
	if msg.Snapshot.Phase != session.Break {
		t.Errorf("phase: got %v, want break", msg.Snapshot.Phase)
	}
}

func TestModel_UpdateAndView(t *testing.T) {
	m := NewModel(NewClient("ws://127.0.0.1:1/ws/status"), "http://127.0.0.1:1")
	defer m.cancel()

	next, _ := m.Update(ConnectedMsg{})
	m = next.(Model)
	if !m.connected {
		t.Fatal("not connected after ConnectedMsg")
	}

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	next, _ = m.Update(SnapshotMsg{Snapshot: session.Snapshot{
		Phase:          session.Work,
		State:          focus.NotFocused,
		Alert:          string(focus.ReasonEyesClosed),
		Emotion:        emotion.Sad,
		EAR:            0.12,
		SessionStarted: start,
		UpdatedAt:      start.Add(10 * time.Minute),
		FocusedFor:     8 * time.Minute,
		DetectorReady:  true,
	}})
	m = next.(Model)

	next, _ = m.Update(PomodoroMsg{Status: pomodoro.Status{Phase: session.Work, Remaining: 15 * time.Minute, Running: true}})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"not focused", string(focus.ReasonEyesClosed), "sad", "0.120", "15:00", "8m0s of 10m0s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	next, _ = m.Update(DisconnectedMsg{Err: errors.New("connection reset")})
	m = next.(Model)
	if m.connected || !strings.Contains(m.View(), "connection reset") {
		t.Errorf("disconnect not shown:\n%s", m.View())
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := NewModel(NewClient("ws://127.0.0.1:1/ws/status"), "http://127.0.0.1:1")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel the model context")
	}
}
