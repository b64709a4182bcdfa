// Package watch is a terminal observer for a running focus-booster: it
// follows /ws/status and renders session and timer state with Bubble Tea.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/focus-booster/pkg/hub"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
)

const (
	reconnectBaseDelay = 500 * time.Millisecond
	reconnectMaxDelay  = 10 * time.Second
	pongTimeout        = 90 * time.Second
)

// ConnectedMsg is sent when the WebSocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// SnapshotMsg delivers a session snapshot.
type SnapshotMsg struct{ Snapshot session.Snapshot }

// PomodoroMsg delivers the timer state.
type PomodoroMsg struct{ Status pomodoro.Status }

// Client follows the status socket.
type Client struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a client for a ws:// status URL.
func NewClient(url string) *Client {
	return &Client{url: url}
}

// Listen returns a command that dials with exponential backoff until it
// connects or ctx is cancelled.
func (c *Client) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
			if err == nil {
				c.mu.Lock()
				c.conn = conn
				c.mu.Unlock()
				return ConnectedMsg{}
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
		}
	}
}

// ReadLoop returns a command that blocks until the next decodable event.
func (c *Client) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("not connected")}
		}

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})

		for {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.drop(conn)
				return DisconnectedMsg{Err: err}
			}
			if msg := decode(data); msg != nil {
				return msg
			}
		}
	}
}

// Close closes the active connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

// decode maps an event envelope to a message; unknown events yield nil.
func decode(data []byte) tea.Msg {
	var ev hub.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil
	}
	switch ev.Type {
	case hub.EventSnapshot:
		var s session.Snapshot
		if json.Unmarshal(ev.Data, &s) == nil {
			return SnapshotMsg{Snapshot: s}
		}
	case hub.EventPomodoro:
		var st pomodoro.Status
		if json.Unmarshal(ev.Data, &st) == nil {
			return PomodoroMsg{Status: st}
		}
	}
	return nil
}

// HTTPBase converts ws://host:port/ws/status to http://host:port.
func HTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
