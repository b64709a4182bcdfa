package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/focus-booster/pkg/camera"
	"github.com/teslashibe/focus-booster/pkg/focus"
	"github.com/teslashibe/focus-booster/pkg/history"
	"github.com/teslashibe/focus-booster/pkg/pomodoro"
	"github.com/teslashibe/focus-booster/pkg/session"
)

type fakeSession struct {
	mu    sync.Mutex
	phase session.Phase
	calls int
}

func (f *fakeSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Snapshot{Phase: f.phase, State: focus.Focused, Focused: true}
}

func (f *fakeSession) SetPhase(ctx context.Context, p session.Phase) {
	f.mu.Lock()
	f.phase = p
	f.calls++
	f.mu.Unlock()
}

type frameSink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *frameSink) Push(frame []byte) {
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
}

func setupServer(t *testing.T) (*Server, *fakeSession, *history.JSONStore) {
	t.Helper()

	store, err := history.NewJSONStore(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)

	sess := &fakeSession{}
	cfg := DefaultConfig()
	cfg.StaticDir = ""

	srv, err := NewServer(cfg, Deps{
		Session:  sess,
		Timer:    pomodoro.New(pomodoro.DefaultConfig(), nil),
		History:  store,
		Frames:   &frameSink{},
		Camera:   camera.NewManager(camera.DefaultConfig()),
		Settings: map[string]float64{"ear_threshold": 0.25},
	})
	require.NoError(t, err)
	return srv, sess, store
}

func doRequest(t *testing.T, srv *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestNewServer_RequiresSession(t *testing.T) {
	_, err := NewServer(DefaultConfig(), Deps{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStatus(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Session struct {
			Phase      string `json:"phase"`
			FocusState string `json:"focus_state"`
		} `json:"session"`
		Pomodoro *struct {
			Running bool `json:"running"`
		} `json:"pomodoro"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "work", got.Session.Phase)
	assert.Equal(t, "focused", got.Session.FocusState)
	require.NotNil(t, got.Pomodoro)
	assert.False(t, got.Pomodoro.Running)
}

func TestSetPhase(t *testing.T) {
	srv, sess, _ := setupServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/phase", `{"phase":"break"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, session.Break, sess.Snapshot().Phase)
	assert.Contains(t, string(body), `"phase":"break"`)

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/phase", `{"phase":"nap"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, sess.calls)
}

func TestPomodoroActions(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/pomodoro/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st pomodoro.Status
	require.NoError(t, json.Unmarshal(body, &st))
	assert.True(t, st.Running)

	resp, body = doRequest(t, srv, http.MethodPost, "/api/pomodoro/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.False(t, st.Running)
	assert.Equal(t, pomodoro.DefaultWork, st.Remaining)

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/pomodoro/skip", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPomodoroDisabled(t *testing.T) {
	srv, err := NewServer(Config{}, Deps{Session: &fakeSession{}})
	require.NoError(t, err)

	resp, _ := doRequest(t, srv, http.MethodPost, "/api/pomodoro/start", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/sessions", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestSessions(t *testing.T) {
	srv, _, store := setupServer(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Save(ctx, &history.Record{
			StartedAt: start,
			EndedAt:   start.Add(25 * time.Minute),
			Frames:    i,
		}))
	}

	resp, body := doRequest(t, srv, http.MethodGet, "/api/sessions?limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []history.Record
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Frames, "newest first")

	resp, body = doRequest(t, srv, http.MethodGet, "/api/sessions/"+records[1].ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), records[1].ID)

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, srv, http.MethodGet, "/api/sessions?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCamera(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/camera", `{"preset":"720p"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"width":1280`)

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/camera", `{"quality":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfigEndpoint(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ear_threshold":0.25}`, string(body))
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, _ := doRequest(t, srv, http.MethodGet, "/ws/status", "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _, _ := setupServer(t)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.Contains(t, string(body), `"rss_bytes"`)
}
