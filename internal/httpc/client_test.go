package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type: got %q", r.Header.Get("Content-Type"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"echo": body["phase"]})
	}))
	defer srv.Close()

	var out map[string]string
	if err := PostJSON(context.Background(), srv.URL, map[string]string{"phase": "break"}, &out); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out["echo"] != "break" {
		t.Errorf("echo: got %q, want break", out["echo"])
	}
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pomodoro timer disabled", http.StatusNotFound)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), srv.URL, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *StatusError", err)
	}
	if se.Code != http.StatusNotFound || se.Body != "pomodoro timer disabled" {
		t.Errorf("StatusError: got %+v", se)
	}
}
