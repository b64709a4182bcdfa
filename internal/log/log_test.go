package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseLevel(tc.in); got != tc.want {
				t.Errorf("ParseLevel(%q): got %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestInitWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", false)

	Info("hidden")
	Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestComponent_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", true)

	Component("session").Debug("tick")

	if !strings.Contains(buf.String(), `"component":"session"`) {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}
