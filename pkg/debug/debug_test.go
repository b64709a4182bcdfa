package debug

import (
	"bytes"
	"testing"
)

func TestGating(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(prev)
		Enabled, Frames = false, false
	})

	Enabled, Frames = false, false
	Log("hidden %d\n", 1)
	FrameLog("hidden %d\n", 2)
	if buf.Len() != 0 {
		t.Fatalf("disabled traces wrote %q", buf.String())
	}

	Enabled = true
	Log("model %s\n", "loaded")
	FrameLog("frame\n")
	if got := buf.String(); got != "model loaded\n" {
		t.Errorf("Enabled only: got %q", got)
	}

	buf.Reset()
	Frames = true
	FrameLog("EAR=%.2f\n", 0.31)
	if got := buf.String(); got != "EAR=0.31\n" {
		t.Errorf("Frames: got %q", got)
	}
}
