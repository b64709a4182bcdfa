// Package debug gates verbose console traces that are too noisy for the
// structured log.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Enabled turns on one-off traces (model loading, configuration changes).
var Enabled bool

// Frames turns on per-frame traces: faces found, EAR, emotions, skipped
// ticks. At the default cadence that is several lines a second.
var Frames bool

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects traces, returning the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Log prints when Enabled is set.
func Log(format string, args ...interface{}) {
	if Enabled {
		write(format, args...)
	}
}

// FrameLog prints when Frames is set.
func FrameLog(format string, args ...interface{}) {
	if Frames {
		write(format, args...)
	}
}

func write(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format, args...)
}
