// Package detection wraps a face/landmark/expression detector behind a
// fail-soft adapter suitable for a polling loop.
package detection

import (
	"context"

	"github.com/teslashibe/focus-booster/pkg/emotion"
	"github.com/teslashibe/focus-booster/pkg/geometry"
)

// Frame is one encoded (JPEG) video frame. The adapter passes it to the
// runtime without inspecting it.
type Frame []byte

// Box is a face bounding box, normalized to 0-1 of the frame size.
type Box struct {
	X, Y float64 // Top-left corner
	W, H float64
}

// Result is one detected face.
// LeftEye, RightEye and Expressions are nil when the runtime could not produce them.
type Result struct {
	Box         Box                 `json:"box"`
	Confidence  float64             `json:"confidence"`
	LeftEye     geometry.EyeContour `json:"left_eye,omitempty"`
	RightEye    geometry.EyeContour `json:"right_eye,omitempty"`
	Expressions emotion.Expressions `json:"expressions,omitempty"`
}

// HasEyes reports whether both eye contours are present and well-formed.
func (r Result) HasEyes() bool {
	return r.LeftEye.Valid() && r.RightEye.Valid()
}

// Runtime is the detection backend. Both operations may be slow and may fail.
type Runtime interface {
	// Load prepares models. Called once before any Detect.
	Load(ctx context.Context) error

	// Detect finds faces in the frame, ordered as the backend reports them.
	Detect(ctx context.Context, frame Frame) ([]Result, error)

	// Close releases resources
	Close() error
}

// SelectPrimary picks the face this system acts on: the highest confidence,
// ties going to the earliest detection. Returns nil for no detections.
func SelectPrimary(dets []Result) *Result {
	if len(dets) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(dets); i++ {
		if dets[i].Confidence > dets[best].Confidence {
			best = i
		}
	}
	return &dets[best]
}
