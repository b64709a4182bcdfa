package session

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called on a running controller.
	ErrAlreadyRunning = errors.New("session: controller already running")

	// ErrNoDetector is returned when a controller is built without a detector.
	ErrNoDetector = errors.New("session: detector required")

	// ErrNoFrameSource is returned when a controller is built without frames.
	ErrNoFrameSource = errors.New("session: frame source required")
)
