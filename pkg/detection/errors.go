package detection

import "errors"

var (
	// ErrNotReady is returned when detection is attempted before the runtime loaded.
	ErrNotReady = errors.New("detection: runtime not ready")

	// ErrModelNotFound is returned when a model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrEmptyFrame is returned for frames that decode to nothing.
	ErrEmptyFrame = errors.New("detection: empty frame")
)
