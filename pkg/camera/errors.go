package camera

import "errors"

var (
	// ErrNoFrame is returned while no frame is available yet.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrStaleFrame is returned when the newest frame is too old to use.
	ErrStaleFrame = errors.New("camera: frame is stale")

	// ErrNotOpen is returned when reading from a closed capture.
	ErrNotOpen = errors.New("camera: capture not open")
)
