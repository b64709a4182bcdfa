// Package camera provides the frame sources the session loop samples:
// a local webcam read through OpenCV and a buffer fed by the browser.
package camera

import "time"

// Sources selectable in configuration.
const (
	SourceWebcam  = "webcam"
	SourceBrowser = "browser"
)

// Config holds camera settings. Resolution and quality can be changed at
// runtime through the Manager.
type Config struct {
	// Source is "webcam" (local capture device) or "browser" (frames pushed
	// over the /ws/frames socket).
	Source string `yaml:"source" json:"source"`

	// Device is the capture device index or path/URL passed to OpenCV.
	Device string `yaml:"device" json:"device"`

	Width     int `yaml:"width" json:"width"`         // Frame width in pixels
	Height    int `yaml:"height" json:"height"`       // Frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate"` // Requested capture FPS
	Quality   int `yaml:"quality" json:"quality"`     // JPEG quality 1-100

	// MaxFrameAgeMs is how long a pushed browser frame stays usable, in
	// milliseconds. 0 disables the check.
	MaxFrameAgeMs int `yaml:"max_frame_age_ms" json:"max_frame_age_ms"`
}

// Capture limits.
const (
	MaxWidth  = 3840
	MaxHeight = 2160
)

// DefaultConfig returns a 640x360 webcam setup, the resolution the
// browser UI used for its video element.
func DefaultConfig() Config {
	return Config{
		Source:        SourceWebcam,
		Device:        "0",
		Width:         640,
		Height:        360,
		Framerate:     15,
		Quality:       85,
		MaxFrameAgeMs: 2000,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Source != SourceWebcam && c.Source != SourceBrowser {
		errors = append(errors, "source must be webcam or browser")
	}
	if c.Source == SourceWebcam && c.Device == "" {
		errors = append(errors, "device is required for webcam source")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.MaxFrameAgeMs < 0 {
		errors = append(errors, "max_frame_age_ms must not be negative")
	}

	return errors
}

// MaxFrameAge returns MaxFrameAgeMs as a duration.
func (c Config) MaxFrameAge() time.Duration {
	return time.Duration(c.MaxFrameAgeMs) * time.Millisecond
}
