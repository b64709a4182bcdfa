package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/focus-booster/internal/log"
	"github.com/teslashibe/focus-booster/pkg/debug"
	"github.com/teslashibe/focus-booster/pkg/detection"
)

// Capture reads frames from a local device through OpenCV and hands them to
// the detector as JPEG.
type Capture struct {
	logger *slog.Logger

	mu      sync.Mutex
	cfg     Config
	vc      *gocv.VideoCapture
	img     gocv.Mat
	frames  uint64
	failure uint64
}

// Open starts capturing from cfg.Device. The caller must Close it.
func Open(cfg Config) (*Capture, error) {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open capture device %q: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open capture device %q: device not available", cfg.Device)
	}

	c := &Capture{
		logger: log.Component("camera"),
		cfg:    cfg,
		vc:     vc,
		img:    gocv.NewMat(),
	}
	c.applyLocked(cfg)

	c.logger.Info("camera opened", "device", cfg.Device,
		"width", cfg.Width, "height", cfg.Height, "fps", cfg.Framerate)
	return c, nil
}

// Apply changes resolution and frame rate on the open device.
func (c *Capture) Apply(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return ErrNotOpen
	}
	c.applyLocked(cfg)
	return nil
}

func (c *Capture) applyLocked(cfg Config) {
	c.vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	c.vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	c.vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	c.cfg = cfg
}

// CurrentFrame grabs the next frame from the device.
func (c *Capture) CurrentFrame(ctx context.Context) (detection.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok := c.vc.Read(&c.img); !ok || c.img.Empty() {
		c.failure++
		debug.FrameLog("📷 capture read failed (%d so far)\n", c.failure)
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.img,
		[]int{gocv.IMWriteJpegQuality, c.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	src := buf.GetBytes()
	frame := make(detection.Frame, len(src))
	copy(frame, src)
	c.frames++
	return frame, nil
}

// Frames returns how many frames were captured successfully.
func (c *Capture) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Close releases the device. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.img.Close()
	c.vc = nil
	c.logger.Info("camera closed", "frames", c.frames)
	return err
}
