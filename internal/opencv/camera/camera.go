// Package camera grabs still frames from a video capture device.
package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"snapfilter/internal/config"
	"snapfilter/internal/logger"
	"snapfilter/internal/opencv/bridge"
	"snapfilter/internal/pixel"

	"gocv.io/x/gocv"
)

const maxReadAttempts = 10

type Camera struct {
	mu       sync.Mutex
	cfg      config.CameraConfig
	capture  *gocv.VideoCapture
	frame    gocv.Mat
	hasFrame bool
	logger   logger.Logger
}

func New(cfg config.CameraConfig, log logger.Logger) *Camera {
	return &Camera{
		cfg:    cfg,
		logger: log,
	}
}

func (c *Camera) Name() string {
	return fmt.Sprintf("camera:%d", c.cfg.DeviceID)
}

// Acquire opens the device on first use and returns the next frame.
func (c *Camera) Acquire(ctx context.Context) (*pixel.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.openLocked(ctx); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if ok := c.capture.Read(&c.frame); ok && !c.frame.Empty() {
			buf, err := bridge.MatToBuffer(c.frame)
			if err != nil {
				return nil, err
			}

			c.logger.Debug("Camera", "frame captured", map[string]interface{}{
				"device":   c.cfg.DeviceID,
				"width":    buf.Width,
				"height":   buf.Height,
				"attempts": attempt + 1,
			})
			return buf, nil
		}
	}

	return nil, fmt.Errorf("device %d returned no frame after %d reads", c.cfg.DeviceID, maxReadAttempts)
}

func (c *Camera) openLocked(ctx context.Context) error {
	if c.capture != nil && c.capture.IsOpened() {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to open device %d: %w", c.cfg.DeviceID, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("device %d is unavailable", c.cfg.DeviceID)
	}

	if c.cfg.Width > 0 && c.cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	}

	if !c.hasFrame {
		c.frame = gocv.NewMat()
		c.hasFrame = true
	}

	// Auto exposure needs a few frames to settle.
	for i := 0; i < c.cfg.WarmupFrames; i++ {
		if err := ctx.Err(); err != nil {
			capture.Close()
			return err
		}
		capture.Read(&c.frame)
	}

	c.capture = capture

	c.logger.Info("Camera", "device opened", map[string]interface{}{
		"device":        c.cfg.DeviceID,
		"warmup_frames": c.cfg.WarmupFrames,
		"width":         capture.Get(gocv.VideoCaptureFrameWidth),
		"height":        capture.Get(gocv.VideoCaptureFrameHeight),
	})

	return nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.capture != nil {
		if err := c.capture.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device %d: %w", c.cfg.DeviceID, err))
		}
		c.capture = nil
	}

	if c.hasFrame {
		if err := c.frame.Close(); err != nil {
			errs = append(errs, err)
		}
		c.hasFrame = false
	}

	return errors.Join(errs...)
}
