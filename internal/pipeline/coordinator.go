package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"
	"time"

	"snapfilter/internal/config"
	"snapfilter/internal/filters"
	"snapfilter/internal/logger"
	"snapfilter/internal/pixel"
	"snapfilter/internal/session"

	"fyne.io/fyne/v2"
)

// FrameSource delivers one frame per call, for example a camera grab.
type FrameSource interface {
	Acquire(ctx context.Context) (*pixel.Buffer, error)
	Name() string
}

// FallbackDecoder decodes containers the Go image decoders reject.
type FallbackDecoder interface {
	Decode(data []byte) (*pixel.Buffer, error)
}

type ImageLoader interface {
	LoadFromReader(reader fyne.URIReadCloser) (*ImageData, error)
	LoadFromBytes(data []byte, format string) (*ImageData, error)
}

type ImageSaver interface {
	SaveToWriter(writer io.Writer, imageData *ImageData, format string) error
}

type ProcessingCoordinator interface {
	LoadImage(reader fyne.URIReadCloser) (*ImageData, error)
	LoadFromBytes(data []byte, format string) (*ImageData, error)
	LoadFromDataURL(dataURL string) (*ImageData, error)
	CaptureFromCamera(ctx context.Context) (*ImageData, error)
	Recapture(ctx context.Context) (*ImageData, error)
	ApplyFilter(ctx context.Context, name string) (*ImageData, error)
	Execute(ctx context.Context, cmd session.Command) (*ImageData, error)
	SaveImage(writer fyne.URIWriteCloser, imageData *ImageData) error
	SaveImageToWriter(writer io.Writer, imageData *ImageData, format string) error
	GetOriginalImage() *ImageData
	GetProcessedImage() *ImageData
	GetDisplayedImage() *ImageData
	Session() session.Session
	Filters() []filters.Filter
	CalculatePSNR(original, processed *ImageData) float64
	Context() context.Context
	Cancel()
}

// ImageData is a frame plus the metadata the GUI and saver need.
type ImageData struct {
	Buffer *pixel.Buffer
	Width  int
	Height int
	Format string
	Source string
}

func newImageData(buf *pixel.Buffer, format, source string) *ImageData {
	if buf == nil {
		return nil
	}
	return &ImageData{
		Buffer: buf,
		Width:  buf.Width,
		Height: buf.Height,
		Format: format,
		Source: source,
	}
}

func (d *ImageData) Image() image.Image {
	if d == nil || d.Buffer == nil {
		return nil
	}
	return d.Buffer
}

type Options struct {
	Camera       FrameSource
	Fallback     FallbackDecoder
	ChainFilters bool
	ExportFormat string
	JPEGQuality  int
}

// OptionsFromConfig copies the session and export settings; sources are wired
// by the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ChainFilters: cfg.Session.ChainFilters,
		ExportFormat: cfg.Export.Format,
		JPEGQuality:  cfg.Export.JPEGQuality,
	}
}

type Coordinator struct {
	mu        sync.Mutex
	session   session.Session
	format    string
	catalog   *filters.Manager
	camera    FrameSource
	loader    *imageLoader
	processor *imageProcessor
	saver     *imageSaver
	logger    logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewCoordinator(opts Options, log logger.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	catalog := filters.NewManager()

	coord := &Coordinator{
		session: session.New(opts.ChainFilters),
		catalog: catalog,
		camera:  opts.Camera,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
	}

	coord.loader = &imageLoader{
		fallback: opts.Fallback,
		logger:   log,
	}

	coord.processor = &imageProcessor{
		catalog: catalog,
		logger:  log,
	}

	coord.saver = &imageSaver{
		defaultFormat: opts.ExportFormat,
		jpegQuality:   opts.JPEGQuality,
		logger:        log,
	}

	log.Info("PipelineCoordinator", "initialized", map[string]interface{}{
		"chain_filters": opts.ChainFilters,
		"camera":        opts.Camera != nil,
		"filters":       catalog.Names(),
	})
	return coord
}

func (c *Coordinator) LoadImage(reader fyne.URIReadCloser) (*ImageData, error) {
	data, format, err := readURI(reader)
	if err != nil {
		err = session.NewAcquisitionError(session.AcquireUpload.String(), err)
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "load_image",
		})
		return nil, err
	}

	return c.LoadFromBytes(data, format)
}

func (c *Coordinator) LoadFromBytes(data []byte, format string) (*ImageData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()

	decoded, err := c.loader.LoadFromBytes(data, format)
	if err != nil {
		err = session.NewAcquisitionError(session.AcquireUpload.String(), err)
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "load_image",
			"state":     c.session.State.String(),
		})
		return nil, err
	}

	if err := c.dispatchLocked(session.AcquireUpload, decoded.Buffer); err != nil {
		return nil, err
	}
	c.format = decoded.Format

	c.logger.Info("PipelineCoordinator", "image loaded", map[string]interface{}{
		"width":     decoded.Width,
		"height":    decoded.Height,
		"format":    decoded.Format,
		"load_time": time.Since(start),
	})

	return decoded, nil
}

func (c *Coordinator) LoadFromDataURL(dataURL string) (*ImageData, error) {
	data, format, err := DecodeDataURL(dataURL)
	if err != nil {
		err = session.NewAcquisitionError(session.AcquireUpload.String(), err)
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "load_data_url",
		})
		return nil, err
	}

	return c.LoadFromBytes(data, format)
}

func (c *Coordinator) CaptureFromCamera(ctx context.Context) (*ImageData, error) {
	return c.Execute(ctx, session.AcquireCamera)
}

func (c *Coordinator) Recapture(ctx context.Context) (*ImageData, error) {
	return c.Execute(ctx, session.Recapture)
}

func (c *Coordinator) ApplyFilter(ctx context.Context, name string) (*ImageData, error) {
	cmd, err := session.CommandForFilter(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", filters.ErrUnknownFilter, name)
	}
	return c.Execute(ctx, cmd)
}

// Execute runs one command against the session. Commands are serialized; a
// second caller waits until the first returns.
func (c *Coordinator) Execute(ctx context.Context, cmd session.Command) (*ImageData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	switch cmd {
	case session.AcquireUpload:
		return nil, fmt.Errorf("%s needs file data: use LoadImage or LoadFromBytes", cmd)

	case session.AcquireCamera:
		frame, err := c.grabLocked(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.dispatchLocked(cmd, frame); err != nil {
			return nil, err
		}
		c.format = "png"

	case session.Recapture:
		var frame *pixel.Buffer
		if c.session.Origin == session.OriginCamera && c.camera != nil {
			grabbed, err := c.grabLocked(ctx)
			if err != nil {
				return nil, err
			}
			frame = grabbed
		}
		if err := c.dispatchLocked(cmd, frame); err != nil {
			return nil, err
		}

	default:
		next, err := c.processor.Process(c.session, cmd)
		if err != nil {
			c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
				"command": cmd.String(),
				"state":   c.session.State.String(),
			})
			return nil, err
		}
		c.session = next
	}

	result := newImageData(c.session.Displayed(), c.format, c.session.Origin.String())

	c.logger.Info("PipelineCoordinator", "command completed", map[string]interface{}{
		"command":  cmd.String(),
		"state":    c.session.State.String(),
		"width":    result.Width,
		"height":   result.Height,
		"duration": time.Since(start),
	})

	return result, nil
}

func (c *Coordinator) grabLocked(ctx context.Context) (*pixel.Buffer, error) {
	if c.camera == nil {
		err := session.NewAcquisitionError(session.AcquireCamera.String(), errors.New("no camera configured"))
		c.logger.Error("PipelineCoordinator", err, nil)
		return nil, err
	}

	frame, err := c.camera.Acquire(ctx)
	if err != nil {
		err = session.NewAcquisitionError(c.camera.Name(), err)
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "camera_capture",
		})
		return nil, err
	}

	return frame, nil
}

func (c *Coordinator) dispatchLocked(cmd session.Command, frame *pixel.Buffer) error {
	next, err := session.Dispatch(c.session, cmd, frame, c.catalog)
	if err != nil {
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"command": cmd.String(),
		})
		return err
	}

	c.session = next
	return nil
}

func (c *Coordinator) SaveImage(writer fyne.URIWriteCloser, imageData *ImageData) error {
	start := time.Now()
	err := c.saver.SaveToWriter(writer, imageData, "")
	if err != nil {
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "save_image",
		})
		return err
	}

	c.logger.Info("PipelineCoordinator", "image saved", map[string]interface{}{
		"path":      writer.URI().Path(),
		"save_time": time.Since(start),
	})

	return nil
}

func (c *Coordinator) SaveImageToWriter(writer io.Writer, imageData *ImageData, format string) error {
	start := time.Now()
	err := c.saver.SaveToWriter(writer, imageData, strings.ToLower(format))
	if err != nil {
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "save_image_with_format",
			"format":    format,
		})
		return err
	}

	c.logger.Info("PipelineCoordinator", "image saved with format", map[string]interface{}{
		"format":    format,
		"save_time": time.Since(start),
	})

	return nil
}

func (c *Coordinator) GetOriginalImage() *ImageData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newImageData(c.session.LastRawSource, c.format, c.session.Origin.String())
}

func (c *Coordinator) GetProcessedImage() *ImageData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newImageData(c.session.Output, c.format, c.session.Origin.String())
}

func (c *Coordinator) GetDisplayedImage() *ImageData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newImageData(c.session.Displayed(), c.format, c.session.Origin.String())
}

func (c *Coordinator) Session() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Coordinator) Filters() []filters.Filter {
	names := c.catalog.Names()
	list := make([]filters.Filter, 0, len(names))
	for _, name := range names {
		if f, err := c.catalog.Get(name); err == nil {
			list = append(list, f)
		}
	}
	return list
}

func (c *Coordinator) CalculatePSNR(original, processed *ImageData) float64 {
	if original == nil || processed == nil {
		return 0
	}
	return PSNR(original.Buffer, processed.Buffer)
}

func (c *Coordinator) Context() context.Context {
	return c.ctx
}

func (c *Coordinator) Cancel() {
	c.cancel()
}

type closer interface {
	Close() error
}

func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("PipelineCoordinator", "shutdown started", nil)

	c.cancel()

	if cam, ok := c.camera.(closer); ok {
		if err := cam.Close(); err != nil {
			c.logger.Warning("PipelineCoordinator", "camera close failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	c.session = session.New(c.session.ChainFilters)

	c.logger.Info("PipelineCoordinator", "shutdown completed", nil)
}
