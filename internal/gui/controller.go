package gui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"snapfilter/internal/gui/widgets"
	"snapfilter/internal/logger"
	"snapfilter/internal/pipeline"
	"snapfilter/internal/session"

	"fyne.io/fyne/v2"
)

const commandTimeout = 30 * time.Second

var saveExtensions = map[string]string{
	"PNG":  ".png",
	"JPEG": ".jpg",
	"BMP":  ".bmp",
	"TIFF": ".tiff",
}

type Controller struct {
	view        *View
	coordinator pipeline.ProcessingCoordinator
	logger      logger.Logger

	mu            sync.RWMutex
	displayNames  map[string]string
	commandActive bool
	commandCancel context.CancelFunc
}

func NewController(coord pipeline.ProcessingCoordinator, log logger.Logger) *Controller {
	c := &Controller{
		coordinator:  coord,
		logger:       log,
		displayNames: make(map[string]string),
	}

	if coord != nil {
		for _, f := range coord.Filters() {
			c.displayNames[f.Name()] = f.DisplayName()
		}
	}

	return c
}

func (c *Controller) SetView(view *View) {
	c.view = view
	if c.coordinator == nil {
		return
	}

	entries := make([]widgets.FilterButton, 0, len(c.displayNames))
	for _, f := range c.coordinator.Filters() {
		entries = append(entries, widgets.FilterButton{Name: f.Name(), Label: f.DisplayName()})
	}

	fyne.Do(func() {
		c.view.SetFilters(entries)
	})
}

func (c *Controller) CaptureCamera() {
	c.runCommand("Capturing from camera...", "Frame captured", func(ctx context.Context) (*pipeline.ImageData, error) {
		return c.coordinator.CaptureFromCamera(ctx)
	})
}

func (c *Controller) UploadImage() {
	c.view.ShowFileDialog(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("File selection error", err)
			return
		}
		if reader == nil {
			return
		}

		c.runCommand("Loading image...", "Image loaded", func(ctx context.Context) (*pipeline.ImageData, error) {
			defer reader.Close()
			return c.coordinator.LoadImage(reader)
		})
	})
}

func (c *Controller) Recapture() {
	c.runCommand("Recapturing...", "Recaptured", func(ctx context.Context) (*pipeline.ImageData, error) {
		return c.coordinator.Recapture(ctx)
	})
}

func (c *Controller) ApplyFilter(name string) {
	label := c.displayName(name)
	c.runCommand(fmt.Sprintf("Applying %s...", label), fmt.Sprintf("%s applied", label), func(ctx context.Context) (*pipeline.ImageData, error) {
		return c.coordinator.ApplyFilter(ctx, name)
	})
}

// runCommand executes one session command off the UI goroutine. Only one
// command runs at a time; clicks while busy are dropped.
func (c *Controller) runCommand(status, done string, command func(ctx context.Context) (*pipeline.ImageData, error)) {
	ctx, cancel := context.WithTimeout(c.coordinator.Context(), commandTimeout)
	if !c.begin(cancel) {
		cancel()
		return
	}

	fyne.Do(func() {
		c.view.SetControls(true, false)
		c.updateStatus(status)
	})

	go func() {
		defer cancel()

		start := time.Now()
		result, err := command(ctx)
		elapsed := time.Since(start)
		c.end()

		loaded := c.coordinator.Session().State != session.Empty

		fyne.Do(func() {
			c.view.SetControls(false, loaded)

			if err != nil {
				c.updateStatus(failureStatus(err))
				c.handleError("Command failed", err)
				return
			}

			c.refreshImages()
			c.updateStatus(done)

			c.logger.Info("Controller", "command completed", map[string]interface{}{
				"status":   done,
				"width":    result.Width,
				"height":   result.Height,
				"duration": elapsed,
			})
		})
	}()
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, session.ErrNoWorkingImage):
		return "Capture or upload an image first"
	case errors.Is(err, session.ErrAcquisition):
		return "Acquisition failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out"
	default:
		return "Failed"
	}
}

func (c *Controller) refreshImages() {
	current := c.coordinator.Session()
	original := c.coordinator.GetOriginalImage()
	displayed := c.coordinator.GetDisplayedImage()

	c.view.SetOriginalImage(original.Image())

	if current.State != session.Filtered {
		c.view.SetPreviewImage(displayed.Image(), "")
		c.view.SetMetrics(0)
		return
	}

	c.view.SetPreviewImage(displayed.Image(), c.displayName(current.LastFilter))
	c.view.SetMetrics(c.coordinator.CalculatePSNR(original, displayed))
}

func (c *Controller) SaveImage() {
	imageData := c.coordinator.GetDisplayedImage()
	if imageData == nil {
		c.handleError("Save error", session.ErrNoWorkingImage)
		return
	}

	c.view.ShowSaveDialog(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			c.handleError("File save error", err)
			return
		}
		if writer == nil {
			return
		}

		ext := strings.ToLower(writer.URI().Extension())
		if ext == "" {
			c.showFormatSelectionDialog(writer, imageData)
			return
		}

		c.saveImageWithWriter(writer, imageData)
	})
}

func (c *Controller) CopyDataURL() {
	imageData := c.coordinator.GetDisplayedImage()
	if imageData == nil {
		c.handleError("Copy error", session.ErrNoWorkingImage)
		return
	}

	go func() {
		dataURL, err := pipeline.EncodeDataURL(imageData.Buffer)

		fyne.Do(func() {
			if err != nil {
				c.handleError("Encode error", err)
				return
			}

			c.view.SetClipboard(dataURL)
			c.updateStatus("Data URL copied")
			c.logger.Debug("Controller", "data URL copied", map[string]interface{}{
				"length": len(dataURL),
			})
		})
	}()
}

func (c *Controller) showFormatSelectionDialog(writer fyne.URIWriteCloser, imageData *pipeline.ImageData) {
	originalPath := writer.URI().Path()
	writer.Close()

	if err := os.Remove(originalPath); err != nil {
		c.logger.Debug("Controller", "failed to remove empty file", map[string]interface{}{
			"path":  originalPath,
			"error": err.Error(),
		})
	}

	fyne.Do(func() {
		c.view.ShowFormatSelectionDialog(func(format string, confirmed bool) {
			if !confirmed {
				return
			}

			c.saveImageWithFormat(originalPath, imageData, format)
		})
	})
}

func (c *Controller) saveImageWithFormat(imagePath string, imageData *pipeline.ImageData, format string) {
	fyne.Do(func() {
		c.updateStatus("Saving image...")
	})

	go func() {
		ext, ok := saveExtensions[format]
		if !ok {
			ext = ".png"
		}
		finalPath := imagePath + ext

		file, err := os.Create(finalPath)
		if err != nil {
			c.handleError("File create error", err)
			return
		}
		defer file.Close()

		saveErr := c.coordinator.SaveImageToWriter(file, imageData, format)

		fyne.Do(func() {
			if saveErr != nil {
				c.handleError("Image save error", saveErr)
				return
			}
			c.updateStatus("Image saved")
			c.logger.Info("Controller", "image saved with format", map[string]interface{}{
				"path":   finalPath,
				"format": format,
			})
		})
	}()
}

func (c *Controller) saveImageWithWriter(writer fyne.URIWriteCloser, imageData *pipeline.ImageData) {
	fyne.Do(func() {
		c.updateStatus("Saving image...")
	})

	go func() {
		defer writer.Close()

		saveErr := c.coordinator.SaveImage(writer, imageData)

		fyne.Do(func() {
			if saveErr != nil {
				c.handleError("Image save error", saveErr)
				return
			}
			c.updateStatus("Image saved")
		})
	}()
}

func (c *Controller) displayName(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if label, ok := c.displayNames[name]; ok {
		return label
	}
	return name
}

func (c *Controller) begin(cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commandActive {
		return false
	}
	c.commandActive = true
	c.commandCancel = cancel
	return true
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandActive = false
	c.commandCancel = nil
}

func (c *Controller) CancelCommand() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commandCancel != nil {
		c.commandCancel()
	}
}

func (c *Controller) updateStatus(status string) {
	c.view.SetStatus(status)
}

func (c *Controller) handleError(title string, err error) {
	c.logger.Error("Controller", err, map[string]interface{}{
		"title": title,
	})

	fyne.Do(func() {
		c.view.ShowError(title, err)
	})
}

func (c *Controller) Shutdown() {
	c.CancelCommand()
	c.logger.Info("Controller", "shutdown completed", nil)
}
