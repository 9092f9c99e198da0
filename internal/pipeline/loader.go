package pipeline

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"snapfilter/internal/logger"
	"snapfilter/internal/pixel"

	"fyne.io/fyne/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageLoader struct {
	fallback FallbackDecoder
	logger   logger.Logger
}

func readURI(reader fyne.URIReadCloser) ([]byte, string, error) {
	if reader == nil {
		return nil, "", errors.New("no file selected")
	}

	extension := ""
	if uri := reader.URI(); uri != nil {
		extension = strings.ToLower(filepath.Ext(uri.Path()))
	}

	data, err := io.ReadAll(bufio.NewReader(reader))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	return data, extension, nil
}

func (l *imageLoader) LoadFromReader(reader fyne.URIReadCloser) (*ImageData, error) {
	data, extension, err := readURI(reader)
	if err != nil {
		return nil, err
	}
	return l.LoadFromBytes(data, extension)
}

func (l *imageLoader) LoadFromBytes(data []byte, format string) (*ImageData, error) {
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}

	buf, standardLibFormat, err := l.decode(data)
	if err != nil {
		return nil, err
	}

	actualFormat := l.determineActualFormat(format, standardLibFormat)
	imageData := newImageData(buf, actualFormat, "upload")

	l.logger.Info("ImageLoader", "image decoded", map[string]interface{}{
		"width":   imageData.Width,
		"height":  imageData.Height,
		"format":  actualFormat,
		"decoder": decoderName(standardLibFormat),
	})

	return imageData, nil
}

func (l *imageLoader) decode(data []byte) (*pixel.Buffer, string, error) {
	// Headers are checked first so a small file cannot claim a huge frame.
	if cfg, headerFormat, cfgErr := image.DecodeConfig(bytes.NewReader(data)); cfgErr == nil {
		if err := pixel.CheckDimensions(cfg.Width, cfg.Height); err != nil {
			return nil, "", fmt.Errorf("refusing to decode %s image: %w", headerFormat, err)
		}
	}

	img, standardLibFormat, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		buf, convErr := pixel.FromImage(img)
		if convErr != nil {
			return nil, "", fmt.Errorf("failed to normalize %s image: %w", standardLibFormat, convErr)
		}
		return buf, standardLibFormat, nil
	}

	if l.fallback == nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	l.logger.Debug("ImageLoader", "standard decoders failed, trying fallback", map[string]interface{}{
		"error": err.Error(),
	})

	buf, fbErr := l.fallback.Decode(data)
	if fbErr != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", errors.Join(err, fbErr))
	}

	return buf, "", nil
}

func (l *imageLoader) determineActualFormat(uriExtension, stdLibFormat string) string {
	switch strings.ToLower(uriExtension) {
	case ".tiff", ".tif", "tiff", "tif":
		return "tiff"
	case ".jpg", ".jpeg", "jpg", "jpeg":
		return "jpeg"
	case ".png", "png":
		return "png"
	case ".bmp", "bmp":
		return "bmp"
	case ".gif", "gif":
		return "gif"
	case ".webp", "webp":
		return "webp"
	default:
		if stdLibFormat != "" {
			return stdLibFormat
		}
		return "unknown"
	}
}

func decoderName(stdLibFormat string) string {
	if stdLibFormat == "" {
		return "fallback"
	}
	return "go"
}

// DecodeDataURL unpacks a base64 "data:image/...;base64," URL into raw bytes
// and the subtype named by its media type.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, "", errors.New("not a data URL")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("data URL has no payload")
	}

	params := strings.Split(meta, ";")
	if params[len(params)-1] != "base64" {
		return nil, "", errors.New("data URL is not base64 encoded")
	}

	format := ""
	if mediaType, ok := strings.CutPrefix(params[0], "image/"); ok {
		format = mediaType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid data URL payload: %w", err)
	}

	return data, format, nil
}
