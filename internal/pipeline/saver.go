package pipeline

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"snapfilter/internal/config"
	"snapfilter/internal/logger"
	"snapfilter/internal/pixel"

	"fyne.io/fyne/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type imageSaver struct {
	defaultFormat string
	jpegQuality   int
	logger        logger.Logger
}

func (s *imageSaver) SaveToWriter(writer io.Writer, imageData *ImageData, format string) error {
	if imageData == nil || imageData.Buffer == nil {
		return errors.New("no image data to save")
	}

	saveFormat := config.NormalizeFormat(format)
	if saveFormat == "" {
		if uriWriter, ok := writer.(fyne.URIWriteCloser); ok && uriWriter.URI() != nil {
			saveFormat = config.NormalizeFormat(uriWriter.URI().Extension())
		}
	}
	if saveFormat == "" {
		saveFormat = config.NormalizeFormat(s.defaultFormat)
	}

	err := s.encode(writer, imageData.Buffer.NRGBA(), saveFormat)
	if err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": saveFormat,
		})
		return err
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"format": saveFormat,
		"width":  imageData.Width,
		"height": imageData.Height,
	})

	return nil
}

func (s *imageSaver) encode(writer io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		quality := s.jpegQuality
		if quality < 1 || quality > 100 {
			quality = 95
		}
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	case "bmp":
		return bmp.Encode(writer, img)
	case "tiff":
		return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	case "png", "":
		return png.Encode(writer, img)
	default:
		s.logger.Warning("ImageSaver", "format not supported, using PNG", map[string]interface{}{
			"requested_format": format,
		})
		return png.Encode(writer, img)
	}
}

// EncodeDataURL renders buf as a base64 PNG data URL.
func EncodeDataURL(buf *pixel.Buffer) (string, error) {
	if buf == nil {
		return "", errors.New("no image data to encode")
	}

	var out bytes.Buffer
	if err := png.Encode(&out, buf.NRGBA()); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(out.Bytes()), nil
}
