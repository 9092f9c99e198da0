// Package bridge converts OpenCV matrices into engine frames.
package bridge

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"snapfilter/internal/pixel"

	"gocv.io/x/gocv"
)

// maxPixelsEnv is read by OpenCV on its first decode.
const maxPixelsEnv = "OPENCV_IO_MAX_IMAGE_PIXELS"

// MatToBuffer converts an 8-bit Gray, BGR or BGRA Mat into an RGBA frame.
// BGRA alpha is kept; Gray and BGR frames come out opaque. The Mat is not
// modified or closed.
func MatToBuffer(mat gocv.Mat) (*pixel.Buffer, error) {
	if mat.Empty() {
		return nil, errors.New("Mat is empty")
	}

	code, err := conversionCode(mat)
	if err != nil {
		return nil, err
	}

	return toBuffer(mat, code)
}

func toBuffer(mat gocv.Mat, code gocv.ColorConversionCode) (*pixel.Buffer, error) {
	rows := mat.Rows()
	cols := mat.Cols()
	if err := pixel.CheckDimensions(cols, rows); err != nil {
		return nil, fmt.Errorf("Mat has unusable dimensions: %w", err)
	}

	rgba := gocv.NewMat()
	defer rgba.Close()

	if err := gocv.CvtColor(mat, &rgba, code); err != nil {
		return nil, fmt.Errorf("color conversion of %d-channel Mat failed: %w", mat.Channels(), err)
	}
	if rgba.Empty() {
		return nil, fmt.Errorf("color conversion produced an empty Mat for %d channels", mat.Channels())
	}

	buf, err := pixel.FromPix(cols, rows, rgba.ToBytes())
	if err != nil {
		return nil, fmt.Errorf("Mat to buffer conversion failed: %w", err)
	}

	return buf, nil
}

func conversionCode(mat gocv.Mat) (gocv.ColorConversionCode, error) {
	switch mat.Type() {
	case gocv.MatTypeCV8UC1:
		return gocv.ColorGrayToRGBA, nil
	case gocv.MatTypeCV8UC3:
		return gocv.ColorBGRToRGBA, nil
	case gocv.MatTypeCV8UC4:
		return gocv.ColorBGRAToRGBA, nil
	default:
		return 0, fmt.Errorf("unsupported Mat type %v with %d channels", mat.Type(), mat.Channels())
	}
}

// Decoder decodes image containers through OpenCV.
type Decoder struct{}

// NewDecoder caps OpenCV's decode size at pixel.MaxPixels unless the
// environment already sets a limit.
func NewDecoder() *Decoder {
	if _, ok := os.LookupEnv(maxPixelsEnv); !ok {
		os.Setenv(maxPixelsEnv, strconv.Itoa(pixel.MaxPixels))
	}
	return &Decoder{}
}

// Decode keeps alpha where the container has it. Images that do not decode
// to an 8-bit Mat (16-bit PNG, float EXR) are decoded again as 8-bit BGR.
func (d *Decoder) Decode(data []byte) (*pixel.Buffer, error) {
	buf, err := decodeWith(data, gocv.IMReadUnchanged)
	if err == nil {
		return buf, nil
	}

	buf, colorErr := decodeWith(data, gocv.IMReadColor)
	if colorErr != nil {
		return nil, errors.Join(err, colorErr)
	}
	return buf, nil
}

func decodeWith(data []byte, flags gocv.IMReadFlag) (*pixel.Buffer, error) {
	mat, err := gocv.IMDecode(data, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image with OpenCV: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("OpenCV could not decode image data")
	}

	return MatToBuffer(mat)
}
