// Package pixel holds the RGBA frame buffer shared by every filter and the
// clamp-to-edge sampling rules used by neighborhood operations.
package pixel

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Channels is the number of samples per pixel: R, G, B, A.
const Channels = 4

const maxDimension = 32768

// MaxPixels caps Width*Height for any frame the program will allocate.
const MaxPixels = 1 << 26

// Buffer is an owned W×H grid of 8-bit R,G,B,A samples, row-major, top to
// bottom. Color samples are not premultiplied by alpha.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed (transparent black) frame.
func New(width, height int) (*Buffer, error) {
	if err := CheckDimensions(width, height); err != nil {
		return nil, err
	}

	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}, nil
}

// FromImage copies any decoded image into a new buffer with straight alpha,
// the layout a canvas getImageData call returns.
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	buf, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	if src, ok := img.(*image.NRGBA); ok {
		rowLen := buf.Width * Channels
		for y := 0; y < buf.Height; y++ {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Pix[y*rowLen:(y+1)*rowLen], src.Pix[start:start+rowLen])
		}
		return buf, nil
	}

	draw.Draw(buf.nrgba(), buf.Bounds(), img, bounds.Min, draw.Src)

	return buf, nil
}

// FromPix wraps an existing RGBA sample slice. The slice is not copied.
func FromPix(width, height int, pix []uint8) (*Buffer, error) {
	if err := CheckDimensions(width, height); err != nil {
		return nil, err
	}

	if len(pix) != width*height*Channels {
		return nil, fmt.Errorf("sample length %d does not match %dx%d frame", len(pix), width, height)
	}

	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// Len is the number of samples, Width*Height*Channels for a consistent frame.
func (b *Buffer) Len() int {
	return len(b.Pix)
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// Sample returns the pixel at (x, y) after clamping each axis into the frame.
func (b *Buffer) Sample(x, y int) (r, g, bl, a uint8) {
	cx := ClampInt(x, 0, b.Width-1)
	cy := ClampInt(y, 0, b.Height-1)
	i := b.offset(cx, cy)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Set saturates each channel into [0,255] and stores it. Writes outside the
// frame are ignored.
func (b *Buffer) Set(x, y int, r, g, bl, a float64) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}

	i := b.offset(x, y)
	b.Pix[i] = Saturate(r)
	b.Pix[i+1] = Saturate(g)
	b.Pix[i+2] = Saturate(bl)
	b.Pix[i+3] = Saturate(a)
}

func (b *Buffer) SetRGBA(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}

	i := b.offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// SameSize reports whether two buffers share dimensions.
func (b *Buffer) SameSize(other *Buffer) bool {
	return other != nil && b.Width == other.Width && b.Height == other.Height
}

// MustBeConsistent panics when the sample slice disagrees with the frame
// dimensions. A mismatch is a programming error, never a runtime condition.
func (b *Buffer) MustBeConsistent() {
	if b.Width < 1 || b.Height < 1 || len(b.Pix) != b.Width*b.Height*Channels {
		panic(fmt.Sprintf("pixel: dimension mismatch: %dx%d frame with %d samples", b.Width, b.Height, len(b.Pix)))
	}
}

// nrgba views the samples as an image without copying.
func (b *Buffer) nrgba() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * Channels,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// NRGBA returns a copy of the buffer as a standard library image.
func (b *Buffer) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// RGBA returns an alpha-premultiplied copy.
func (b *Buffer) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	draw.Draw(img, img.Rect, b.nrgba(), image.Point{}, draw.Src)
	return img
}

func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

func (b *Buffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.NRGBA{}
	}

	r, g, bl, a := b.Sample(x, y)
	return color.NRGBA{R: r, G: g, B: bl, A: a}
}

// CheckDimensions rejects frames that are empty or larger than the program
// will allocate. Decoders call it with header dimensions before decoding.
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}

	if width > maxDimension || height > maxDimension || width*height > MaxPixels {
		return fmt.Errorf("dimensions %dx%d exceed maximum size", width, height)
	}

	return nil
}
