package pixel

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientBuffer(t *testing.T, w, h int) *Buffer {
	t.Helper()
	buf, err := New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: uint8(x + y), A: 255})
		}
	}
	return buf
}

func TestNewSampleLength(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 3}, {17, 5}, {640, 480}}
	for _, s := range sizes {
		buf, err := New(s[0], s[1])
		require.NoError(t, err)
		assert.Equal(t, s[0]*s[1]*Channels, buf.Len())
		assert.NotPanics(t, buf.MustBeConsistent)
	}
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	for _, s := range [][2]int{{0, 1}, {1, 0}, {-3, 4}, {maxDimension + 1, 1}, {30000, 30000}} {
		_, err := New(s[0], s[1])
		assert.Error(t, err, "size %v", s)
	}
}

func TestSampleClampsToEdge(t *testing.T) {
	buf := gradientBuffer(t, 4, 3)

	tests := []struct {
		name   string
		x, y   int
		wx, wy int
	}{
		{"top-left corner", 0, 0, 0, 0},
		{"bottom-right corner", 3, 2, 3, 2},
		{"left of frame", -1, 1, 0, 1},
		{"far left", -50, 1, 0, 1},
		{"right of frame", 4, 1, 3, 1},
		{"above frame", 2, -1, 2, 0},
		{"below frame", 2, 3, 2, 2},
		{"both axes out", -2, 9, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := buf.Sample(tt.x, tt.y)
			er, eg, eb, ea := buf.Sample(tt.wx, tt.wy)
			assert.Equal(t, []uint8{er, eg, eb, ea}, []uint8{r, g, b, a})
		})
	}

	r, g, b, _ := buf.Sample(3, 2)
	assert.Equal(t, []uint8{30, 20, 5}, []uint8{r, g, b})
}

func TestSetSaturates(t *testing.T) {
	buf, err := New(1, 1)
	require.NoError(t, err)

	buf.Set(0, 0, 300, -20, 127.6, 255)
	r, g, b, a := buf.Sample(0, 0)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(128), b)
	assert.Equal(t, uint8(255), a)

	buf.Set(5, 5, 1, 1, 1, 1)
	assert.Equal(t, []uint8{255, 0, 128, 255}, buf.Pix)
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-1000, 0},
		{-0.4, 0},
		{0, 0},
		{0.5, 0},
		{1.5, 2},
		{119.99999, 120},
		{120.00000000000001, 120},
		{254.5, 254},
		{255, 255},
		{300, 255},
		{math.Inf(1), 255},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Saturate(tt.in), "Saturate(%v)", tt.in)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	buf := gradientBuffer(t, 3, 3)
	clone := buf.Clone()
	clone.Set(1, 1, 0, 0, 0, 0)

	r, _, _, _ := buf.Sample(1, 1)
	assert.Equal(t, uint8(10), r)
	assert.True(t, buf.SameSize(clone))
}

func TestFromImageKeepsStraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 13, 11))
	src.SetNRGBA(10, 10, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	src.SetNRGBA(11, 10, color.NRGBA{R: 255, G: 0, B: 0, A: 128})
	src.SetNRGBA(12, 10, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	buf, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, 3, buf.Width)
	assert.Equal(t, 1, buf.Height)
	assert.Equal(t, []uint8{200, 100, 50, 255, 255, 0, 0, 128, 200, 100, 50, 0}, buf.Pix)
}

func TestFromImagePremultipliedSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 100, G: 50, B: 0, A: 200})

	buf, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, []uint8{127, 63, 0, 200}, buf.Pix)
}

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, CheckDimensions(4096, 4096))
	assert.Error(t, CheckDimensions(30000, 30000))
	assert.Error(t, CheckDimensions(maxDimension+1, 1))
	assert.Error(t, CheckDimensions(0, 10))
}

func TestFromImageNil(t *testing.T) {
	_, err := FromImage(nil)
	assert.Error(t, err)
}

func TestFromPixLengthCheck(t *testing.T) {
	_, err := FromPix(2, 2, make([]uint8, 15))
	assert.Error(t, err)

	buf, err := FromPix(2, 2, make([]uint8, 16))
	require.NoError(t, err)
	assert.Equal(t, 16, buf.Len())
}

func TestMustBeConsistentPanics(t *testing.T) {
	buf := &Buffer{Width: 2, Height: 2, Pix: make([]uint8, 12)}
	assert.Panics(t, buf.MustBeConsistent)
}

func TestImageInterface(t *testing.T) {
	buf := gradientBuffer(t, 2, 2)
	var img image.Image = buf

	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 10, B: 2, A: 255}, img.At(1, 1))
	assert.Equal(t, color.NRGBA{}, img.At(5, 5))

	nrgba := buf.NRGBA()
	assert.Equal(t, buf.Pix, nrgba.Pix)
	nrgba.Pix[0] = 99
	assert.NotEqual(t, uint8(99), buf.Pix[0])

	rgba := buf.RGBA()
	assert.Equal(t, buf.Pix, rgba.Pix)
}

func TestRGBAPremultiplies(t *testing.T) {
	buf, err := FromPix(1, 1, []uint8{255, 0, 0, 128})
	require.NoError(t, err)
	assert.Equal(t, []uint8{128, 0, 0, 128}, buf.RGBA().Pix)
	assert.Equal(t, []uint8{255, 0, 0, 128}, buf.NRGBA().Pix)
}

func TestLuminanceOfWhite(t *testing.T) {
	assert.InDelta(t, 255.0, Luminance(255, 255, 255), 1e-9)
	assert.Equal(t, 0.0, Luminance(0, 0, 0))
}
