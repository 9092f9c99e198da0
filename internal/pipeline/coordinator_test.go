package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"runtime"
	"testing"

	"snapfilter/internal/filters"
	"snapfilter/internal/logger"
	"snapfilter/internal/pixel"
	"snapfilter/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCamera struct {
	frames []*pixel.Buffer
	err    error
	calls  int
	closed bool
}

func (f *fakeCamera) Acquire(ctx context.Context) (*pixel.Buffer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	frame := f.frames[0]
	if len(f.frames) > 1 {
		f.frames = f.frames[1:]
	}
	return frame.Clone(), nil
}

func (f *fakeCamera) Name() string { return "fake-camera" }

func (f *fakeCamera) Close() error {
	f.closed = true
	return nil
}

type fakeDecoder struct {
	frame *pixel.Buffer
	err   error
	calls int
}

func (f *fakeDecoder) Decode(data []byte) (*pixel.Buffer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.frame.Clone(), nil
}

type uriReader struct {
	io.Reader
	uri fyne.URI
}

func (r *uriReader) Close() error  { return nil }
func (r *uriReader) URI() fyne.URI { return r.uri }

type uriWriter struct {
	bytes.Buffer
	uri fyne.URI
}

func (w *uriWriter) Close() error  { return nil }
func (w *uriWriter) URI() fyne.URI { return w.uri }

func solid(t *testing.T, w, h int, c color.RGBA) *pixel.Buffer {
	t.Helper()
	buf, err := pixel.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGBA(x, y, c)
		}
	}
	return buf
}

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var out bytes.Buffer
	require.NoError(t, png.Encode(&out, img))
	return out.Bytes()
}

func newTestCoordinator(opts Options) *Coordinator {
	return NewCoordinator(opts, logger.NewNop())
}

func TestLoadFromBytes(t *testing.T) {
	c := newTestCoordinator(Options{ChainFilters: true})

	data, err := c.LoadFromBytes(pngBytes(t, 4, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), ".png")
	require.NoError(t, err)
	assert.Equal(t, 4, data.Width)
	assert.Equal(t, 3, data.Height)
	assert.Equal(t, "png", data.Format)

	s := c.Session()
	assert.Equal(t, session.Loaded, s.State)
	assert.Equal(t, session.OriginUpload, s.Origin)
	assert.Equal(t, []uint8{10, 20, 30, 255}, s.Working.Pix[:4])
	assert.NotNil(t, c.GetOriginalImage())
	assert.Nil(t, c.GetProcessedImage())
}

func TestLoadImageFromURIReader(t *testing.T) {
	c := newTestCoordinator(Options{})
	reader := &uriReader{
		Reader: bytes.NewReader(pngBytes(t, 2, 2, color.NRGBA{R: 1, A: 255})),
		uri:    storage.NewFileURI("/tmp/frame.PNG"),
	}

	data, err := c.LoadImage(reader)
	require.NoError(t, err)
	assert.Equal(t, "png", data.Format)
	assert.Equal(t, session.Loaded, c.Session().State)
}

func TestLoadCorruptDataLeavesSessionUntouched(t *testing.T) {
	c := newTestCoordinator(Options{})
	_, err := c.LoadFromBytes(pngBytes(t, 2, 2, color.NRGBA{R: 5, A: 255}), "png")
	require.NoError(t, err)
	before := c.Session()

	_, err = c.LoadFromBytes([]byte("definitely not an image"), "png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrAcquisition))

	after := c.Session()
	assert.Same(t, before.Working, after.Working)
	assert.Equal(t, session.Loaded, after.State)

	_, err = c.LoadFromBytes(nil, "png")
	assert.True(t, errors.Is(err, session.ErrAcquisition))
}

func TestTranslucentUploadKeepsAlphaThroughGrayscale(t *testing.T) {
	c := newTestCoordinator(Options{ChainFilters: true})
	_, err := c.LoadFromBytes(pngBytes(t, 1, 1, color.NRGBA{R: 255, G: 0, B: 0, A: 128}), "png")
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 128}, c.Session().Working.Pix)

	out, err := c.ApplyFilter(context.Background(), filters.GrayscaleName)
	require.NoError(t, err)
	assert.Equal(t, []uint8{85, 85, 85, 128}, out.Buffer.Pix)

	var saved bytes.Buffer
	require.NoError(t, c.SaveImageToWriter(&saved, out, "png"))
	reloaded, err := newTestCoordinator(Options{}).LoadFromBytes(saved.Bytes(), "png")
	require.NoError(t, err)
	assert.Equal(t, []uint8{85, 85, 85, 128}, reloaded.Buffer.Pix)
}

// inflatedPNG returns a 1×1 gray PNG whose IHDR claims width×height.
func inflatedPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, png.Encode(&out, image.NewGray(image.Rect(0, 0, 1, 1))))

	data := out.Bytes()
	require.Equal(t, "IHDR", string(data[12:16]))
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestOversizedHeaderRejectedBeforeDecode(t *testing.T) {
	fallback := &fakeDecoder{frame: solid(t, 1, 1, color.RGBA{A: 255})}
	c := newTestCoordinator(Options{Fallback: fallback})
	data := inflatedPNG(t, 30000, 30000)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := c.LoadFromBytes(data, "png")
	runtime.ReadMemStats(&after)

	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrAcquisition))
	assert.Contains(t, err.Error(), "exceed maximum size")
	assert.Zero(t, fallback.calls)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
	assert.Equal(t, session.Empty, c.Session().State)
}

func TestFallbackDecoder(t *testing.T) {
	frame := solid(t, 3, 1, color.RGBA{R: 7, A: 255})
	c := newTestCoordinator(Options{Fallback: &fakeDecoder{frame: frame}})

	data, err := c.LoadFromBytes([]byte("raw sensor dump"), ".cr2")
	require.NoError(t, err)
	assert.Equal(t, 3, data.Width)
	assert.Equal(t, "unknown", data.Format)

	failing := newTestCoordinator(Options{Fallback: &fakeDecoder{err: errors.New("opencv: empty mat")}})
	_, err = failing.LoadFromBytes([]byte("raw sensor dump"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opencv: empty mat")
}

func TestFilterBeforeAcquisition(t *testing.T) {
	c := newTestCoordinator(Options{})
	for _, f := range c.Filters() {
		_, err := c.ApplyFilter(context.Background(), f.Name())
		assert.True(t, errors.Is(err, session.ErrNoWorkingImage), f.Name())
	}
	assert.Equal(t, session.Empty, c.Session().State)
}

func TestUnknownFilter(t *testing.T) {
	c := newTestCoordinator(Options{})
	_, err := c.ApplyFilter(context.Background(), "emboss")
	assert.True(t, errors.Is(err, filters.ErrUnknownFilter))
}

func TestApplyFilterChains(t *testing.T) {
	c := newTestCoordinator(Options{ChainFilters: true})
	_, err := c.LoadFromBytes(pngBytes(t, 2, 2, color.NRGBA{R: 100, G: 100, B: 100, A: 255}), "png")
	require.NoError(t, err)

	out, err := c.ApplyFilter(context.Background(), filters.BrightnessName)
	require.NoError(t, err)
	assert.Equal(t, uint8(120), out.Buffer.Pix[0])

	out, err = c.ApplyFilter(context.Background(), filters.BrightnessName)
	require.NoError(t, err)
	assert.Equal(t, uint8(144), out.Buffer.Pix[0])

	assert.Equal(t, uint8(100), c.GetOriginalImage().Buffer.Pix[0])
	assert.Equal(t, session.Filtered, c.Session().State)
}

func TestApplyFilterWithoutChaining(t *testing.T) {
	c := newTestCoordinator(Options{ChainFilters: false})
	_, err := c.LoadFromBytes(pngBytes(t, 2, 2, color.NRGBA{R: 100, G: 100, B: 100, A: 255}), "png")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := c.ApplyFilter(context.Background(), filters.BrightnessName)
		require.NoError(t, err)
		assert.Equal(t, uint8(120), out.Buffer.Pix[0])
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestCoordinator(Options{})
	_, err := c.LoadFromBytes(pngBytes(t, 2, 2, color.NRGBA{A: 255}), "png")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ApplyFilter(ctx, filters.SobelName)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, session.Loaded, c.Session().State)
}

func TestCaptureFromCamera(t *testing.T) {
	cam := &fakeCamera{frames: []*pixel.Buffer{
		solid(t, 2, 2, color.RGBA{R: 1, A: 255}),
		solid(t, 2, 2, color.RGBA{R: 2, A: 255}),
	}}
	c := newTestCoordinator(Options{Camera: cam, ChainFilters: true})

	data, err := c.CaptureFromCamera(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(1), data.Buffer.Pix[0])
	assert.Equal(t, session.OriginCamera, c.Session().Origin)

	data, err = c.Recapture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(2), data.Buffer.Pix[0])
	assert.Equal(t, 2, cam.calls)
}

func TestRecaptureUploadRestoresRaw(t *testing.T) {
	cam := &fakeCamera{frames: []*pixel.Buffer{solid(t, 1, 1, color.RGBA{R: 200, A: 255})}}
	c := newTestCoordinator(Options{Camera: cam, ChainFilters: true})
	_, err := c.LoadFromBytes(pngBytes(t, 1, 1, color.NRGBA{R: 90, G: 30, B: 0, A: 255}), "png")
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), session.ApplyGrayscale)
	require.NoError(t, err)

	data, err := c.Recapture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint8{90, 30, 0, 255}, data.Buffer.Pix)
	assert.Zero(t, cam.calls)
}

func TestCameraFailures(t *testing.T) {
	c := newTestCoordinator(Options{})
	_, err := c.CaptureFromCamera(context.Background())
	assert.True(t, errors.Is(err, session.ErrAcquisition))

	denied := errors.New("permission denied")
	c = newTestCoordinator(Options{Camera: &fakeCamera{err: denied}})
	_, err = c.CaptureFromCamera(context.Background())
	assert.True(t, errors.Is(err, session.ErrAcquisition))
	assert.True(t, errors.Is(err, denied))
	assert.Equal(t, session.Empty, c.Session().State)
}

func TestExecuteUploadNeedsData(t *testing.T) {
	c := newTestCoordinator(Options{})
	_, err := c.Execute(context.Background(), session.AcquireUpload)
	assert.Error(t, err)
}

func TestSaveFormats(t *testing.T) {
	c := newTestCoordinator(Options{ExportFormat: "png", JPEGQuality: 90})
	data, err := c.LoadFromBytes(pngBytes(t, 5, 4, color.NRGBA{R: 40, G: 80, B: 120, A: 255}), "png")
	require.NoError(t, err)

	for _, format := range []string{"png", "jpeg", "bmp", "tiff", "JPG"} {
		var out bytes.Buffer
		require.NoError(t, c.SaveImageToWriter(&out, data, format), format)

		img, _, err := image.Decode(&out)
		require.NoError(t, err, format)
		assert.Equal(t, image.Rect(0, 0, 5, 4), img.Bounds(), format)
	}
}

func TestSaveImagePicksFormatFromURI(t *testing.T) {
	c := newTestCoordinator(Options{ExportFormat: "png"})
	data, err := c.LoadFromBytes(pngBytes(t, 2, 2, color.NRGBA{R: 40, A: 255}), "png")
	require.NoError(t, err)

	w := &uriWriter{uri: storage.NewFileURI("/tmp/out.bmp")}
	require.NoError(t, c.SaveImage(w, data))

	_, format, err := image.Decode(&w.Buffer)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
}

func TestSaveNothing(t *testing.T) {
	c := newTestCoordinator(Options{})
	assert.Error(t, c.SaveImageToWriter(io.Discard, nil, "png"))
}

func TestDataURLRoundTrip(t *testing.T) {
	src := solid(t, 3, 2, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	url, err := EncodeDataURL(src)
	require.NoError(t, err)
	assert.Contains(t, url, "data:image/png;base64,")

	c := newTestCoordinator(Options{})
	data, err := c.LoadFromDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "png", data.Format)
	assert.Equal(t, src.Pix, data.Buffer.Pix)
}

func TestDecodeDataURLErrors(t *testing.T) {
	for _, in := range []string{
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
	} {
		_, _, err := DecodeDataURL(in)
		assert.Error(t, err, in)
	}

	_, err := EncodeDataURL(nil)
	assert.Error(t, err)
}

func TestPSNR(t *testing.T) {
	a := solid(t, 2, 2, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	b := solid(t, 2, 2, color.RGBA{R: 110, G: 100, B: 100, A: 255})

	assert.True(t, math.IsInf(PSNR(a, a.Clone()), 1))
	assert.InDelta(t, 10*math.Log10(255*255/(100.0/3)), PSNR(a, b), 1e-9)
	assert.Zero(t, PSNR(a, solid(t, 1, 1, color.RGBA{})))
	assert.Zero(t, PSNR(nil, a))
}

func TestShutdownClosesCamera(t *testing.T) {
	cam := &fakeCamera{frames: []*pixel.Buffer{solid(t, 1, 1, color.RGBA{A: 255})}}
	c := newTestCoordinator(Options{Camera: cam})
	_, err := c.CaptureFromCamera(context.Background())
	require.NoError(t, err)

	c.Shutdown()
	assert.True(t, cam.closed)
	assert.Equal(t, session.Empty, c.Session().State)
	assert.Error(t, c.Context().Err())
}
