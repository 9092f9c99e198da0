package widgets

import (
	"math"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolbarFilterButtons(t *testing.T) {
	test.NewTempApp(t)

	toolbar := NewToolbar()
	toolbar.SetFilters([]FilterButton{
		{Name: "sobel", Label: "Sobel"},
		{Name: "sharpen", Label: "Sharpen"},
	})
	require.Len(t, toolbar.filterButtons, 2)
	assert.Equal(t, "Sharpen", toolbar.filterButtons[1].Text)

	var applied []string
	toolbar.SetFilterHandler(func(name string) { applied = append(applied, name) })

	test.Tap(toolbar.filterButtons[1])
	test.Tap(toolbar.filterButtons[0])
	assert.Equal(t, []string{"sharpen", "sobel"}, applied)

	toolbar.SetFilters([]FilterButton{{Name: "grayscale", Label: "Black & White"}})
	assert.Len(t, toolbar.filterButtons, 1)
	assert.Len(t, toolbar.filterBox.Objects, 1)
}

func TestToolbarHandlers(t *testing.T) {
	test.NewTempApp(t)

	toolbar := NewToolbar()
	calls := map[string]int{}
	toolbar.SetCameraHandler(func() { calls["camera"]++ })
	toolbar.SetUploadHandler(func() { calls["upload"]++ })
	toolbar.SetRecaptureHandler(func() { calls["recapture"]++ })
	toolbar.SetSaveHandler(func() { calls["save"]++ })
	toolbar.SetCopyHandler(func() { calls["copy"]++ })

	test.Tap(toolbar.cameraButton)
	test.Tap(toolbar.uploadButton)
	test.Tap(toolbar.recaptureButton)
	test.Tap(toolbar.saveButton)
	test.Tap(toolbar.copyButton)

	assert.Equal(t, map[string]int{"camera": 1, "upload": 1, "recapture": 1, "save": 1, "copy": 1}, calls)
}

func TestToolbarImageLoadedGatesControls(t *testing.T) {
	test.NewTempApp(t)

	toolbar := NewToolbar()
	toolbar.SetFilters([]FilterButton{{Name: "sobel", Label: "Sobel"}})

	toolbar.SetImageLoaded(false)
	assert.True(t, toolbar.filterButtons[0].Disabled())
	assert.True(t, toolbar.saveButton.Disabled())
	assert.False(t, toolbar.cameraButton.Disabled())

	toolbar.SetBusy(true)
	assert.True(t, toolbar.cameraButton.Disabled())

	toolbar.SetBusy(false)
	toolbar.SetImageLoaded(true)
	assert.False(t, toolbar.filterButtons[0].Disabled())
	assert.False(t, toolbar.saveButton.Disabled())
}

func TestToolbarMetrics(t *testing.T) {
	test.NewTempApp(t)

	toolbar := NewToolbar()
	toolbar.SetMetrics(31.256)
	assert.Equal(t, "PSNR: 31.26 dB", toolbar.metricsLabel.Text)

	toolbar.SetMetrics(math.Inf(1))
	assert.Equal(t, "PSNR: identical", toolbar.metricsLabel.Text)

	toolbar.SetMetrics(0)
	assert.Equal(t, "PSNR: --", toolbar.metricsLabel.Text)

	toolbar.SetStatus("Sobel applied")
	assert.Equal(t, "Sobel applied", toolbar.statusLabel.Text)
}
