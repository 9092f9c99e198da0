package gui

import (
	"fmt"
	"image"

	"snapfilter/internal/gui/widgets"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var uploadExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

type View struct {
	window     fyne.Window
	controller *Controller

	toolbar       *widgets.Toolbar
	imageDisplay  *widgets.ImageDisplay
	mainContainer *fyne.Container
}

func NewView(window fyne.Window) *View {
	view := &View{
		window: window,
	}

	view.setupComponents()
	view.setupLayout()

	return view
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller
	v.setupEventHandlers()
}

func (v *View) setupComponents() {
	v.toolbar = widgets.NewToolbar()
	v.imageDisplay = widgets.NewImageDisplay()
	v.toolbar.SetImageLoaded(false)
}

func (v *View) setupLayout() {
	v.mainContainer = container.NewBorder(
		nil,
		v.toolbar.GetContainer(),
		nil, nil,
		v.imageDisplay.GetContainer(),
	)
}

func (v *View) setupEventHandlers() {
	if v.controller == nil {
		return
	}

	v.toolbar.SetCameraHandler(v.controller.CaptureCamera)
	v.toolbar.SetUploadHandler(v.controller.UploadImage)
	v.toolbar.SetRecaptureHandler(v.controller.Recapture)
	v.toolbar.SetFilterHandler(v.controller.ApplyFilter)
	v.toolbar.SetSaveHandler(v.controller.SaveImage)
	v.toolbar.SetCopyHandler(v.controller.CopyDataURL)
}

func (v *View) GetMainContainer() *fyne.Container {
	return v.mainContainer
}

func (v *View) SetFilters(entries []widgets.FilterButton) {
	v.toolbar.SetFilters(entries)
	v.toolbar.SetImageLoaded(false)
}

func (v *View) SetOriginalImage(img image.Image) {
	if v.controller != nil {
		v.controller.logger.Debug("View", "SetOriginalImage called", map[string]interface{}{
			"image_nil":  img == nil,
			"image_type": fmt.Sprintf("%T", img),
		})
	}

	v.imageDisplay.SetOriginalImage(img)
}

func (v *View) SetPreviewImage(img image.Image, label string) {
	v.imageDisplay.SetPreviewImage(img, label)
}

func (v *View) SetStatus(status string) {
	v.toolbar.SetStatus(status)
}

func (v *View) SetMetrics(psnr float64) {
	v.toolbar.SetMetrics(psnr)
}

// SetControls updates button availability after a command finishes or starts.
func (v *View) SetControls(busy, loaded bool) {
	v.toolbar.SetBusy(busy)
	if !busy {
		v.toolbar.SetImageLoaded(loaded)
	}
}

func (v *View) ShowError(title string, err error) {
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), v.window)
}

func (v *View) ShowInfo(title, message string) {
	dialog.ShowInformation(title, message, v.window)
}

func (v *View) ShowFileDialog(callback func(fyne.URIReadCloser, error)) {
	open := dialog.NewFileOpen(callback, v.window)
	open.SetFilter(storage.NewExtensionFileFilter(uploadExtensions))
	open.Show()
}

func (v *View) ShowSaveDialog(callback func(fyne.URIWriteCloser, error)) {
	save := dialog.NewFileSave(callback, v.window)
	save.SetFileName("snapfilter.png")
	save.Show()
}

func (v *View) SetClipboard(content string) {
	v.window.Clipboard().SetContent(content)
}

func (v *View) ShowFormatSelectionDialog(callback func(string, bool)) {
	content := widget.NewLabel("No file extension detected. Please choose a format:")

	formatSelect := widget.NewSelect([]string{"PNG", "JPEG", "BMP", "TIFF"}, nil)
	formatSelect.SetSelected("PNG")

	form := container.NewVBox(
		content,
		formatSelect,
	)

	dialog.ShowCustomConfirm("Choose File Format", "Save", "Cancel",
		form, func(confirmed bool) {
			if confirmed && formatSelect.Selected != "" {
				callback(formatSelect.Selected, true)
			} else {
				callback("", false)
			}
		}, v.window)
}

func (v *View) GetWindow() fyne.Window {
	return v.window
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
