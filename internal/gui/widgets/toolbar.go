package widgets

import (
	"fmt"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// FilterButton describes one catalog entry shown in the toolbar.
type FilterButton struct {
	Name  string
	Label string
}

type Toolbar struct {
	container       *fyne.Container
	cameraButton    *widget.Button
	uploadButton    *widget.Button
	recaptureButton *widget.Button
	saveButton      *widget.Button
	copyButton      *widget.Button
	filterBox       *fyne.Container
	filterButtons   []*widget.Button
	statusLabel     *widget.Label
	metricsLabel    *widget.Label

	cameraHandler    func()
	uploadHandler    func()
	recaptureHandler func()
	saveHandler      func()
	copyHandler      func()
	filterHandler    func(string)
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.createComponents()
	toolbar.buildLayout()
	return toolbar
}

func (t *Toolbar) createComponents() {
	t.cameraButton = widget.NewButton("Use Camera", t.onCameraClicked)
	t.cameraButton.Importance = widget.HighImportance

	t.uploadButton = widget.NewButton("Upload", t.onUploadClicked)
	t.uploadButton.Importance = widget.HighImportance

	t.recaptureButton = widget.NewButton("Recapture", t.onRecaptureClicked)

	t.saveButton = widget.NewButton("Save", t.onSaveClicked)
	t.saveButton.Importance = widget.HighImportance

	t.copyButton = widget.NewButton("Copy Data URL", t.onCopyClicked)

	t.filterBox = container.NewHBox()

	t.statusLabel = widget.NewLabel("Ready")
	t.metricsLabel = widget.NewLabel("PSNR: --")
}

func (t *Toolbar) buildLayout() {
	background := canvas.NewRectangle(color.RGBA{R: 250, G: 249, B: 245, A: 255})
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeWidth = 1.0
	border.StrokeColor = color.RGBA{R: 231, G: 231, B: 231, A: 255}

	acquireSection := container.NewHBox(t.cameraButton, t.uploadButton, t.recaptureButton)
	exportSection := container.NewHBox(t.saveButton, t.copyButton)

	topRow := container.NewBorder(nil, nil, acquireSection, exportSection, nil)
	bottomRow := container.NewBorder(
		nil, nil,
		container.NewHBox(t.statusLabel),
		t.metricsLabel,
		container.NewCenter(t.filterBox),
	)

	t.container = container.NewStack(
		border,
		container.NewPadded(
			container.NewStack(background, container.NewPadded(container.NewVBox(topRow, widget.NewSeparator(), bottomRow))),
		),
	)
}

// SetFilters replaces the filter buttons, one per catalog entry in order.
func (t *Toolbar) SetFilters(entries []FilterButton) {
	t.filterBox.RemoveAll()
	t.filterButtons = t.filterButtons[:0]

	for _, entry := range entries {
		name := entry.Name
		button := widget.NewButton(entry.Label, func() {
			if t.filterHandler != nil {
				t.filterHandler(name)
			}
		})
		t.filterButtons = append(t.filterButtons, button)
		t.filterBox.Add(button)
	}

	t.filterBox.Refresh()
}

func (t *Toolbar) onCameraClicked() {
	if t.cameraHandler != nil {
		t.cameraHandler()
	}
}

func (t *Toolbar) onUploadClicked() {
	if t.uploadHandler != nil {
		t.uploadHandler()
	}
}

func (t *Toolbar) onRecaptureClicked() {
	if t.recaptureHandler != nil {
		t.recaptureHandler()
	}
}

func (t *Toolbar) onSaveClicked() {
	if t.saveHandler != nil {
		t.saveHandler()
	}
}

func (t *Toolbar) onCopyClicked() {
	if t.copyHandler != nil {
		t.copyHandler()
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetCameraHandler(handler func()) {
	t.cameraHandler = handler
}

func (t *Toolbar) SetUploadHandler(handler func()) {
	t.uploadHandler = handler
}

func (t *Toolbar) SetRecaptureHandler(handler func()) {
	t.recaptureHandler = handler
}

func (t *Toolbar) SetSaveHandler(handler func()) {
	t.saveHandler = handler
}

func (t *Toolbar) SetCopyHandler(handler func()) {
	t.copyHandler = handler
}

func (t *Toolbar) SetFilterHandler(handler func(string)) {
	t.filterHandler = handler
}

func (t *Toolbar) buttons(extra ...*widget.Button) []*widget.Button {
	all := make([]*widget.Button, 0, len(t.filterButtons)+len(extra))
	all = append(all, t.filterButtons...)
	return append(all, extra...)
}

// SetImageLoaded toggles the controls that need a working image.
func (t *Toolbar) SetImageLoaded(loaded bool) {
	for _, button := range t.buttons(t.recaptureButton, t.saveButton, t.copyButton) {
		if loaded {
			button.Enable()
		} else {
			button.Disable()
		}
	}
}

// SetBusy disables every button while a command runs.
func (t *Toolbar) SetBusy(busy bool) {
	for _, button := range t.buttons(t.cameraButton, t.uploadButton, t.recaptureButton, t.saveButton, t.copyButton) {
		if busy {
			button.Disable()
		} else {
			button.Enable()
		}
	}
}

func (t *Toolbar) SetStatus(status string) {
	t.statusLabel.SetText(status)
}

func (t *Toolbar) SetMetrics(psnr float64) {
	switch {
	case math.IsInf(psnr, 1):
		t.metricsLabel.SetText("PSNR: identical")
	case psnr > 0:
		t.metricsLabel.SetText(fmt.Sprintf("PSNR: %.2f dB", psnr))
	default:
		t.metricsLabel.SetText("PSNR: --")
	}
}
