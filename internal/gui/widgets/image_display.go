package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 480
	ImageAreaHeight = 360
)

// ImageDisplay shows the last acquired frame beside the filtered preview.
type ImageDisplay struct {
	container     fyne.CanvasObject
	originalImage *canvas.Image
	previewImage  *canvas.Image
	previewTitle  *widget.RichText
	splitView     *container.Split
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.createComponents()
	display.setupLayout()
	return display
}

func newFrame() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return img
}

func (id *ImageDisplay) createComponents() {
	id.originalImage = newFrame()
	id.previewImage = newFrame()
	id.previewTitle = widget.NewRichTextFromMarkdown("**Preview**")
}

func (id *ImageDisplay) setupLayout() {
	originalContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Original**"),
		nil, nil, nil,
		id.originalImage,
	)

	previewContainer := container.NewBorder(
		id.previewTitle,
		nil, nil, nil,
		id.previewImage,
	)

	id.splitView = container.NewHSplit(originalContainer, previewContainer)
	id.splitView.SetOffset(0.5)
	id.container = id.splitView
}

func (id *ImageDisplay) GetContainer() fyne.CanvasObject {
	return id.container
}

func (id *ImageDisplay) SetOriginalImage(img image.Image) {
	id.originalImage.Image = img
	id.originalImage.Refresh()
	id.container.Refresh()
}

// SetPreviewImage shows img under a title naming the last filter; an empty
// label resets the title.
func (id *ImageDisplay) SetPreviewImage(img image.Image, label string) {
	title := "**Preview**"
	if label != "" {
		title = "**Preview: " + label + "**"
	}
	id.previewTitle.ParseMarkdown(title)

	id.previewImage.Image = img
	id.previewImage.Refresh()
}
