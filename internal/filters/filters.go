package filters

import (
	"snapfilter/internal/convolution"
	"snapfilter/internal/pixel"
)

const (
	SobelName      = "sobel"
	GrayscaleName  = "grayscale"
	BrightnessName = "brightness"
	GaussianName   = "gaussian"
	SharpenName    = "sharpen"
)

const DefaultBrightnessFactor = 1.2

var (
	SobelX = convolution.Kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	SobelY = convolution.Kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	GaussianLowPass = convolution.Kernel{
		{1.0 / 16, 1.0 / 8, 1.0 / 16},
		{1.0 / 8, 1.0 / 4, 1.0 / 8},
		{1.0 / 16, 1.0 / 8, 1.0 / 16},
	}

	SharpenKernel = convolution.Kernel{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}
)

// Filter transforms a frame into a newly allocated frame of the same size.
type Filter interface {
	Name() string
	DisplayName() string
	Apply(src *pixel.Buffer) *pixel.Buffer
}

// InPlaceFilter is implemented by per-pixel filters that can also rewrite a
// buffer the caller exclusively owns.
type InPlaceFilter interface {
	Filter
	ApplyInPlace(buf *pixel.Buffer)
}

type Sobel struct {
	gradient convolution.Gradient
}

func NewSobel() *Sobel {
	return &Sobel{
		gradient: convolution.Gradient{X: SobelX, Y: SobelY, Mode: convolution.Luminance},
	}
}

func (s *Sobel) Name() string        { return SobelName }
func (s *Sobel) DisplayName() string { return "Sobel" }

func (s *Sobel) Apply(src *pixel.Buffer) *pixel.Buffer {
	return s.gradient.Apply(src)
}

// KernelFilter runs a single per-channel kernel pass.
type KernelFilter struct {
	name        string
	displayName string
	pass        convolution.Pass
}

func NewGaussian() *KernelFilter {
	return &KernelFilter{
		name:        GaussianName,
		displayName: "Gaussian Blur",
		pass: convolution.Pass{
			Kernel:  GaussianLowPass,
			Mode:    convolution.PerChannel,
			Combine: convolution.DirectChannels,
		},
	}
}

func NewSharpen() *KernelFilter {
	return &KernelFilter{
		name:        SharpenName,
		displayName: "Sharpen",
		pass: convolution.Pass{
			Kernel:  SharpenKernel,
			Mode:    convolution.PerChannel,
			Combine: convolution.DirectChannels,
		},
	}
}

func (k *KernelFilter) Name() string        { return k.name }
func (k *KernelFilter) DisplayName() string { return k.displayName }

func (k *KernelFilter) Kernel() convolution.Kernel {
	return k.pass.Kernel
}

func (k *KernelFilter) Apply(src *pixel.Buffer) *pixel.Buffer {
	return k.pass.Apply(src)
}

// Grayscale replaces R, G and B with their plain average. Alpha is kept.
type Grayscale struct{}

func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

func (g *Grayscale) Name() string        { return GrayscaleName }
func (g *Grayscale) DisplayName() string { return "Black & White" }

func (g *Grayscale) Apply(src *pixel.Buffer) *pixel.Buffer {
	return applyCopy(g, src)
}

func (g *Grayscale) ApplyInPlace(buf *pixel.Buffer) {
	buf.MustBeConsistent()
	for i := 0; i < len(buf.Pix); i += pixel.Channels {
		v := pixel.Saturate((float64(buf.Pix[i]) + float64(buf.Pix[i+1]) + float64(buf.Pix[i+2])) / 3)
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = v, v, v
	}
}

// Brightness scales R, G and B by Factor. Reapplying it to its own output
// compounds.
type Brightness struct {
	Factor float64
}

func NewBrightness() *Brightness {
	return &Brightness{Factor: DefaultBrightnessFactor}
}

func (b *Brightness) Name() string        { return BrightnessName }
func (b *Brightness) DisplayName() string { return "Brightness" }

func (b *Brightness) Apply(src *pixel.Buffer) *pixel.Buffer {
	return applyCopy(b, src)
}

func (b *Brightness) ApplyInPlace(buf *pixel.Buffer) {
	buf.MustBeConsistent()
	for i := 0; i < len(buf.Pix); i += pixel.Channels {
		buf.Pix[i] = pixel.Saturate(float64(buf.Pix[i]) * b.Factor)
		buf.Pix[i+1] = pixel.Saturate(float64(buf.Pix[i+1]) * b.Factor)
		buf.Pix[i+2] = pixel.Saturate(float64(buf.Pix[i+2]) * b.Factor)
	}
}

func applyCopy(f InPlaceFilter, src *pixel.Buffer) *pixel.Buffer {
	src.MustBeConsistent()
	dst := src.Clone()
	f.ApplyInPlace(dst)
	return dst
}
