// Package convolution applies fixed 3×3 kernels to pixel buffers with
// clamp-to-edge borders. Every operation allocates its destination and leaves
// the source untouched.
package convolution

import (
	"math"

	"snapfilter/internal/pixel"
)

// Kernel is indexed [dy+1][dx+1].
type Kernel [3][3]float64

func (k Kernel) At(dy, dx int) float64 {
	return k[dy+1][dx+1]
}

func (k Kernel) Sum() float64 {
	var s float64
	for _, row := range k {
		for _, w := range row {
			s += w
		}
	}
	return s
}

type ChannelMode int

const (
	// Luminance folds each neighbor into 0.299R + 0.587G + 0.114B before weighting.
	Luminance ChannelMode = iota
	// PerChannel weights R, G and B independently.
	PerChannel
)

func (m ChannelMode) String() string {
	switch m {
	case Luminance:
		return "luminance"
	case PerChannel:
		return "per-channel"
	default:
		return "unknown"
	}
}

type Combine int

const (
	ReplicateScalar Combine = iota
	DirectChannels
)

func (c Combine) String() string {
	switch c {
	case ReplicateScalar:
		return "replicate-scalar"
	case DirectChannels:
		return "direct-channels"
	default:
		return "unknown"
	}
}

// Accumulate returns the weighted neighborhood sums around (x, y). In
// Luminance mode all three slots carry the same scalar.
func Accumulate(src *pixel.Buffer, x, y int, k Kernel, mode ChannelMode) [3]float64 {
	var sums [3]float64

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			w := k.At(dy, dx)
			r, g, b, _ := src.Sample(x+dx, y+dy)

			if mode == Luminance {
				sums[0] += pixel.Luminance(float64(r), float64(g), float64(b)) * w
				continue
			}

			sums[0] += float64(r) * w
			sums[1] += float64(g) * w
			sums[2] += float64(b) * w
		}
	}

	if mode == Luminance {
		sums[1], sums[2] = sums[0], sums[0]
	}

	return sums
}

// Pass is one kernel driven through the engine.
type Pass struct {
	Kernel  Kernel
	Mode    ChannelMode
	Combine Combine
}

func (p Pass) Apply(src *pixel.Buffer) *pixel.Buffer {
	return run(src, func(x, y int) [3]float64 {
		return combine(Accumulate(src, x, y, p.Kernel, p.Mode), p.Mode, p.Combine)
	})
}

// Gradient convolves with X and Y kernels and stores sqrt(gx²+gy²).
type Gradient struct {
	X    Kernel
	Y    Kernel
	Mode ChannelMode
}

func (g Gradient) Apply(src *pixel.Buffer) *pixel.Buffer {
	return run(src, func(x, y int) [3]float64 {
		gx := Accumulate(src, x, y, g.X, g.Mode)
		gy := Accumulate(src, x, y, g.Y, g.Mode)

		var out [3]float64
		for c := range out {
			out[c] = math.Hypot(gx[c], gy[c])
		}
		return out
	})
}

// Convolve is shorthand for Pass{k, mode, c}.Apply(src).
func Convolve(src *pixel.Buffer, k Kernel, mode ChannelMode, c Combine) *pixel.Buffer {
	return Pass{Kernel: k, Mode: mode, Combine: c}.Apply(src)
}

func combine(sums [3]float64, mode ChannelMode, c Combine) [3]float64 {
	if c != ReplicateScalar {
		return sums
	}

	v := sums[0]
	if mode == PerChannel {
		v = pixel.Luminance(sums[0], sums[1], sums[2])
	}
	return [3]float64{v, v, v}
}

func run(src *pixel.Buffer, at func(x, y int) [3]float64) *pixel.Buffer {
	src.MustBeConsistent()

	dst := &pixel.Buffer{
		Width:  src.Width,
		Height: src.Height,
		Pix:    make([]uint8, src.Len()),
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			v := at(x, y)
			dst.Set(x, y, v[0], v[1], v[2], 255)
		}
	}

	dst.MustBeConsistent()
	return dst
}
