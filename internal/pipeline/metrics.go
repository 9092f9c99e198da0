package pipeline

import (
	"math"

	"snapfilter/internal/pixel"
)

// PSNR compares the R, G and B channels of two equally sized frames. It
// returns 0 when they cannot be compared and +Inf when they are identical.
func PSNR(original, processed *pixel.Buffer) float64 {
	if original == nil || processed == nil || !original.SameSize(processed) {
		return 0
	}

	var sum float64
	var n int
	for i := 0; i < original.Len(); i += pixel.Channels {
		for c := 0; c < 3; c++ {
			d := float64(original.Pix[i+c]) - float64(processed.Pix[i+c])
			sum += d * d
			n++
		}
	}

	if sum == 0 {
		return math.Inf(1)
	}

	mse := sum / float64(n)
	return 10 * math.Log10(255*255/mse)
}
