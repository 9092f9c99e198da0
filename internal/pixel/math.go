package pixel

import "math"

const (
	LumaRed   = 0.299
	LumaGreen = 0.587
	LumaBlue  = 0.114
)

// Saturate rounds half to even and clamps into [0,255]. NaN maps to 0.
func Saturate(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}

	v = math.RoundToEven(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Luminance(r, g, b float64) float64 {
	return LumaRed*r + LumaGreen*g + LumaBlue*b
}
