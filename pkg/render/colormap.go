package render

import (
	"image"
	"image/color"
	"math"
)

// rampStops is a dark-to-bright heat ramp applied to normalized values
var rampStops = [][3]float64{
	{0.00, 0.00, 0.05},
	{0.20, 0.05, 0.35},
	{0.70, 0.15, 0.35},
	{0.95, 0.55, 0.15},
	{1.00, 1.00, 0.85},
}

// Colormap normalizes a value grid to [0, 1], applies gamma correction
// and maps it through the heat ramp. Non-finite values render as black.
// A constant grid renders entirely at the bottom of the ramp.
func Colormap(values [][]float64, gamma float64) *image.RGBA {
	height := len(values)
	width := 0
	if height > 0 {
		width = len(values[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	lo, hi := finiteRange(values)
	span := hi - lo
	if gamma <= 0 {
		gamma = 1
	}
	invGamma := 1 / gamma

	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			v := values[j][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.SetRGBA(i, j, color.RGBA{A: 255})
				continue
			}
			t := 0.0
			if span > 0 {
				t = (v - lo) / span
			}
			t = math.Pow(t, invGamma)
			img.SetRGBA(i, j, rampColor(t))
		}
	}
	return img
}

// finiteRange returns the smallest and largest finite values in the grid
func finiteRange(values [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// rampColor interpolates the heat ramp at t in [0, 1]
func rampColor(t float64) color.RGBA {
	t = max(0, min(1, t))
	pos := t * float64(len(rampStops)-1)
	i := min(int(pos), len(rampStops)-2)
	w := pos - float64(i)

	r := rampStops[i][0]*(1-w) + rampStops[i+1][0]*w
	g := rampStops[i][1]*(1-w) + rampStops[i+1][1]*w
	b := rampStops[i][2]*(1-w) + rampStops[i+1][2]*w

	return color.RGBA{
		R: uint8(255 * r),
		G: uint8(255 * g),
		B: uint8(255 * b),
		A: 255,
	}
}
