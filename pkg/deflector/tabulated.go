package deflector

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// TabulatedRadial is a circularly symmetric profile whose radial
// deflection curve alpha(r) is interpolated from tabulated samples.
// The spline is fitted once at construction; evaluation is pure.
// Parameters: center_x, center_y, scale (multiplier on the tabulated
// curve, missing key means 0 so callers normally pass scale: 1).
type TabulatedRadial struct {
	rMin, rMax float64
	spline     interp.AkimaSpline
}

// NewTabulatedRadial fits a spline through the sampled radial
// deflection curve. Radii must be strictly increasing and positive, and
// at least three samples are required for the spline fit.
func NewTabulatedRadial(r, alpha []float64) (*TabulatedRadial, error) {
	if len(r) != len(alpha) {
		return nil, fmt.Errorf("tabulated profile: %d radii but %d deflection samples", len(r), len(alpha))
	}
	if len(r) < 3 {
		return nil, fmt.Errorf("tabulated profile: need at least 3 samples, got %d", len(r))
	}
	if r[0] <= 0 {
		return nil, fmt.Errorf("tabulated profile: radii must be positive, got r[0]=%g", r[0])
	}
	for i := 1; i < len(r); i++ {
		if r[i] <= r[i-1] {
			return nil, fmt.Errorf("tabulated profile: radii must be strictly increasing at index %d", i)
		}
	}
	t := &TabulatedRadial{rMin: r[0], rMax: r[len(r)-1]}
	if err := t.spline.Fit(r, alpha); err != nil {
		return nil, fmt.Errorf("tabulated profile: spline fit failed: %w", err)
	}
	return t, nil
}

func (t *TabulatedRadial) Name() string { return "TABULATED_RADIAL" }

// Deflection evaluates the interpolated radial curve. Radii outside the
// tabulated range clamp to the nearest sample.
func (t *TabulatedRadial) Deflection(x, y float64, p Params) (float64, float64) {
	dx := x - p.value("center_x")
	dy := y - p.value("center_y")
	r := math.Hypot(dx, dy)
	if r == 0 {
		return 0, 0
	}
	rc := min(max(r, t.rMin), t.rMax)
	alphaR := p.value("scale") * t.spline.Predict(rc)
	return alphaR * dx / r, alphaR * dy / r
}
