package deflector

import "math"

// Params holds the per-call parameters of a single lens profile, keyed
// by parameter name (e.g. "theta_E", "center_x"). Missing keys read as
// zero. Params are owned by the caller and never mutated here.
type Params map[string]float64

// value returns the parameter named key, or 0 if it is absent
func (p Params) value(key string) float64 {
	return p[key]
}

// Profile is a single lens-model profile. Deflection returns the
// reduced deflection angle at angular position (x, y) for the given
// parameters, in the same angular units as the input coordinates.
type Profile interface {
	Name() string
	Deflection(x, y float64, p Params) (alphaX, alphaY float64)
}

// SIS is a singular isothermal sphere.
// Parameters: theta_E (Einstein radius), center_x, center_y.
type SIS struct{}

func (SIS) Name() string { return "SIS" }

func (SIS) Deflection(x, y float64, p Params) (float64, float64) {
	dx := x - p.value("center_x")
	dy := y - p.value("center_y")
	r := math.Hypot(dx, dy)
	if r == 0 {
		return 0, 0
	}
	thetaE := p.value("theta_E")
	return thetaE * dx / r, thetaE * dy / r
}

// PointMass is a point-mass lens.
// Parameters: theta_E (Einstein radius), center_x, center_y.
type PointMass struct{}

func (PointMass) Name() string { return "POINT_MASS" }

func (PointMass) Deflection(x, y float64, p Params) (float64, float64) {
	dx := x - p.value("center_x")
	dy := y - p.value("center_y")
	r2 := dx*dx + dy*dy
	if r2 == 0 {
		return 0, 0
	}
	thetaE := p.value("theta_E")
	scale := thetaE * thetaE / r2
	return scale * dx, scale * dy
}

// NFW is a circular Navarro-Frenk-White profile.
// Parameters: Rs (scale radius in angular units), alpha_Rs (deflection
// angle at the scale radius), center_x, center_y.
type NFW struct{}

func (NFW) Name() string { return "NFW" }

func (NFW) Deflection(x, y float64, p Params) (float64, float64) {
	dx := x - p.value("center_x")
	dy := y - p.value("center_y")
	r := math.Hypot(dx, dy)
	rs := p.value("Rs")
	if r == 0 || rs <= 0 {
		return 0, 0
	}
	// alpha(r) = alpha_Rs * g(r/Rs) / (x * g(1)), with
	// g(x) = ln(x/2) + arccosh(1/x)/sqrt(1-x^2) for x < 1 and the
	// arccos continuation for x > 1. g(1) = 1 + ln(1/2).
	u := r / rs
	g1 := 1 + math.Log(0.5)
	scale := p.value("alpha_Rs") * nfwG(u) / (u * g1)
	return scale * dx / r, scale * dy / r
}

// nfwG is the radial part of the NFW deflection integral
func nfwG(x float64) float64 {
	switch {
	case x < 1:
		s := math.Sqrt(1 - x*x)
		return math.Log(x/2) + math.Acosh(1/x)/s
	case x > 1:
		s := math.Sqrt(x*x - 1)
		return math.Log(x/2) + math.Acos(1/x)/s
	default:
		return 1 + math.Log(0.5)
	}
}

// Shear is a uniform external shear field.
// Parameters: gamma_1, gamma_2, ra_0, dec_0 (shear center).
type Shear struct{}

func (Shear) Name() string { return "SHEAR" }

func (Shear) Deflection(x, y float64, p Params) (float64, float64) {
	dx := x - p.value("ra_0")
	dy := y - p.value("dec_0")
	g1 := p.value("gamma_1")
	g2 := p.value("gamma_2")
	return g1*dx + g2*dy, g2*dx - g1*dy
}

// Convergence is a uniform convergence sheet.
// Parameters: kappa, ra_0, dec_0 (sheet center).
type Convergence struct{}

func (Convergence) Name() string { return "CONVERGENCE" }

func (Convergence) Deflection(x, y float64, p Params) (float64, float64) {
	kappa := p.value("kappa")
	return kappa * (x - p.value("ra_0")), kappa * (y - p.value("dec_0"))
}
