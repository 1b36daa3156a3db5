// Package los models the precomputed line-of-sight deflection field
// that decouples perturbers along the line of sight from the main
// deflector. A Field answers, for any sky angle, where a ray lands on
// the main-deflector plane and how much it is bent by everything that
// is not the main deflector.
package los

// Field is a line-of-sight realization expressed as continuous
// functions of sky angle (thetaX, thetaY).
//
// Unit contract:
//   - X0 and Y0 return the comoving position in Mpc that the ray
//     reaches at the main-deflector plane.
//   - AlphaXForeground/AlphaYForeground return the accumulated
//     deflection from all perturbers at z <= zSplit, in the same
//     angular units as the input coordinates.
//   - AlphaXBackground/AlphaYBackground return the net deflection from
//     all perturbers at z > zSplit, evaluated with transport to the
//     source plane, in the same angular units.
//
// Implementations must be pure: same input, same output, no shared
// mutable state. The tracer calls them concurrently.
type Field interface {
	X0(thetaX, thetaY float64) float64
	Y0(thetaX, thetaY float64) float64
	AlphaXForeground(thetaX, thetaY float64) float64
	AlphaYForeground(thetaX, thetaY float64) float64
	AlphaXBackground(thetaX, thetaY float64) float64
	AlphaYBackground(thetaX, thetaY float64) float64
}

// Func is a scalar function of a sky angle
type Func func(thetaX, thetaY float64) float64

// FuncField adapts six plain functions into a Field. All six must be
// non-nil; Validate reports which ones are missing.
type FuncField struct {
	X0Func   Func
	Y0Func   Func
	AlphaXFg Func
	AlphaYFg Func
	AlphaXBg Func
	AlphaYBg Func
}

func (f FuncField) X0(tx, ty float64) float64               { return f.X0Func(tx, ty) }
func (f FuncField) Y0(tx, ty float64) float64               { return f.Y0Func(tx, ty) }
func (f FuncField) AlphaXForeground(tx, ty float64) float64 { return f.AlphaXFg(tx, ty) }
func (f FuncField) AlphaYForeground(tx, ty float64) float64 { return f.AlphaYFg(tx, ty) }
func (f FuncField) AlphaXBackground(tx, ty float64) float64 { return f.AlphaXBg(tx, ty) }
func (f FuncField) AlphaYBackground(tx, ty float64) float64 { return f.AlphaYBg(tx, ty) }

// Complete reports whether all six component functions are set
func (f FuncField) Complete() bool {
	return f.X0Func != nil && f.Y0Func != nil &&
		f.AlphaXFg != nil && f.AlphaYFg != nil &&
		f.AlphaXBg != nil && f.AlphaYBg != nil
}

// Unperturbed returns a field with no line-of-sight structure: rays
// travel straight to the main plane at transverse comoving distance td
// (Mpc) and suffer no deflection before or after it.
func Unperturbed(td float64) FuncField {
	zero := func(tx, ty float64) float64 { return 0 }
	return FuncField{
		X0Func:   func(tx, ty float64) float64 { return tx * td },
		Y0Func:   func(tx, ty float64) float64 { return ty * td },
		AlphaXFg: zero,
		AlphaYFg: zero,
		AlphaXBg: zero,
		AlphaYBg: zero,
	}
}
