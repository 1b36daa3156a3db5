// Package scene assembles ready-to-trace lens configurations used by
// the CLI and the web server.
package scene

import (
	"fmt"

	"github.com/mkappa/go-lens-raytracer/pkg/cosmo"
	"github.com/mkappa/go-lens-raytracer/pkg/deflector"
	"github.com/mkappa/go-lens-raytracer/pkg/los"
	"github.com/mkappa/go-lens-raytracer/pkg/trace"
)

// Scene bundles a tracer with the main-deflector parameters it is
// meant to be evaluated with
type Scene struct {
	Name   string
	Tracer *trace.Tracer
	Params []deflector.Params
}

// Names lists the available built-in scenes
func Names() []string {
	return []string{"default", "pointmass", "nfw"}
}

// CreateScene builds a built-in scene by name
func CreateScene(name string) (*Scene, error) {
	switch name {
	case "default":
		return NewDefaultScene()
	case "pointmass":
		return NewPointMassScene()
	case "nfw":
		return NewNFWScene()
	default:
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, Names())
	}
}

// NewDefaultScene is an SIS plus external shear main deflector at
// z=0.5 with a source at z=2.0, behind a gridded line-of-sight
// realization containing a few isothermal perturbers.
func NewDefaultScene() (*Scene, error) {
	const zSplit, zSource = 0.5, 2.0

	cosmology := cosmo.Default()
	td, err := cosmology.TransverseDistance(0, zSplit)
	if err != nil {
		return nil, err
	}

	field, err := perturbedField(td)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		ZSource:    zSource,
		ZSplit:     zSplit,
		LensModels: []string{"SIS", "SHEAR"},
		Field:      field,
		Cosmology:  cosmology,
	})
	if err != nil {
		return nil, err
	}

	return &Scene{
		Name:   "default",
		Tracer: tracer,
		Params: []deflector.Params{
			{"theta_E": 1.2, "center_x": 0, "center_y": 0},
			{"gamma_1": 0.05, "gamma_2": -0.02},
		},
	}, nil
}

// NewPointMassScene is a bare point-mass lens with an unperturbed line
// of sight, useful as an analytically checkable reference.
func NewPointMassScene() (*Scene, error) {
	const zSplit, zSource = 0.5, 2.0

	cosmology := cosmo.Default()
	td, err := cosmology.TransverseDistance(0, zSplit)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		ZSource:    zSource,
		ZSplit:     zSplit,
		LensModels: []string{"POINT_MASS"},
		Field:      los.Unperturbed(td),
		Cosmology:  cosmology,
	})
	if err != nil {
		return nil, err
	}

	return &Scene{
		Name:   "pointmass",
		Tracer: tracer,
		Params: []deflector.Params{
			{"theta_E": 1.0},
		},
	}, nil
}

// NewNFWScene is an NFW halo plus external shear with an unperturbed
// line of sight.
func NewNFWScene() (*Scene, error) {
	const zSplit, zSource = 0.6, 2.5

	cosmology := cosmo.Default()
	td, err := cosmology.TransverseDistance(0, zSplit)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		ZSource:    zSource,
		ZSplit:     zSplit,
		LensModels: []string{"NFW", "SHEAR"},
		Field:      los.Unperturbed(td),
		Cosmology:  cosmology,
	})
	if err != nil {
		return nil, err
	}

	return &Scene{
		Name:   "nfw",
		Tracer: tracer,
		Params: []deflector.Params{
			{"Rs": 8.0, "alpha_Rs": 1.5},
			{"gamma_1": -0.03, "gamma_2": 0.04},
		},
	}, nil
}

// perturbedField builds a toy line-of-sight realization: a few
// isothermal perturbers folded into the six component fields and
// tabulated on a regular grid. A production realization would tabulate
// these from a full multi-plane calculation instead.
func perturbedField(td float64) (*los.GridField, error) {
	perturbers := []deflector.Params{
		{"theta_E": 0.12, "center_x": 1.8, "center_y": -1.1},
		{"theta_E": 0.08, "center_x": -2.2, "center_y": 1.5},
		{"theta_E": 0.10, "center_x": 0.6, "center_y": 2.4},
	}
	background := deflector.Params{"theta_E": 0.09, "center_x": -1.4, "center_y": -2.0}

	sis := deflector.SIS{}
	foreground := func(tx, ty float64) (float64, float64) {
		var ax, ay float64
		for _, p := range perturbers {
			dx, dy := sis.Deflection(tx, ty, p)
			ax += dx
			ay += dy
		}
		return ax, ay
	}

	analytic := los.FuncField{
		// Rays arrive at the main plane displaced by half the
		// foreground bending accumulated on the way in.
		X0Func: func(tx, ty float64) float64 {
			ax, _ := foreground(tx, ty)
			return (tx - 0.5*ax) * td
		},
		Y0Func: func(tx, ty float64) float64 {
			_, ay := foreground(tx, ty)
			return (ty - 0.5*ay) * td
		},
		AlphaXFg: func(tx, ty float64) float64 {
			ax, _ := foreground(tx, ty)
			return -ax
		},
		AlphaYFg: func(tx, ty float64) float64 {
			_, ay := foreground(tx, ty)
			return -ay
		},
		AlphaXBg: func(tx, ty float64) float64 {
			ax, _ := sis.Deflection(tx, ty, background)
			return -0.7 * ax
		},
		AlphaYBg: func(tx, ty float64) float64 {
			_, ay := sis.Deflection(tx, ty, background)
			return -0.7 * ay
		},
	}

	xs := gridAxis(-6, 6, 121)
	return los.Tabulate(analytic, xs, xs)
}

// gridAxis returns n evenly spaced values spanning [lo, hi]
func gridAxis(lo, hi float64, n int) []float64 {
	axis := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}
	return axis
}
