package trace

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkappa/go-lens-raytracer/pkg/cosmo"
	"github.com/mkappa/go-lens-raytracer/pkg/deflector"
	"github.com/mkappa/go-lens-raytracer/pkg/los"
)

// newTestTracer builds a tracer with an unperturbed line of sight and
// the given main-deflector models
func newTestTracer(t *testing.T, models []string) *Tracer {
	t.Helper()

	const zSplit, zSource = 0.5, 2.0
	cosmology := cosmo.Default()
	td, err := cosmology.TransverseDistance(0, zSplit)
	require.NoError(t, err)

	tracer, err := New(Config{
		ZSource:    zSource,
		ZSplit:     zSplit,
		LensModels: models,
		Field:      los.Unperturbed(td),
		Cosmology:  cosmology,
	})
	require.NoError(t, err)
	return tracer
}

func TestNewValidation(t *testing.T) {
	cosmology := cosmo.Default()
	field := los.Unperturbed(1000)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"nil field", Config{ZSource: 2, ZSplit: 0.5, Cosmology: cosmology}},
		{"incomplete func field", Config{ZSource: 2, ZSplit: 0.5, Field: los.FuncField{}, Cosmology: cosmology}},
		{"zero split redshift", Config{ZSource: 2, ZSplit: 0, Field: field, Cosmology: cosmology}},
		{"negative split redshift", Config{ZSource: 2, ZSplit: -0.5, Field: field, Cosmology: cosmology}},
		{"source at split", Config{ZSource: 0.5, ZSplit: 0.5, Field: field, Cosmology: cosmology}},
		{"source before split", Config{ZSource: 0.3, ZSplit: 0.5, Field: field, Cosmology: cosmology}},
		{"unknown lens model", Config{ZSource: 2, ZSplit: 0.5, Field: field, Cosmology: cosmology, LensModels: []string{"BOGUS"}}},
		{"broken cosmology", Config{ZSource: 2, ZSplit: 0.5, Field: field, Cosmology: cosmo.FlatLCDM{H0: -70, OmegaM: 0.3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, tracer)
		})
	}
}

func TestNewDefaultsCosmology(t *testing.T) {
	tracer, err := New(Config{
		ZSource: 2,
		ZSplit:  0.5,
		Field:   los.Unperturbed(1300),
	})
	require.NoError(t, err)
	assert.Positive(t, tracer.Ts())
}

func TestDistanceInvariants(t *testing.T) {
	tracer := newTestTracer(t, nil)

	assert.Positive(t, tracer.Td())
	assert.Positive(t, tracer.Ts())
	assert.Positive(t, tracer.Tds())
	assert.Positive(t, tracer.ReducedToPhys())
	assert.Less(t, tracer.Td(), tracer.Ts())
	assert.Equal(t, 0.5, tracer.ZSplit())
	assert.Equal(t, 2.0, tracer.ZSource())
}

func TestRayShootNoDeflectors(t *testing.T) {
	// With an unperturbed line of sight and no main deflector the
	// mapping is a pure rescaling beta = theta * Td / Ts.
	tracer := newTestTracer(t, nil)

	points := [][2]float64{{0, 0}, {1, 0}, {-2.5, 1.5}, {0.3, -4}}
	for _, pt := range points {
		bx, by := tracer.RayShoot(pt[0], pt[1], nil)
		assert.InDelta(t, pt[0]*tracer.Td()/tracer.Ts(), bx, 1e-12)
		assert.InDelta(t, pt[1]*tracer.Td()/tracer.Ts(), by, 1e-12)
	}
}

func TestAlphaConsistentWithRayShoot(t *testing.T) {
	tracer := newTestTracer(t, []string{"SIS"})
	params := []deflector.Params{{"theta_E": 1.2}}

	points := [][2]float64{{1.5, 0}, {-0.7, 2.1}, {0.01, 0.01}}
	for _, pt := range points {
		bx, by := tracer.RayShoot(pt[0], pt[1], params)
		ax, ay := tracer.Alpha(pt[0], pt[1], params)

		// Exact by construction, not approximately.
		assert.Equal(t, pt[0]-bx, ax)
		assert.Equal(t, pt[1]-by, ay)
	}
}

func TestDegenerateMainDeflector(t *testing.T) {
	// A main deflector with zero Einstein radius must reduce RayShoot
	// to the pure line-of-sight mapping.
	const zSplit, zSource = 0.5, 2.0
	cosmology := cosmo.Default()
	td, err := cosmology.TransverseDistance(0, zSplit)
	require.NoError(t, err)

	field := los.FuncField{
		X0Func:   func(tx, ty float64) float64 { return (tx + 0.1*ty) * td },
		Y0Func:   func(tx, ty float64) float64 { return (ty - 0.05*tx) * td },
		AlphaXFg: func(tx, ty float64) float64 { return 0.02 * tx },
		AlphaYFg: func(tx, ty float64) float64 { return -0.01 * ty },
		AlphaXBg: func(tx, ty float64) float64 { return 0.005 },
		AlphaYBg: func(tx, ty float64) float64 { return -0.003 },
	}

	tracer, err := New(Config{
		ZSource:    zSource,
		ZSplit:     zSplit,
		LensModels: []string{"SIS"},
		Field:      field,
		Cosmology:  cosmology,
	})
	require.NoError(t, err)

	params := []deflector.Params{{"theta_E": 0}}
	tx, ty := 1.3, -0.8

	bx, by := tracer.RayShoot(tx, ty, params)

	x := field.X0(tx, ty)
	y := field.Y0(tx, ty)
	wantX := x/tracer.Ts() + (field.AlphaXForeground(tx, ty)+field.AlphaXBackground(tx, ty))*tracer.Tds()/tracer.Ts()
	wantY := y/tracer.Ts() + (field.AlphaYForeground(tx, ty)+field.AlphaYBackground(tx, ty))*tracer.Tds()/tracer.Ts()

	assert.InDelta(t, wantX, bx, 1e-14)
	assert.InDelta(t, wantY, by, 1e-14)
}

func TestPointMassDeflectionAnalytic(t *testing.T) {
	tracer := newTestTracer(t, []string{"POINT_MASS"})
	params := []deflector.Params{{"theta_E": 1.0}}

	// With an unperturbed line of sight,
	//   alpha(theta) = theta*(1 - Td/Ts) + c * thetaE^2 * theta / r^2
	// where c = reducedToPhys * Tds / Ts. In a flat cosmology c is 1 up
	// to rounding.
	c := tracer.ReducedToPhys() * tracer.Tds() / tracer.Ts()
	assert.InDelta(t, 1.0, c, 1e-10)

	points := [][2]float64{{1.5, 0}, {0, -2}, {1.1, 0.9}}
	for _, pt := range points {
		tx, ty := pt[0], pt[1]
		r2 := tx*tx + ty*ty

		ax, ay := tracer.Alpha(tx, ty, params)
		wantX := tx*(1-tracer.Td()/tracer.Ts()) + c*tx/r2
		wantY := ty*(1-tracer.Td()/tracer.Ts()) + c*ty/r2
		assert.InDelta(t, wantX, ax, 1e-10, "alpha_x at (%v, %v)", tx, ty)
		assert.InDelta(t, wantY, ay, 1e-10, "alpha_y at (%v, %v)", tx, ty)
	}
}

func TestHessianPointMassAnalytic(t *testing.T) {
	tracer := newTestTracer(t, []string{"POINT_MASS"})
	params := []deflector.Params{{"theta_E": 1.0}}

	tx, ty := 1.2, 0.7
	r2 := tx*tx + ty*ty
	c := tracer.ReducedToPhys() * tracer.Tds() / tracer.Ts()
	base := 1 - tracer.Td()/tracer.Ts()

	// Second derivatives of the point-mass potential thetaE^2 * ln r,
	// plus the isotropic line-of-sight rescaling on the diagonal.
	wantXX := base + c*(ty*ty-tx*tx)/(r2*r2)
	wantYY := base + c*(tx*tx-ty*ty)/(r2*r2)
	wantXY := c * (-2 * tx * ty) / (r2 * r2)

	fxx, fxy, fyx, fyy := tracer.Hessian(tx, ty, params, DefaultHessianStep)

	// One-sided differencing with step h carries error of order h plus
	// float64 cancellation noise around 1e-8 relative.
	const tolerance = 1e-5
	assert.InDelta(t, wantXX, fxx, tolerance)
	assert.InDelta(t, wantYY, fyy, tolerance)
	assert.InDelta(t, wantXY, fxy, tolerance)
	assert.InDelta(t, wantXY, fyx, tolerance)
}

func TestHessianZeroStepPropagates(t *testing.T) {
	tracer := newTestTracer(t, []string{"SIS"})
	params := []deflector.Params{{"theta_E": 1.0}}

	// A zero step is deliberately not trapped.
	fxx, fxy, fyx, fyy := tracer.Hessian(1, 1, params, 0)
	for _, v := range []float64{fxx, fxy, fyx, fyy} {
		assert.True(t, math.IsNaN(v) || math.IsInf(v, 0), "got finite %v for zero step", v)
	}
}

func TestDeterminism(t *testing.T) {
	tracer := newTestTracer(t, []string{"SIS", "SHEAR"})
	params := []deflector.Params{
		{"theta_E": 1.1, "center_x": 0.2},
		{"gamma_1": 0.04, "gamma_2": -0.03},
	}

	bx1, by1 := tracer.RayShoot(0.9, -1.4, params)
	bx2, by2 := tracer.RayShoot(0.9, -1.4, params)
	assert.Equal(t, bx1, bx2)
	assert.Equal(t, by1, by2)
}

func TestConcurrentEvaluation(t *testing.T) {
	tracer := newTestTracer(t, []string{"SIS"})
	params := []deflector.Params{{"theta_E": 1.0}}

	const goroutines = 16
	const points = 50

	type result struct{ bx, by float64 }
	results := make([][]result, goroutines)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g] = make([]result, points)
			for i := 0; i < points; i++ {
				tx := 0.1 + float64(i)*0.07
				ty := -1.0 + float64(i)*0.04
				bx, by := tracer.RayShoot(tx, ty, params)
				results[g][i] = result{bx, by}
			}
		}(g)
	}
	wg.Wait()

	// Every goroutine sees bit-identical results.
	for g := 1; g < goroutines; g++ {
		assert.Equal(t, results[0], results[g], "goroutine %d diverged", g)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	tracer := newTestTracer(t, []string{"SIS"})
	params := []deflector.Params{{"theta_E": 1.0}}

	inputs := [][2]float64{{0, 0}, {1, 2}, {-3.5, 0.1}}
	for _, pt := range inputs {
		_, err := tracer.TimeDelay(pt[0], pt[1], params)
		assert.ErrorIs(t, err, ErrTimeDelayUnsupported)

		_, _, err = tracer.PartialComovingRayShoot(pt[0], pt[1], params, 0, 0.3)
		assert.ErrorIs(t, err, ErrPartialRayUnsupported)
	}
}

func TestFieldAccessor(t *testing.T) {
	const td = 1300.0
	field := los.Unperturbed(td)
	tracer, err := New(Config{ZSource: 2, ZSplit: 0.5, Field: field})
	require.NoError(t, err)

	got, ok := tracer.Field().(los.FuncField)
	require.True(t, ok)
	assert.Equal(t, field.X0(1, 0), got.X0(1, 0))
}

// errProvider always fails, to exercise construction-time propagation
type errProvider struct{}

func (errProvider) ComovingDistance(z1, z2 float64) (float64, error) {
	return 0, errors.New("no distances today")
}

func (errProvider) TransverseDistance(z1, z2 float64) (float64, error) {
	return 0, errors.New("no distances today")
}

func (errProvider) AngularDiameterDistance(z1, z2 float64) (float64, error) {
	return 0, errors.New("no distances today")
}

func TestNewPropagatesDistanceErrors(t *testing.T) {
	_, err := New(Config{
		ZSource:   2,
		ZSplit:    0.5,
		Field:     los.Unperturbed(1300),
		Cosmology: errProvider{},
	})
	require.Error(t, err)
	assert.Contains(t, fmt.Sprintf("%v", err), "no distances today")
}
