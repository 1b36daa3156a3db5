// Package trace implements decoupled multi-plane gravitational-lensing
// ray tracing. Deflections from every perturber along the line of sight
// are frozen into a precomputed los.Field, while the main deflector is
// re-evaluated live from its parameters on every call. This breaks the
// recursive multi-plane lens equation and makes repeated evaluation
// with varying main-deflector parameters cheap, at the cost of exact
// time delays and partial ray propagation.
package trace

import (
	"errors"
	"fmt"

	"github.com/mkappa/go-lens-raytracer/pkg/cosmo"
	"github.com/mkappa/go-lens-raytracer/pkg/deflector"
	"github.com/mkappa/go-lens-raytracer/pkg/los"
)

// DefaultHessianStep is the finite-difference step used for Hessian
// evaluation when the caller has no reason to override it, in the same
// angular units as the coordinates.
const DefaultHessianStep = 1e-8

// Unsupported operations. The decoupling discards the per-plane
// information these would need, so they fail for every input.
var (
	ErrTimeDelayUnsupported  = errors.New("time delays are not supported by the decoupled tracer")
	ErrPartialRayUnsupported = errors.New("partial comoving ray shooting is not supported by the decoupled tracer")
)

// DistanceProvider supplies cosmological distances between redshift
// pairs, in Mpc. Implementations must fail loudly for unordered pairs.
type DistanceProvider interface {
	ComovingDistance(z1, z2 float64) (float64, error)
	TransverseDistance(z1, z2 float64) (float64, error)
	AngularDiameterDistance(z1, z2 float64) (float64, error)
}

// Config describes a decoupled tracer.
type Config struct {
	ZSource float64 // Source redshift
	ZSplit  float64 // Main-deflector redshift; partitions the line of sight

	// LensModels and ProfileConfigs describe the main deflector, in the
	// form accepted by deflector.NewEvaluator. ProfileConfigs may be nil.
	LensModels     []string
	ProfileConfigs []deflector.ProfileConfig

	// Field is the precomputed line-of-sight realization.
	Field los.Field

	// Cosmology supplies distances. Nil means cosmo.Default().
	Cosmology DistanceProvider
}

// Tracer is a decoupled multi-plane ray tracer. All distance ratios are
// computed once at construction and never mutated, so every evaluation
// method is a pure function of its arguments and safe for concurrent
// use on a shared instance.
type Tracer struct {
	zSource float64
	zSplit  float64

	// Distances precomputed at construction, all in Mpc.
	// reducedToPhys converts the main deflector's reduced deflection to
	// a physical deflection at the true source redshift.
	reducedToPhys float64
	td            float64 // Transverse comoving distance to the deflector plane
	ts            float64 // Transverse comoving distance to the source plane
	tds           float64 // Transverse comoving distance deflector -> source

	field los.Field
	main  *deflector.Evaluator
}

// New builds a Tracer from cfg, precomputing all distance ratios. It
// fails on an invalid redshift configuration, a missing or incomplete
// line-of-sight field, an unknown lens model, or any distance the
// cosmology refuses to evaluate. No partially initialized tracer is
// ever returned.
func New(cfg Config) (*Tracer, error) {
	if cfg.Cosmology == nil {
		cfg.Cosmology = cosmo.Default()
	}
	if cfg.Field == nil {
		return nil, errors.New("tracer: line-of-sight field must be set")
	}
	if ff, ok := cfg.Field.(los.FuncField); ok && !ff.Complete() {
		return nil, errors.New("tracer: line-of-sight field has unset components")
	}
	if cfg.ZSplit <= 0 || cfg.ZSource <= cfg.ZSplit {
		return nil, fmt.Errorf("tracer: need 0 < zSplit < zSource, got zSplit=%g zSource=%g", cfg.ZSplit, cfg.ZSource)
	}

	main, err := deflector.NewEvaluator(cfg.LensModels, cfg.ProfileConfigs)
	if err != nil {
		return nil, fmt.Errorf("tracer: %w", err)
	}

	ds, err := cfg.Cosmology.AngularDiameterDistance(0, cfg.ZSource)
	if err != nil {
		return nil, fmt.Errorf("tracer: observer-source distance: %w", err)
	}
	dds, err := cfg.Cosmology.AngularDiameterDistance(cfg.ZSplit, cfg.ZSource)
	if err != nil {
		return nil, fmt.Errorf("tracer: deflector-source distance: %w", err)
	}
	if dds <= 0 {
		return nil, fmt.Errorf("tracer: deflector-source distance must be positive, got %g", dds)
	}
	td, err := cfg.Cosmology.TransverseDistance(0, cfg.ZSplit)
	if err != nil {
		return nil, fmt.Errorf("tracer: observer-deflector distance: %w", err)
	}
	ts, err := cfg.Cosmology.TransverseDistance(0, cfg.ZSource)
	if err != nil {
		return nil, fmt.Errorf("tracer: observer-source distance: %w", err)
	}
	tds, err := cfg.Cosmology.TransverseDistance(cfg.ZSplit, cfg.ZSource)
	if err != nil {
		return nil, fmt.Errorf("tracer: deflector-source distance: %w", err)
	}
	if td <= 0 || ts <= 0 || tds <= 0 {
		return nil, fmt.Errorf("tracer: transverse distances must be positive, got Td=%g Ts=%g Tds=%g", td, ts, tds)
	}

	return &Tracer{
		zSource:       cfg.ZSource,
		zSplit:        cfg.ZSplit,
		reducedToPhys: ds / dds,
		td:            td,
		ts:            ts,
		tds:           tds,
		field:         cfg.Field,
		main:          main,
	}, nil
}

// RayShoot maps the sky angle (thetaX, thetaY) to the source-plane
// position (betaX, betaY) reached by the ray, for the given
// main-deflector parameters.
func (t *Tracer) RayShoot(thetaX, thetaY float64, params []deflector.Params) (betaX, betaY float64) {
	// Comoving position where the ray pierces the main-deflector plane,
	// already including all foreground bending.
	x := t.field.X0(thetaX, thetaY)
	y := t.field.Y0(thetaX, thetaY)

	// Angular position of the ray on the deflector plane.
	thetaXMain := x / t.td
	thetaYMain := y / t.td

	// Accumulated deflection from every perturber at z <= zSplit,
	// excluding the main deflector.
	angleX := t.field.AlphaXForeground(thetaX, thetaY)
	angleY := t.field.AlphaYForeground(thetaX, thetaY)

	// Live main-deflector deflection, scaled from reduced to physical.
	defX, defY := t.main.Deflection(thetaXMain, thetaYMain, params)
	angleX -= defX * t.reducedToPhys
	angleY -= defY * t.reducedToPhys

	// Net deflection from every perturber at z > zSplit.
	angleX += t.field.AlphaXBackground(thetaX, thetaY)
	angleY += t.field.AlphaYBackground(thetaX, thetaY)

	// Propagate to the source plane in the flat-sky approximation.
	betaX = x/t.ts + angleX*t.tds/t.ts
	betaY = y/t.ts + angleY*t.tds/t.ts
	return betaX, betaY
}

// Alpha returns the reduced deflection angle theta - beta.
func (t *Tracer) Alpha(thetaX, thetaY float64, params []deflector.Params) (alphaX, alphaY float64) {
	betaX, betaY := t.RayShoot(thetaX, thetaY, params)
	return thetaX - betaX, thetaY - betaY
}

// Hessian approximates the second derivatives of the lensing potential
// with one-sided forward finite differences of Alpha, using the given
// step. Pass DefaultHessianStep unless there is a reason not to.
//
// fXY and fYX are estimated independently and differ by the truncation
// error of the one-sided difference even though the true Hessian is
// symmetric. Consumers rely on this convention; do not symmetrize.
// A zero step is not trapped and produces NaN or Inf.
func (t *Tracer) Hessian(thetaX, thetaY float64, params []deflector.Params, step float64) (fXX, fXY, fYX, fYY float64) {
	alphaX, alphaY := t.Alpha(thetaX, thetaY, params)
	alphaXdx, alphaYdx := t.Alpha(thetaX+step, thetaY, params)
	alphaXdy, alphaYdy := t.Alpha(thetaX, thetaY+step, params)

	fXX = (alphaXdx - alphaX) / step
	fXY = (alphaXdy - alphaX) / step
	fYX = (alphaYdx - alphaY) / step
	fYY = (alphaYdy - alphaY) / step
	return fXX, fXY, fYX, fYY
}

// TimeDelay always fails: the decoupling discards the per-plane path
// information an exact geometric plus Shapiro delay would need.
func (t *Tracer) TimeDelay(thetaX, thetaY float64, params []deflector.Params) (float64, error) {
	return 0, ErrTimeDelayUnsupported
}

// PartialComovingRayShoot always fails: rays cannot be stopped at an
// intermediate redshift once the plane-by-plane recursion has been
// replaced by interpolated fields.
func (t *Tracer) PartialComovingRayShoot(thetaX, thetaY float64, params []deflector.Params, zStart, zStop float64) (float64, float64, error) {
	return 0, 0, ErrPartialRayUnsupported
}

// Field returns the line-of-sight realization the tracer was built with.
func (t *Tracer) Field() los.Field { return t.field }

// ZSplit returns the main-deflector redshift separating foreground from
// background structure.
func (t *Tracer) ZSplit() float64 { return t.zSplit }

// ZSource returns the source redshift.
func (t *Tracer) ZSource() float64 { return t.zSource }

// Td returns the transverse comoving distance to the deflector plane in Mpc.
func (t *Tracer) Td() float64 { return t.td }

// Ts returns the transverse comoving distance to the source plane in Mpc.
func (t *Tracer) Ts() float64 { return t.ts }

// Tds returns the transverse comoving distance from the deflector plane
// to the source plane in Mpc.
func (t *Tracer) Tds() float64 { return t.tds }

// ReducedToPhys returns the factor converting the main deflector's
// reduced deflection to a physical deflection at the source redshift.
func (t *Tracer) ReducedToPhys() float64 { return t.reducedToPhys }
