package cosmo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// speedOfLight is the speed of light in km/s
const speedOfLight = 299792.458

// quadNodes is the number of Gauss-Legendre nodes used for the
// comoving-distance integral. 128 nodes keeps the quadrature error far
// below the accuracy of the background cosmology itself.
const quadNodes = 128

// FlatLCDM is a spatially flat Lambda-CDM background cosmology.
// Distances are returned in Mpc.
type FlatLCDM struct {
	H0     float64 // Hubble constant in km/s/Mpc
	OmegaM float64 // Present-day matter density parameter
}

// Default returns a flat Lambda-CDM cosmology with Planck 2018 parameters
func Default() FlatLCDM {
	return FlatLCDM{H0: 67.4, OmegaM: 0.315}
}

// hubbleDistance returns c/H0 in Mpc
func (c FlatLCDM) hubbleDistance() float64 {
	return speedOfLight / c.H0
}

// efunc returns the dimensionless Hubble parameter E(z) = H(z)/H0
func (c FlatLCDM) efunc(z float64) float64 {
	zp := 1 + z
	return math.Sqrt(c.OmegaM*zp*zp*zp + (1 - c.OmegaM))
}

// checkPair validates a redshift pair before a distance evaluation.
// Unordered pairs fail loudly rather than silently flipping sign.
func (c FlatLCDM) checkPair(z1, z2 float64) error {
	if c.H0 <= 0 {
		return fmt.Errorf("hubble constant must be positive, got %g", c.H0)
	}
	if c.OmegaM < 0 || c.OmegaM > 1 {
		return fmt.Errorf("matter density must be in [0, 1], got %g", c.OmegaM)
	}
	if math.IsNaN(z1) || math.IsNaN(z2) {
		return fmt.Errorf("redshift pair (%g, %g) contains NaN", z1, z2)
	}
	if z1 < 0 {
		return fmt.Errorf("redshift z1 must be non-negative, got %g", z1)
	}
	if z2 < z1 {
		return fmt.Errorf("redshift pair must be ordered z1 <= z2, got (%g, %g)", z1, z2)
	}
	return nil
}

// ComovingDistance returns the line-of-sight comoving distance in Mpc
// between redshifts z1 and z2, with z1 <= z2.
func (c FlatLCDM) ComovingDistance(z1, z2 float64) (float64, error) {
	if err := c.checkPair(z1, z2); err != nil {
		return 0, err
	}
	if z1 == z2 {
		return 0, nil
	}
	d := c.hubbleDistance() * quad.Fixed(func(z float64) float64 {
		return 1 / c.efunc(z)
	}, z1, z2, quadNodes, quad.Legendre{}, 0)
	return d, nil
}

// TransverseDistance returns the transverse comoving distance in Mpc
// between redshifts z1 and z2. In a flat universe this equals the
// line-of-sight comoving distance.
func (c FlatLCDM) TransverseDistance(z1, z2 float64) (float64, error) {
	return c.ComovingDistance(z1, z2)
}

// AngularDiameterDistance returns the angular diameter distance in Mpc
// between redshifts z1 and z2, with z1 <= z2.
func (c FlatLCDM) AngularDiameterDistance(z1, z2 float64) (float64, error) {
	t, err := c.TransverseDistance(z1, z2)
	if err != nil {
		return 0, err
	}
	return t / (1 + z2), nil
}
