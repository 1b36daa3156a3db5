package cosmo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComovingDistancePlanck18(t *testing.T) {
	c := Default()

	// Loose brackets around the known Planck 2018 values.
	d1, err := c.ComovingDistance(0, 1)
	require.NoError(t, err)
	assert.Greater(t, d1, 3200.0)
	assert.Less(t, d1, 3600.0)

	d2, err := c.ComovingDistance(0, 2)
	require.NoError(t, err)
	assert.Greater(t, d2, d1, "comoving distance must grow with redshift")
}

func TestComovingDistanceAdditivity(t *testing.T) {
	c := Default()

	d01, err := c.ComovingDistance(0, 0.5)
	require.NoError(t, err)
	d12, err := c.ComovingDistance(0.5, 1.0)
	require.NoError(t, err)
	d02, err := c.ComovingDistance(0, 1.0)
	require.NoError(t, err)

	assert.InEpsilon(t, d02, d01+d12, 1e-10)
}

func TestComovingDistanceSameRedshift(t *testing.T) {
	c := Default()
	d, err := c.ComovingDistance(0.7, 0.7)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestTransverseEqualsComovingWhenFlat(t *testing.T) {
	c := Default()
	d, err := c.ComovingDistance(0.2, 1.8)
	require.NoError(t, err)
	tr, err := c.TransverseDistance(0.2, 1.8)
	require.NoError(t, err)
	assert.Equal(t, d, tr)
}

func TestAngularDiameterDistance(t *testing.T) {
	c := Default()
	tr, err := c.TransverseDistance(0, 1.5)
	require.NoError(t, err)
	da, err := c.AngularDiameterDistance(0, 1.5)
	require.NoError(t, err)
	assert.InEpsilon(t, tr/2.5, da, 1e-12)
}

func TestDistanceErrors(t *testing.T) {
	tests := []struct {
		name   string
		cosmo  FlatLCDM
		z1, z2 float64
	}{
		{"unordered pair", Default(), 1.0, 0.5},
		{"negative z1", Default(), -0.1, 1.0},
		{"NaN redshift", Default(), 0, math.NaN()},
		{"zero hubble constant", FlatLCDM{H0: 0, OmegaM: 0.3}, 0, 1},
		{"negative matter density", FlatLCDM{H0: 70, OmegaM: -0.1}, 0, 1},
		{"matter density above one", FlatLCDM{H0: 70, OmegaM: 1.2}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cosmo.ComovingDistance(tt.z1, tt.z2)
			assert.Error(t, err)
			_, err = tt.cosmo.TransverseDistance(tt.z1, tt.z2)
			assert.Error(t, err)
			_, err = tt.cosmo.AngularDiameterDistance(tt.z1, tt.z2)
			assert.Error(t, err)
		})
	}
}
