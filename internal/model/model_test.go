package model

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildstyl3r/corbs/internal/constants"
)

func TestRunPipeline(t *testing.T) {
	p := testParameters()
	p.PulseWidth = 10
	p.PulseShape = "rect"
	p.Attenuation = 4.6e-5

	m := NewModel(p)
	res, err := m.Run(11)
	require.NoError(t, err)

	n := res.Fiber.NumSegments()
	require.Len(t, res.Field, n)
	require.Len(t, res.Convolved, n+p.PulseWidth-1, "full linear convolution length law")
	require.Len(t, res.Intensity, len(res.Convolved))

	for i, v := range res.Intensity {
		require.False(t, math.IsNaN(v), "intensity sample %d", i)
		require.GreaterOrEqual(t, v, 0., "intensity must be non-negative")
	}
}

func TestRunPulseWidthOneIsIdentity(t *testing.T) {
	p := testParameters()
	p.PulseWidth = 1

	m := NewModel(p)
	res, err := m.Run(11)
	require.NoError(t, err)
	require.Equal(t, res.Field, res.Convolved, "single-sample unit kernel must be the identity")
}

func TestRunReproducible(t *testing.T) {
	p := testParameters()
	p.PulseWidth = 5

	ma := NewModel(p)
	a, err := ma.Run(77)
	require.NoError(t, err)
	mb := NewModel(p)
	b, err := mb.Run(77)
	require.NoError(t, err)

	require.Equal(t, a.Fiber, b.Fiber)
	require.Equal(t, a.Field, b.Field)
	require.Equal(t, a.Intensity, b.Intensity)

	mc := NewModel(p)
	c, err := mc.Run(78)
	require.NoError(t, err)
	assert.NotEqual(t, a.Intensity, c.Intensity)
}

func TestIntensityMapping(t *testing.T) {
	out, err := Intensity([]complex128{3 + 4i})
	require.NoError(t, err)
	assert.InEpsilon(t, 25./constants.FreeSpaceImpedance, out[0], 1e-12)

	// purely imaginary amplitude still carries power; truncating the
	// imaginary part would lose it entirely
	out, err = Intensity([]complex128{2i})
	require.NoError(t, err)
	assert.InEpsilon(t, 4./constants.FreeSpaceImpedance, out[0], 1e-12)
}

func TestIntensityRejectsNonFinite(t *testing.T) {
	_, err := Intensity([]complex128{1, cmplx.Inf(), 2})
	require.ErrorIs(t, err, ErrNumericInstability)
	assert.ErrorContains(t, err, "sample 1")

	_, err = Intensity([]complex128{cmplx.NaN()})
	require.ErrorIs(t, err, ErrNumericInstability)
}

func TestResultTotalPower(t *testing.T) {
	r := &Result{Field: []complex128{1, 1i}}
	// |1 + i|^2 = 2
	assert.InEpsilon(t, 2./constants.FreeSpaceImpedance, r.TotalPower(), 1e-12)
}
