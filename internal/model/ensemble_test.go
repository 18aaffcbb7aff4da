package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsembleReproducible(t *testing.T) {
	p := testParameters()
	p.Runs = 3
	p.PulseWidth = 4
	p.SetThreads(2)

	a, err := NewEnsemble(p, nil).Run()
	require.NoError(t, err)
	b, err := NewEnsemble(p, nil).Run()
	require.NoError(t, err)

	require.Equal(t, a.MeanIntensity, b.MeanIntensity, "same base seed must reproduce the ensemble")
	require.Equal(t, a.Contrast, b.Contrast)

	p.Seed = 1000
	c, err := NewEnsemble(p, nil).Run()
	require.NoError(t, err)
	assert.NotEqual(t, a.MeanIntensity, c.MeanIntensity, "different base seeds must give different speckle")
}

func TestEnsembleAggregates(t *testing.T) {
	p := testParameters()
	p.Runs = 4
	p.PulseWidth = 8
	p.SetThreads(4)

	res, err := NewEnsemble(p, nil).Run()
	require.NoError(t, err)

	require.Equal(t, 4, res.Runs)
	require.NotNil(t, res.First)
	n := res.First.Fiber.NumSegments()
	require.Len(t, res.MeanIntensity, n+p.PulseWidth-1)

	for i, v := range res.MeanIntensity {
		assert.GreaterOrEqual(t, v, 0., "mean intensity sample %d", i)
	}
	assert.Greater(t, res.MeanTotalPower, 0.)
	assert.InEpsilon(t, res.Contrast*res.Contrast, res.ScintillationIndex, 1e-12)
}

// A long fiber with many independent scatterers develops speckle: the
// intensity fluctuates on the order of its own mean.
func TestEnsembleDevelopedSpeckleContrast(t *testing.T) {
	p := testParameters()
	p.FiberLength = 200
	p.SegmentSize = 0.01
	p.IndexPerturbation = 1e-6
	p.Wavelength = 1.55e-6
	p.Runs = 2
	p.PulseWidth = 20
	p.SetThreads(4)

	res, err := NewEnsemble(p, nil).Run()
	require.NoError(t, err)
	assert.Greater(t, res.Contrast, 0.3, "coherent summation of many random scatterers must fluctuate")
	assert.Less(t, res.Contrast, 3.)
}
