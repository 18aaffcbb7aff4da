package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/wildstyl3r/corbs/internal/config"
	"github.com/wildstyl3r/corbs/internal/constants"
)

// FiberModel is the randomized scattering geometry of one realization: the
// fiber cut into N segments, each with its own length and refractive index.
// Immutable once built.
type FiberModel struct {
	Lengths   []float64 // [m]
	Positions []float64 // [m], cumulative, Positions[i] = sum(Lengths[0..i])
	Indices   []float64
	Phases    []float64 // [rad], accumulated optical phase at the start of each segment

	Wavenumber float64 // [m^-1], k = 2 pi / lambda
}

// NewFiberModel discretizes the fiber and assigns the random index and length
// perturbations. All randomness comes from the supplied source, so a seed
// reproduces the geometry exactly.
func NewFiberModel(p config.ModelParameters, rng *rand.Rand) (*FiberModel, error) {
	if p.FiberLength <= 0 {
		return nil, fmt.Errorf("%w: FiberLength must be positive, got %v", config.ErrConfiguration, p.FiberLength)
	}
	if p.SegmentSize <= 0 {
		return nil, fmt.Errorf("%w: SegmentSize must be positive, got %v", config.ErrConfiguration, p.SegmentSize)
	}
	numSegments := int(p.FiberLength / p.SegmentSize)
	if numSegments < 1 {
		return nil, fmt.Errorf("%w: fiber shorter than one segment", config.ErrConfiguration)
	}

	f := &FiberModel{
		Lengths:    make([]float64, numSegments),
		Positions:  make([]float64, numSegments),
		Indices:    make([]float64, numSegments),
		Phases:     make([]float64, numSegments),
		Wavenumber: 2. * math.Pi / p.Wavelength,
	}

	for i := range f.Lengths {
		f.Indices[i] = constants.NominalFiberIndex + p.IndexPerturbation*rng.Float64()
		if p.LengthJitter > 0 {
			f.Lengths[i] = p.SegmentSize * (1. + p.LengthJitter*(2.*rng.Float64()-1.))
		} else {
			f.Lengths[i] = p.SegmentSize
		}
	}
	floats.CumSum(f.Positions, f.Lengths)

	f.accumulatePhases()
	return f, nil
}

// accumulatePhases is the sequential prefix scan over segments: the phase at
// the start of segment i is the phase accumulated through all preceding
// segments. The phase past the last segment is never needed.
func (f *FiberModel) accumulatePhases() {
	f.Phases[0] = 0.
	for i := 1; i < len(f.Phases); i++ {
		f.Phases[i] = f.Phases[i-1] + f.Indices[i-1]*f.Wavenumber*f.Lengths[i-1]
	}
}

// NumSegments is N.
func (f *FiberModel) NumSegments() int {
	return len(f.Lengths)
}
