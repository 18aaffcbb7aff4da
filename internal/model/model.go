// Package model holds the coherent Rayleigh backscatter pipeline: fiber
// discretization, phase accumulation, analytic per-segment field evaluation,
// probe-pulse convolution and the intensity mapping, plus the Monte Carlo
// ensemble runner over independent realizations.
package model

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/wildstyl3r/corbs/internal/config"
	"github.com/wildstyl3r/corbs/internal/constants"
	"github.com/wildstyl3r/corbs/internal/pulse"
)

type Model struct {
	Parameters config.ModelParameters
}

func NewModel(parameters config.ModelParameters) Model {
	return Model{Parameters: parameters}
}

// Result is everything one realization produces. All slices are terminal
// artifacts: built once, never mutated afterwards.
type Result struct {
	Fiber     *FiberModel
	Field     []complex128 // one entry per segment
	Convolved []complex128 // len(Field) + pulse width - 1
	Intensity []float64    // same length as Convolved, [W m^-2]
}

// Run executes the pipeline for a single realization seeded with the given
// seed: discretize, accumulate phases, evaluate fields, convolve with the
// probe pulse, map to intensity. The stages are strictly linear; the first
// failing stage aborts the run.
func (m *Model) Run(seed int64) (*Result, error) {
	p := m.Parameters

	kernel, err := pulse.New(p.PulseShape, p.PulseWidth)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	fiber, err := NewFiberModel(p, rng)
	if err != nil {
		return nil, err
	}

	scale := p.LaunchedField * p.BackscatterCoefficient / p.ModeFieldArea
	field, err := fiber.BackscatterField(p.Attenuation, scale, p.Threads())
	if err != nil {
		return nil, err
	}

	convolved, err := pulse.Convolve(field, kernel)
	if err != nil {
		return nil, err
	}

	intensity, err := Intensity(convolved)
	if err != nil {
		return nil, err
	}

	return &Result{
		Fiber:     fiber,
		Field:     field,
		Convolved: convolved,
		Intensity: intensity,
	}, nil
}

// Intensity maps a complex field trace to optical power through the free-space
// impedance, I = |E|^2 / Z0. The magnitude is taken before squaring; dropping
// the imaginary part instead would corrupt the speckle trace.
func Intensity(field []complex128) ([]float64, error) {
	out := make([]float64, len(field))
	for i := range field {
		a := cmplx.Abs(field[i])
		v := a * a / constants.FreeSpaceImpedance
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: sample %d produced %v", ErrNumericInstability, i, v)
		}
		out[i] = v
	}
	return out, nil
}

// TotalPower is |sum E_i|^2 / Z0, the single-point observable of the grand
// coherent sum.
func (r *Result) TotalPower() float64 {
	a := cmplx.Abs(TotalField(r.Field))
	return a * a / constants.FreeSpaceImpedance
}
