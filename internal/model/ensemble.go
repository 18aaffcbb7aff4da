package model

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/wildstyl3r/corbs/internal/config"
	"github.com/wildstyl3r/corbs/internal/utils"
)

// Ensemble runs independent Monte Carlo realizations of one model. Each
// realization owns its RNG (seed base + run index) and FiberModel, so runs
// need no synchronization beyond the fan-in.
type Ensemble struct {
	Parameters config.ModelParameters

	logger *zap.SugaredLogger
}

func NewEnsemble(parameters config.ModelParameters, logger *zap.SugaredLogger) *Ensemble {
	return &Ensemble{Parameters: parameters, logger: logger}
}

type EnsembleResult struct {
	Runs int

	// First is the first realization, kept for trace outputs.
	First *Result

	// MeanIntensity is the bin-wise average intensity trace over all runs.
	MeanIntensity []float64

	// Contrast is sigma_I / <I> averaged over runs; ScintillationIndex is its
	// square. Fully developed speckle sits near 1.
	Contrast           float64
	ScintillationIndex float64

	// MeanTotalPower averages the grand-sum observable |sum E_i|^2 / Z0.
	MeanTotalPower float64
}

// Run executes all realizations, bounded by the threads setting, and folds
// the per-run traces into the ensemble aggregates. The first error aborts the
// whole ensemble; no partial aggregates are returned.
func (e *Ensemble) Run() (*EnsembleResult, error) {
	runs := e.Parameters.Runs
	if runs < 1 {
		return nil, fmt.Errorf("%w: Runs must be at least 1, got %d", config.ErrConfiguration, runs)
	}
	results := make([]*Result, runs)

	var g errgroup.Group
	g.SetLimit(max(e.Parameters.Threads(), 1))
	for r := range runs {
		g.Go(func() error {
			m := NewModel(e.Parameters)
			res, err := m.Run(e.Parameters.Seed + int64(r))
			if err != nil {
				return err
			}
			results[r] = res
			if e.logger != nil && e.Parameters.Verbose() {
				e.logger.Debugw("realization complete", "run", r, "segments", res.Fiber.NumSegments())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &EnsembleResult{
		Runs:          runs,
		First:         results[0],
		MeanIntensity: make([]float64, len(results[0].Intensity)),
	}

	contrasts := make([]float64, runs)
	for r, res := range results {
		for i := range res.Intensity {
			out.MeanIntensity[i] += res.Intensity[i]
		}
		mean := stat.Mean(res.Intensity, nil)
		sigma := math.Sqrt(stat.Variance(res.Intensity, nil))
		contrasts[r] = sigma / mean
		out.MeanTotalPower += res.TotalPower()
	}
	for i := range out.MeanIntensity {
		out.MeanIntensity[i] /= float64(runs)
	}
	out.Contrast = utils.Average(contrasts)
	out.ScintillationIndex = out.Contrast * out.Contrast
	out.MeanTotalPower /= float64(runs)

	if e.logger != nil {
		e.logger.Infow("ensemble complete",
			"runs", runs,
			"segments", out.First.Fiber.NumSegments(),
			"contrast", out.Contrast)
	}
	return out, nil
}
