package main

import (
	"flag"
	"math/cmplx"
	"strconv"

	"go.uber.org/zap"

	"github.com/wildstyl3r/corbs/internal/model"
	"github.com/wildstyl3r/corbs/internal/utils"
)

type DataItem struct {
	saveFlag   *bool
	fileSuffix string
}

type SequentialDataItem struct {
	DataItem
	columnNames []string
	values      func(*DataExtractor) (args []float64, values [][]float64)
	scalers     []func(float64) float64
}

type ScalarDataItem struct {
	DataItem
	value func(*DataExtractor) float64
}

type DataFlags struct {
	all         *bool
	sequentials map[string]SequentialDataItem
	scalars     map[string]ScalarDataItem
}

type DataExtractor struct {
	ensemble *model.EnsembleResult
	// first realization, for trace outputs
	result *model.Result
}

func newDataExtractor(ensemble *model.EnsembleResult) *DataExtractor {
	return &DataExtractor{ensemble: ensemble, result: ensemble.First}
}

// delayAxis is the position axis of a convolved trace: one bin per segment
// size, running past the fiber end by the pulse width.
func (de *DataExtractor) delayAxis(n int) []float64 {
	positions := de.result.Fiber.Positions
	step := positions[len(positions)-1] / float64(len(positions))
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = step * float64(i)
	}
	return axis
}

func newDataFlags() DataFlags {
	return DataFlags{
		all: flag.Bool("all", false, "save every available metric"),
		sequentials: map[string]SequentialDataItem{
			"Intensity": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("i", true, "save intensity trace"),
					fileSuffix: "intensity",
				},
				columnNames: []string{"z (km)", "I (W m^-2)"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					args = de.delayAxis(len(de.result.Intensity))
					for i := range de.result.Intensity {
						values = append(values, []float64{de.result.Intensity[i]})
					}
					return args, values
				},
				scalers: []func(float64) float64{m2km},
			},
			"Mean intensity": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("mi", false, "save ensemble mean intensity trace"),
					fileSuffix: "mean_intensity",
				},
				columnNames: []string{"z (km)", "<I> (W m^-2)"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					args = de.delayAxis(len(de.ensemble.MeanIntensity))
					for i := range de.ensemble.MeanIntensity {
						values = append(values, []float64{de.ensemble.MeanIntensity[i]})
					}
					return args, values
				},
				scalers: []func(float64) float64{m2km},
			},
			"Field magnitude": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("fm", false, "save backscattered field magnitude per segment"),
					fileSuffix: "field",
				},
				columnNames: []string{"z (km)", "|E| (V/m)"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for i := range de.result.Field {
						args = append(args, de.result.Fiber.Positions[i])
						values = append(values, []float64{cmplx.Abs(de.result.Field[i])})
					}
					return args, values
				},
				scalers: []func(float64) float64{m2km},
			},
			"Convolved magnitude": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("cm", false, "save convolved field magnitude"),
					fileSuffix: "convolved",
				},
				columnNames: []string{"z (km)", "|E*p| (V/m)"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					args = de.delayAxis(len(de.result.Convolved))
					for i := range de.result.Convolved {
						values = append(values, []float64{cmplx.Abs(de.result.Convolved[i])})
					}
					return args, values
				},
				scalers: []func(float64) float64{m2km},
			},
			"Phase": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("ph", false, "save accumulated phase profile"),
					fileSuffix: "phase",
				},
				columnNames: []string{"z (km)", "phi (rad)"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for i := range de.result.Fiber.Phases {
						args = append(args, de.result.Fiber.Positions[i])
						values = append(values, []float64{de.result.Fiber.Phases[i]})
					}
					return args, values
				},
				scalers: []func(float64) float64{m2km},
			},
			"Refractive index": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("n", false, "save refractive index profile"),
					fileSuffix: "index",
				},
				columnNames: []string{"z (km)", "n"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for i := range de.result.Fiber.Indices {
						args = append(args, de.result.Fiber.Positions[i])
						values = append(values, []float64{de.result.Fiber.Indices[i]})
					}
					return args, values
				},
				scalers: []func(float64) float64{m2km},
			},
		},
		scalars: map[string]ScalarDataItem{
			"Mean intensity level": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("mil", false, "save trace-averaged mean intensity"),
					fileSuffix: "mean_level",
				},
				value: func(de *DataExtractor) float64 {
					return utils.Average(de.ensemble.MeanIntensity)
				},
			},
			"Speckle contrast": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("sc", false, "save speckle contrast sigma/mean"),
					fileSuffix: "contrast",
				},
				value: func(de *DataExtractor) float64 {
					return de.ensemble.Contrast
				},
			},
			"Scintillation index": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("si", false, "save scintillation index"),
					fileSuffix: "scintillation",
				},
				value: func(de *DataExtractor) float64 {
					return de.ensemble.ScintillationIndex
				},
			},
			"Total backscattered power": {
				DataItem: DataItem{
					saveFlag:   flag.Bool("tp", false, "save grand coherent sum power"),
					fileSuffix: "total_power",
				},
				value: func(de *DataExtractor) float64 {
					return de.ensemble.MeanTotalPower
				},
			},
		},
	}
}

func (df *DataFlags) save(de *DataExtractor, outputPath, modelName string, makeDir bool, logger *zap.SugaredLogger) {
	for name, item := range df.sequentials {
		if !*item.saveFlag && !*df.all {
			continue
		}
		args, values := item.values(de)
		rows := make(utils.CSV, 0, len(args))
		for i := range args {
			x := args[i]
			if len(item.scalers) > 0 && item.scalers[0] != nil {
				x = item.scalers[0](x)
			}
			row := []string{strconv.FormatFloat(x, 'g', -1, 64)}
			for j := range values[i] {
				y := values[i][j]
				if len(item.scalers) > j+1 && item.scalers[j+1] != nil {
					y = item.scalers[j+1](y)
				}
				row = append(row, strconv.FormatFloat(y, 'g', -1, 64))
			}
			rows = append(rows, row)
		}
		if err := utils.WriteAsCSV(rows, makeDir, outputPath, item.fileSuffix, modelName, item.columnNames); err != nil {
			logger.Errorw("unable to save", "metric", name, "error", err)
			continue
		}
		logger.Infow("saved", "metric", name)
	}

	var scalarRows utils.CSV
	for name, item := range df.scalars {
		if !*item.saveFlag && !*df.all {
			continue
		}
		scalarRows = append(scalarRows, []string{name, strconv.FormatFloat(item.value(de), 'g', -1, 64)})
	}
	if len(scalarRows) > 0 {
		if err := utils.WriteAsCSV(scalarRows, makeDir, outputPath, "scalars", modelName, []string{"metric", "value"}); err != nil {
			logger.Errorw("unable to save scalar metrics", "error", err)
		} else {
			logger.Infow("saved scalar metrics", "count", len(scalarRows))
		}
	}
}

func m2km(v float64) float64 {
	return v * 1e-3
}
