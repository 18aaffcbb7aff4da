package main

import (
	"errors"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wildstyl3r/corbs/internal/config"
	"github.com/wildstyl3r/corbs/internal/model"
)

func main() {
	dataFlags := newDataFlags()
	var configFileNamePointer = flag.String("input", "fiber", "model configuration in toml format")
	var threads = flag.Int("threads", runtime.NumCPU(), "worker limit for realizations and field evaluation")
	var verbose = flag.Bool("verbose", false, "per-realization debug output")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	startTime := time.Now()

	configFileName := strings.TrimSuffix(*configFileNamePointer, ".toml")
	cfg, meta, err := config.LoadConfig(configFileName)
	if err != nil {
		sugar.Fatalw("unable to load configuration", "file", configFileName+".toml", "error", err)
	}

	outputPath := ""
	if cfg.OutputDir != "" && cfg.OutputDir != "." {
		if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
			sugar.Fatalw("unable to create output directory", "dir", cfg.OutputDir, "error", err)
		}
		outputPath = cfg.OutputDir + "/"
	}

	for modelName, parameters := range cfg.Models {
		sugar.Infow("model start", "model", modelName)
		if err := parameters.CheckAndUnify(modelName, &cfg, &meta); err != nil {
			sugar.Errorw("skipping model", "model", modelName, "error", err)
			continue
		}
		parameters.SetThreads(*threads)
		parameters.SetVerbosity(*verbose)

		ensemble := model.NewEnsemble(parameters, sugar)
		result, err := ensemble.Run()
		if err != nil {
			if errors.Is(err, model.ErrNumericInstability) {
				sugar.Errorw("model aborted mid-pipeline", "model", modelName, "error", err)
			} else {
				sugar.Errorw("model failed", "model", modelName, "error", err)
			}
			continue
		}

		dataFlags.save(newDataExtractor(result), outputPath, modelName, parameters.MakeDir, sugar)
		sugar.Infow("model done", "model", modelName, "runs", result.Runs)
	}
	sugar.Infow("all models done", "elapsed", time.Since(startTime))
}
