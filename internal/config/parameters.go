package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/wildstyl3r/corbs/internal/utils"
)

// ErrConfiguration marks any invalid model setup detected before numeric work starts.
var ErrConfiguration = errors.New("config: invalid model parameters")

type Config struct {
	OutputDir string
	Models    map[string]ModelParameters

	// global defaults for all models
	ModelParameters
}

func LoadConfig(configFileName string) (Config, toml.MetaData, error) {
	var config Config
	meta, err := toml.DecodeFile(configFileName+".toml", &config)
	if err != nil {
		return config, meta, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if len(config.Models) == 0 {
		return config, meta, fmt.Errorf("%w: no models provided", ErrConfiguration)
	}
	return config, meta, nil
}

type ModelParameters struct {
	FiberLength            float64 // [m]
	SegmentSize            float64 // [m]
	Wavelength             float64 // [m]
	IndexPerturbation      float64 // added to the nominal index, uniform in [0, IndexPerturbation)
	LengthJitter           float64 // symmetric fraction of SegmentSize, 0 disables
	Attenuation            float64 // [m^-1], linear power attenuation
	AttenuationDB          float64 // [dB/km], alternative to Attenuation
	LaunchedField          float64 // [V/m]
	BackscatterCoefficient float64
	ModeFieldArea          float64 // [m^2]
	PulseWidth             int     // [samples]
	PulseDuration          float64 // [s], alternative to PulseWidth
	SamplingRate           float64 // [Hz], used with PulseDuration
	PulseShape             string  // "rect", "sech2" or a two-column shape file
	Runs                   int
	Seed                   int64
	MakeDir                bool

	_threads int
	_verbose bool
}

func (p *ModelParameters) Threads() int {
	return p._threads
}

func (p *ModelParameters) SetThreads(threads int) {
	p._threads = threads
}

func (p *ModelParameters) Verbose() bool {
	return p._verbose
}

func (p *ModelParameters) SetVerbosity(verbose bool) {
	p._verbose = verbose
}

// CheckAndUnify resolves a model's parameters against the global section and the
// built-in defaults, then validates them.
//
// field value priority:
//  1. local
//  2. global
//  3. default
func (mp *ModelParameters) CheckAndUnify(modelName string, config *Config, meta *toml.MetaData) error {
	local := func(field string) bool { return meta.IsDefined("Models", modelName, field) }

	if !local("FiberLength") {
		if !meta.IsDefined("FiberLength") {
			return fmt.Errorf("%w: model %s lacks FiberLength", ErrConfiguration, modelName)
		}
		mp.FiberLength = config.FiberLength
	}
	if !local("SegmentSize") {
		if !meta.IsDefined("SegmentSize") {
			return fmt.Errorf("%w: model %s lacks SegmentSize", ErrConfiguration, modelName)
		}
		mp.SegmentSize = config.SegmentSize
	}
	if !local("Wavelength") {
		if meta.IsDefined("Wavelength") {
			mp.Wavelength = config.Wavelength
		} else {
			mp.Wavelength = 1.55e-6
		}
	}
	if !local("IndexPerturbation") {
		if meta.IsDefined("IndexPerturbation") {
			mp.IndexPerturbation = config.IndexPerturbation
		} else {
			mp.IndexPerturbation = 1e-7
		}
	}
	if !local("LengthJitter") && meta.IsDefined("LengthJitter") {
		mp.LengthJitter = config.LengthJitter
	}

	hasAttenuation := local("Attenuation") || (!local("AttenuationDB") && meta.IsDefined("Attenuation"))
	hasAttenuationDB := local("AttenuationDB") || (!local("Attenuation") && meta.IsDefined("AttenuationDB"))
	if hasAttenuation && hasAttenuationDB {
		return fmt.Errorf("%w: model %s defines both Attenuation and AttenuationDB", ErrConfiguration, modelName)
	}
	switch {
	case hasAttenuation:
		if !local("Attenuation") {
			mp.Attenuation = config.Attenuation
		}
	case hasAttenuationDB:
		if !local("AttenuationDB") {
			mp.AttenuationDB = config.AttenuationDB
		}
		mp.Attenuation = utils.DB2Linear(mp.AttenuationDB)
	default:
		mp.Attenuation = utils.DB2Linear(0.2) // standard single-mode loss at 1550 nm
	}

	if !local("LaunchedField") {
		if meta.IsDefined("LaunchedField") {
			mp.LaunchedField = config.LaunchedField
		} else {
			mp.LaunchedField = 1.
		}
	}
	if !local("BackscatterCoefficient") {
		if meta.IsDefined("BackscatterCoefficient") {
			mp.BackscatterCoefficient = config.BackscatterCoefficient
		} else {
			mp.BackscatterCoefficient = 1.
		}
	}
	if !local("ModeFieldArea") {
		if meta.IsDefined("ModeFieldArea") {
			mp.ModeFieldArea = config.ModeFieldArea
		} else {
			mp.ModeFieldArea = 8.0e-11
		}
	}

	hasWidth := local("PulseWidth") || (!local("PulseDuration") && meta.IsDefined("PulseWidth"))
	hasDuration := local("PulseDuration") || (!local("PulseWidth") && meta.IsDefined("PulseDuration"))
	if hasWidth && hasDuration {
		return fmt.Errorf("%w: model %s defines both PulseWidth and PulseDuration", ErrConfiguration, modelName)
	}
	switch {
	case hasWidth:
		if !local("PulseWidth") {
			mp.PulseWidth = config.PulseWidth
		}
	case hasDuration:
		if !local("PulseDuration") {
			mp.PulseDuration = config.PulseDuration
		}
		if !local("SamplingRate") {
			if !meta.IsDefined("SamplingRate") {
				return fmt.Errorf("%w: model %s sets PulseDuration without SamplingRate", ErrConfiguration, modelName)
			}
			mp.SamplingRate = config.SamplingRate
		}
		mp.PulseWidth = int(mp.PulseDuration*mp.SamplingRate + 0.5)
	default:
		mp.PulseWidth = 1
	}

	if !local("PulseShape") {
		if meta.IsDefined("PulseShape") {
			mp.PulseShape = config.PulseShape
		} else {
			mp.PulseShape = "rect"
		}
	}
	if !local("Runs") {
		if meta.IsDefined("Runs") {
			mp.Runs = config.Runs
		} else {
			mp.Runs = 1
		}
	}
	if !local("Seed") {
		if meta.IsDefined("Seed") {
			mp.Seed = config.Seed
		} else {
			mp.Seed = 1
		}
	}
	if !local("MakeDir") && meta.IsDefined("MakeDir") {
		mp.MakeDir = config.MakeDir
	}

	return mp.Validate(modelName)
}

// Validate runs the eager geometry and range checks. It never touches the RNG or
// allocates trace storage, so a failing model aborts before any numeric work.
func (mp *ModelParameters) Validate(modelName string) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: model %s: %s", ErrConfiguration, modelName, fmt.Sprintf(format, args...))
	}
	if mp.FiberLength <= 0 {
		return fail("FiberLength must be positive, got %v", mp.FiberLength)
	}
	if mp.SegmentSize <= 0 {
		return fail("SegmentSize must be positive, got %v", mp.SegmentSize)
	}
	if int(mp.FiberLength/mp.SegmentSize) < 1 {
		return fail("fiber shorter than one segment: FiberLength %v, SegmentSize %v", mp.FiberLength, mp.SegmentSize)
	}
	if mp.Wavelength <= 0 {
		return fail("Wavelength must be positive, got %v", mp.Wavelength)
	}
	if mp.IndexPerturbation < 0 {
		return fail("IndexPerturbation must be non-negative, got %v", mp.IndexPerturbation)
	}
	if mp.LengthJitter < 0 || mp.LengthJitter >= 1 {
		return fail("LengthJitter must lie in [0, 1), got %v", mp.LengthJitter)
	}
	if mp.Attenuation < 0 {
		return fail("Attenuation must be non-negative, got %v", mp.Attenuation)
	}
	if mp.ModeFieldArea <= 0 {
		return fail("ModeFieldArea must be positive, got %v", mp.ModeFieldArea)
	}
	if mp.PulseWidth < 1 {
		return fail("PulseWidth must be at least 1 sample, got %v", mp.PulseWidth)
	}
	if mp.Runs < 1 {
		return fail("Runs must be at least 1, got %v", mp.Runs)
	}
	return nil
}
