package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fiber.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path[:len(path)-len(".toml")]
}

func TestLoadConfigDefaults(t *testing.T) {
	name := writeConfig(t, `
OutputDir = "out"

[Models.short]
FiberLength = 100.0
SegmentSize = 0.1
`)
	cfg, meta, err := LoadConfig(name)
	require.NoError(t, err)

	mp := cfg.Models["short"]
	require.NoError(t, mp.CheckAndUnify("short", &cfg, &meta))

	assert.Equal(t, 100.0, mp.FiberLength)
	assert.Equal(t, 1.55e-6, mp.Wavelength)
	assert.Equal(t, 1e-7, mp.IndexPerturbation)
	assert.Zero(t, mp.LengthJitter)
	assert.InEpsilon(t, 4.60517e-5, mp.Attenuation, 1e-4, "0.2 dB/km default in linear units")
	assert.Equal(t, 1., mp.LaunchedField)
	assert.Equal(t, 8.0e-11, mp.ModeFieldArea)
	assert.Equal(t, 1, mp.PulseWidth)
	assert.Equal(t, "rect", mp.PulseShape)
	assert.Equal(t, 1, mp.Runs)
	assert.Equal(t, int64(1), mp.Seed)
}

func TestLoadConfigGlobalFallback(t *testing.T) {
	name := writeConfig(t, `
FiberLength = 2000.0
SegmentSize = 0.05
Wavelength = 1.31e-6
Runs = 7

[Models.a]
SegmentSize = 0.02

[Models.b]
Seed = 99
`)
	cfg, meta, err := LoadConfig(name)
	require.NoError(t, err)

	a := cfg.Models["a"]
	require.NoError(t, a.CheckAndUnify("a", &cfg, &meta))
	assert.Equal(t, 2000.0, a.FiberLength, "global value must fill the gap")
	assert.Equal(t, 0.02, a.SegmentSize, "local value must win")
	assert.Equal(t, 1.31e-6, a.Wavelength)
	assert.Equal(t, 7, a.Runs)

	b := cfg.Models["b"]
	require.NoError(t, b.CheckAndUnify("b", &cfg, &meta))
	assert.Equal(t, 0.05, b.SegmentSize)
	assert.Equal(t, int64(99), b.Seed)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	name := writeConfig(t, `
[Models.broken]
SegmentSize = 0.1
`)
	cfg, meta, err := LoadConfig(name)
	require.NoError(t, err)
	mp := cfg.Models["broken"]
	assert.ErrorIs(t, mp.CheckAndUnify("broken", &cfg, &meta), ErrConfiguration)
}

func TestLoadConfigNoModels(t *testing.T) {
	name := writeConfig(t, `OutputDir = "out"`)
	_, _, err := LoadConfig(name)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAttenuationAlternatives(t *testing.T) {
	name := writeConfig(t, `
[Models.db]
FiberLength = 100.0
SegmentSize = 0.1
AttenuationDB = 0.35

[Models.linear]
FiberLength = 100.0
SegmentSize = 0.1
Attenuation = 5.0e-5

[Models.both]
FiberLength = 100.0
SegmentSize = 0.1
Attenuation = 5.0e-5
AttenuationDB = 0.35
`)
	cfg, meta, err := LoadConfig(name)
	require.NoError(t, err)

	db := cfg.Models["db"]
	require.NoError(t, db.CheckAndUnify("db", &cfg, &meta))
	assert.InEpsilon(t, 8.059e-5, db.Attenuation, 1e-3)

	linear := cfg.Models["linear"]
	require.NoError(t, linear.CheckAndUnify("linear", &cfg, &meta))
	assert.Equal(t, 5.0e-5, linear.Attenuation)

	both := cfg.Models["both"]
	assert.ErrorIs(t, both.CheckAndUnify("both", &cfg, &meta), ErrConfiguration)
}

func TestPulseDurationConversion(t *testing.T) {
	name := writeConfig(t, `
[Models.timed]
FiberLength = 100.0
SegmentSize = 0.1
PulseDuration = 1.0e-7
SamplingRate = 1.0e9

[Models.conflicting]
FiberLength = 100.0
SegmentSize = 0.1
PulseWidth = 10
PulseDuration = 1.0e-7

[Models.norate]
FiberLength = 100.0
SegmentSize = 0.1
PulseDuration = 1.0e-7
`)
	cfg, meta, err := LoadConfig(name)
	require.NoError(t, err)

	timed := cfg.Models["timed"]
	require.NoError(t, timed.CheckAndUnify("timed", &cfg, &meta))
	assert.Equal(t, 100, timed.PulseWidth)

	conflicting := cfg.Models["conflicting"]
	assert.ErrorIs(t, conflicting.CheckAndUnify("conflicting", &cfg, &meta), ErrConfiguration)

	norate := cfg.Models["norate"]
	assert.ErrorIs(t, norate.CheckAndUnify("norate", &cfg, &meta), ErrConfiguration)
}

func TestValidate(t *testing.T) {
	base := ModelParameters{
		FiberLength:   100,
		SegmentSize:   0.1,
		Wavelength:    1.55e-6,
		ModeFieldArea: 8e-11,
		PulseWidth:    1,
		Runs:          1,
	}
	require.NoError(t, base.Validate("base"))

	cases := []struct {
		name   string
		mutate func(*ModelParameters)
	}{
		{"zero fiber length", func(p *ModelParameters) { p.FiberLength = 0 }},
		{"negative segment size", func(p *ModelParameters) { p.SegmentSize = -1 }},
		{"no whole segment", func(p *ModelParameters) { p.FiberLength = 0.01 }},
		{"zero wavelength", func(p *ModelParameters) { p.Wavelength = 0 }},
		{"negative perturbation", func(p *ModelParameters) { p.IndexPerturbation = -1e-7 }},
		{"jitter out of range", func(p *ModelParameters) { p.LengthJitter = 1 }},
		{"negative attenuation", func(p *ModelParameters) { p.Attenuation = -1 }},
		{"zero mode area", func(p *ModelParameters) { p.ModeFieldArea = 0 }},
		{"zero pulse width", func(p *ModelParameters) { p.PulseWidth = 0 }},
		{"zero runs", func(p *ModelParameters) { p.Runs = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			assert.ErrorIs(t, p.Validate(tc.name), ErrConfiguration)
		})
	}
}
