// Package pulse models the finite probe pulse: kernel construction and the full
// linear convolution of a backscattered field trace with the kernel.
package pulse

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/wildstyl3r/corbs/internal/config"
	"github.com/wildstyl3r/corbs/internal/utils"
)

// Kernel is a sampled probe-pulse profile, peak-normalized to 1.
type Kernel []float64

// sech(x)^2 falls to 1/2 at x = ln(1+sqrt(2))
const sech2HalfMax = 0.8813735870195430

// direct convolution is cheaper below this kernel size; above it the FFT path wins
const fftKernelThreshold = 64

// New builds a kernel of the given shape and width in samples. Shape is "rect"
// (default), "sech2", or a path to a two-column (time, amplitude) shape file,
// in which case the file defines the width and the width argument is ignored.
func New(shape string, width int) (Kernel, error) {
	switch shape {
	case "", "rect":
		return Rectangular(width)
	case "sech2":
		return Sech2(width)
	default:
		return FromFile(shape)
	}
}

// Rectangular is the boxcar kernel of unit amplitude.
func Rectangular(width int) (Kernel, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: pulse width must be at least 1 sample, got %d", config.ErrConfiguration, width)
	}
	k := make(Kernel, width)
	for i := range k {
		k[i] = 1.
	}
	return k, nil
}

// Sech2 is the hyperbolic-secant-squared profile of a transform-limited laser
// pulse, truncated to width samples with FWHM = width/2, unit peak.
func Sech2(width int) (Kernel, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: pulse width must be at least 1 sample, got %d", config.ErrConfiguration, width)
	}
	k := make(Kernel, width)
	center := float64(width-1) / 2.
	scale := 4. * sech2HalfMax / float64(width)
	for i := range k {
		s := 1. / math.Cosh(scale*(float64(i)-center))
		k[i] = s * s
	}
	k.normalize()
	return k, nil
}

// FromFile loads a measured pulse shape: two whitespace-separated columns, the
// second being the amplitude sample. The time column only fixes the ordering.
func FromFile(filename string) (Kernel, error) {
	pairs, err := utils.ReadFloatPairs(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: pulse shape file: %v", config.ErrConfiguration, err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: pulse shape file %s is empty", config.ErrConfiguration, filename)
	}
	k := make(Kernel, len(pairs))
	for i := range pairs {
		k[i] = pairs[i][1]
	}
	k.normalize()
	return k, nil
}

func (k Kernel) normalize() {
	peak := k[utils.Argmax(k)]
	if peak == 0 {
		return
	}
	for i := range k {
		k[i] /= peak
	}
}

// Convolve computes the full linear convolution of the field trace with the
// kernel. The result has length len(field) + len(k) - 1; no truncation, no
// circular wraparound.
func Convolve(field []complex128, k Kernel) ([]complex128, error) {
	if len(k) < 1 {
		return nil, fmt.Errorf("%w: empty pulse kernel", config.ErrConfiguration)
	}
	if len(field) < 1 {
		return nil, fmt.Errorf("%w: empty field trace", config.ErrConfiguration)
	}
	if len(k) < fftKernelThreshold {
		return convolveDirect(field, k), nil
	}
	return convolveFFT(field, k), nil
}

func convolveDirect(field []complex128, k Kernel) []complex128 {
	out := make([]complex128, len(field)+len(k)-1)
	for i := range field {
		for j := range k {
			out[i+j] += field[i] * complex(k[j], 0)
		}
	}
	return out
}

func convolveFFT(field []complex128, k Kernel) []complex128 {
	n := len(field) + len(k) - 1
	a := make([]complex128, n)
	copy(a, field)
	b := make([]complex128, n)
	for i := range k {
		b[i] = complex(k[i], 0)
	}

	fft := fourier.NewCmplxFFT(n)
	ca := fft.Coefficients(nil, a)
	cb := fft.Coefficients(nil, b)
	for i := range ca {
		ca[i] *= cb[i]
	}
	out := fft.Sequence(nil, ca)
	inv := complex(1./float64(n), 0)
	for i := range out {
		out[i] *= inv
	}
	return out
}
