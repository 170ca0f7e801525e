// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"math"
	"strings"

	"pipeline/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Waveform selects the shape of an oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
	Custom
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseWaveform converts a name to a Waveform. An empty name is a sine.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	case "triangle":
		return Triangle, nil
	default:
		return Sine, fmt.Errorf("unknown waveform %q", name)
	}
}

// DefaultOscillatorFrequency is the start frequency of new oscillators in Hz.
const DefaultOscillatorFrequency = 440.0

// WaveConstraints mirrors the options accepted when building a periodic wave.
type WaveConstraints struct {
	DisableNormalization bool
}

// minWavetableSize keeps low-order waves smooth under linear interpolation.
const minWavetableSize = 2048

type oscillatorProc struct {
	sampleRate float64
	frequency  float64
	phase      float64
	wave       Waveform
	table      []float64
}

func (*oscillatorProc) generator() {}

func (o *oscillatorProc) sample() float64 {
	p := o.phase
	switch o.wave {
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*p - 1
	case Triangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	case Custom:
		pos := p * float64(len(o.table))
		i := int(pos)
		frac := pos - float64(i)
		a := o.table[i%len(o.table)]
		b := o.table[(i+1)%len(o.table)]
		return a + (b-a)*frac
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

func (o *oscillatorProc) process(_, out Block) {
	step := o.frequency / o.sampleRate
	left, right := out[0], out[1]
	for i := range left {
		v := o.sample()
		left[i] = v
		right[i] = v
		o.phase += step
		o.phase -= math.Floor(o.phase)
	}
}

func (o *oscillatorProc) params() map[string]float64 {
	return map[string]float64{"frequency": o.frequency}
}

func (o *oscillatorProc) setParam(name string, value float64) error {
	if name != "frequency" {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	nyquist := o.sampleRate / 2
	if value < -nyquist || value > nyquist || math.IsNaN(value) {
		return fmt.Errorf("%w: frequency %.1f outside [-%.1f, %.1f]", ErrParamRange, value, nyquist, nyquist)
	}
	o.frequency = value
	return nil
}

// periodicTable synthesises one cycle from Fourier coefficients, where
// re[k] scales cos(2πkt) and im[k] scales sin(2πkt). The DC terms are ignored.
func periodicTable(re, im []float64, c WaveConstraints) ([]float64, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("%w: %d real vs %d imag terms", ErrWaveCoefficients, len(re), len(im))
	}
	if len(re) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 terms, got %d", ErrWaveCoefficients, len(re))
	}

	n := bitint.NextPowerOfTwo(max(4*len(re), minWavetableSize))
	coeff := make([]complex128, n/2+1)
	for k := 1; k < len(re) && k < n/2; k++ {
		coeff[k] = complex(re[k]/2, -im[k]/2)
	}

	table := fourier.NewFFT(n).Sequence(nil, coeff)

	if !c.DisableNormalization {
		var peak float64
		for _, v := range table {
			peak = math.Max(peak, math.Abs(v))
		}
		if peak > 0 {
			for i := range table {
				table[i] /= peak
			}
		}
	}
	return table, nil
}
