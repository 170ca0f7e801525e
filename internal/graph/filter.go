// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// FilterType selects the biquad response of a filter node.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Lowshelf
	Highshelf
	Peaking
	Notch
	Allpass
)

var filterNames = [...]string{
	Lowpass:   "lowpass",
	Highpass:  "highpass",
	Bandpass:  "bandpass",
	Lowshelf:  "lowshelf",
	Highshelf: "highshelf",
	Peaking:   "peaking",
	Notch:     "notch",
	Allpass:   "allpass",
}

func (t FilterType) String() string {
	if t < 0 || int(t) >= len(filterNames) {
		return "unknown"
	}
	return filterNames[t]
}

// ParseFilterType converts a name such as "lowpass" to a FilterType.
func ParseFilterType(name string) (FilterType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range filterNames {
		if n == name {
			return FilterType(i), nil
		}
	}
	return Lowpass, fmt.Errorf("unknown filter type %q", name)
}

// Defaults match the usual browser biquad node.
const (
	DefaultFilterFrequency = 350.0
	DefaultFilterQ         = 1.0
	DefaultFilterGain      = 0.0
)

type filterProc struct {
	sampleRate float64
	typ        FilterType
	frequency  float64
	q          float64
	gainDB     float64
	sections   [Channels]*biquad.Section
}

func newFilterProc(sampleRate float64, typ FilterType) *filterProc {
	f := &filterProc{
		sampleRate: sampleRate,
		typ:        typ,
		frequency:  math.Min(DefaultFilterFrequency, sampleRate/2*0.99),
		q:          DefaultFilterQ,
		gainDB:     DefaultFilterGain,
	}
	c := f.coefficients()
	for ch := range Channels {
		f.sections[ch] = biquad.NewSection(c)
	}
	return f
}

func (f *filterProc) coefficients() biquad.Coefficients {
	sr := f.sampleRate
	switch f.typ {
	case Highpass:
		return design.Highpass(f.frequency, f.q, sr)
	case Bandpass:
		return design.Bandpass(f.frequency, f.q, sr)
	case Lowshelf:
		return design.LowShelf(f.frequency, f.gainDB, f.q, sr)
	case Highshelf:
		return design.HighShelf(f.frequency, f.gainDB, f.q, sr)
	case Peaking:
		return design.Peak(f.frequency, f.gainDB, f.q, sr)
	case Notch:
		return design.Notch(f.frequency, f.q, sr)
	case Allpass:
		return design.Allpass(f.frequency, f.q, sr)
	default:
		return design.Lowpass(f.frequency, f.q, sr)
	}
}

// update swaps coefficients in place so the filter state survives parameter changes.
func (f *filterProc) update() {
	c := f.coefficients()
	for _, s := range f.sections {
		s.Coefficients = c
	}
}

func (f *filterProc) process(in, out Block) {
	for ch := range Channels {
		f.sections[ch].ProcessBlockTo(out[ch], in[ch])
	}
}

func (f *filterProc) params() map[string]float64 {
	return map[string]float64{
		"frequency": f.frequency,
		"q":         f.q,
		"gain":      f.gainDB,
	}
}

func (f *filterProc) setParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v", ErrParamRange, value)
	}
	switch name {
	case "frequency":
		if value <= 0 || value >= f.sampleRate/2 {
			return fmt.Errorf("%w: frequency %.1f outside (0, %.1f)", ErrParamRange, value, f.sampleRate/2)
		}
		f.frequency = value
	case "q":
		if value <= 0 {
			return fmt.Errorf("%w: q must be positive", ErrParamRange)
		}
		f.q = value
	case "gain":
		f.gainDB = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	f.update()
	return nil
}
