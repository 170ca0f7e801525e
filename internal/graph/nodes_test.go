// SPDX-License-Identifier: MIT
package graph

import (
	"errors"
	"math"
	"testing"
)

func block(frames int) Block {
	return Block{make([]float64, frames), make([]float64, frames)}
}

func TestDelayImpulse(t *testing.T) {
	d, err := newDelayProc(100, 0.5)
	if err != nil {
		t.Fatalf("newDelayProc() error = %v", err)
	}

	in, out := block(80), block(80)
	in[0][0], in[1][0] = 1, 1
	d.process(in, out)

	for i, v := range out[0] {
		want := 0.0
		if i == 50 {
			want = 1
		}
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestDelayZeroPassesThrough(t *testing.T) {
	d, err := newDelayProc(100, 0)
	if err != nil {
		t.Fatal(err)
	}
	in, out := block(4), block(4)
	copy(in[0], []float64{0.1, 0.2, 0.3, 0.4})
	d.process(in, out)
	for i := range in[0] {
		if out[0][i] != in[0][i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[0][i], in[0][i])
		}
	}
}

func TestDelayRange(t *testing.T) {
	for _, s := range []float64{-1, MaxDelaySeconds + 1, math.NaN()} {
		if _, err := newDelayProc(48000, s); !errors.Is(err, ErrParamRange) {
			t.Errorf("newDelayProc(%v) error = %v, want ErrParamRange", s, err)
		}
	}
}

func TestPannerEqualPower(t *testing.T) {
	tests := []struct {
		pan         float64
		left, right float64
	}{
		{-1, 2, 0},
		{1, 0, 2},
		{0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(formatFloat(tt.pan), func(t *testing.T) {
			p := &pannerProc{}
			if err := p.setParam("pan", tt.pan); err != nil {
				t.Fatal(err)
			}
			in, out := block(1), block(1)
			in[0][0], in[1][0] = 1, 1
			p.process(in, out)
			if math.Abs(out[0][0]-tt.left) > 1e-9 || math.Abs(out[1][0]-tt.right) > 1e-9 {
				t.Errorf("pan %v = (%v, %v), want (%v, %v)", tt.pan, out[0][0], out[1][0], tt.left, tt.right)
			}
		})
	}
}

func TestOscillatorWaveforms(t *testing.T) {
	for _, wave := range []Waveform{Sine, Square, Sawtooth, Triangle} {
		t.Run(wave.String(), func(t *testing.T) {
			o := &oscillatorProc{sampleRate: 48000, frequency: 1000, wave: wave}
			out := block(480)
			o.process(Block{}, out)

			var peak float64
			for i, v := range out[0] {
				if v != out[1][i] {
					t.Fatalf("channels differ at %d", i)
				}
				peak = math.Max(peak, math.Abs(v))
			}
			if peak < 0.9 || peak > 1+1e-9 {
				t.Errorf("peak = %v, want close to 1", peak)
			}
		})
	}
}

func TestOscillatorFrequencyRange(t *testing.T) {
	o := &oscillatorProc{sampleRate: 48000, frequency: DefaultOscillatorFrequency}
	if err := o.setParam("frequency", 30000); !errors.Is(err, ErrParamRange) {
		t.Errorf("error = %v, want ErrParamRange", err)
	}
	if err := o.setParam("detune", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("error = %v, want ErrUnknownParam", err)
	}
	if err := o.setParam("frequency", -220); err != nil {
		t.Errorf("negative frequency rejected: %v", err)
	}
}

func TestParseWaveform(t *testing.T) {
	tests := map[string]Waveform{
		"":         Sine,
		"Sine":     Sine,
		"square":   Square,
		"saw":      Sawtooth,
		"triangle": Triangle,
	}
	for in, want := range tests {
		got, err := ParseWaveform(in)
		if err != nil || got != want {
			t.Errorf("ParseWaveform(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWaveform("noise"); err == nil {
		t.Error("expected error for unknown waveform")
	}
}

func TestPeriodicTable(t *testing.T) {
	t.Run("normalised sine", func(t *testing.T) {
		table, err := periodicTable([]float64{0, 0}, []float64{0, 1}, WaveConstraints{})
		if err != nil {
			t.Fatal(err)
		}
		if len(table) != minWavetableSize {
			t.Fatalf("len = %d, want %d", len(table), minWavetableSize)
		}
		var peak float64
		for _, v := range table {
			peak = math.Max(peak, math.Abs(v))
		}
		if math.Abs(peak-1) > 1e-9 {
			t.Errorf("peak = %v, want 1", peak)
		}
		// Quarter period of sin(2πt) is its maximum.
		if v := table[len(table)/4]; math.Abs(v-1) > 1e-6 {
			t.Errorf("table[n/4] = %v, want 1", v)
		}
	})

	t.Run("unnormalised keeps amplitude", func(t *testing.T) {
		table, err := periodicTable([]float64{0, 0}, []float64{0, 0.25}, WaveConstraints{DisableNormalization: true})
		if err != nil {
			t.Fatal(err)
		}
		if v := table[len(table)/4]; math.Abs(v-0.25) > 1e-6 {
			t.Errorf("table[n/4] = %v, want 0.25", v)
		}
	})

	t.Run("invalid coefficients", func(t *testing.T) {
		if _, err := periodicTable([]float64{0, 1}, []float64{0}, WaveConstraints{}); !errors.Is(err, ErrWaveCoefficients) {
			t.Errorf("mismatched error = %v", err)
		}
		if _, err := periodicTable([]float64{0}, []float64{0}, WaveConstraints{}); !errors.Is(err, ErrWaveCoefficients) {
			t.Errorf("short error = %v", err)
		}
	})
}

func TestFilterTypes(t *testing.T) {
	g := newTestGraph(t)
	for i := range filterNames {
		typ := FilterType(i)
		t.Run(typ.String(), func(t *testing.T) {
			parsed, err := ParseFilterType(typ.String())
			if err != nil || parsed != typ {
				t.Fatalf("ParseFilterType(%q) = %v, %v", typ.String(), parsed, err)
			}
			n, err := g.Filter(typ)
			if err != nil {
				t.Fatal(err)
			}
			params, err := g.Params(n)
			if err != nil {
				t.Fatal(err)
			}
			if params["frequency"] != DefaultFilterFrequency || params["q"] != DefaultFilterQ {
				t.Errorf("params = %v", params)
			}
		})
	}
	if _, err := g.Filter(FilterType(42)); err == nil {
		t.Error("expected error for unknown filter type")
	}
}

func TestFilterParamRange(t *testing.T) {
	f := newFilterProc(48000, Lowpass)
	tests := []struct {
		name  string
		value float64
		ok    bool
	}{
		{"frequency", 1000, true},
		{"frequency", 30000, false},
		{"frequency", 0, false},
		{"q", 0.7, true},
		{"q", 0, false},
		{"gain", -6, true},
	}
	for _, tt := range tests {
		err := f.setParam(tt.name, tt.value)
		if tt.ok && err != nil {
			t.Errorf("setParam(%s, %v) error = %v", tt.name, tt.value, err)
		}
		if !tt.ok && !errors.Is(err, ErrParamRange) {
			t.Errorf("setParam(%s, %v) error = %v, want ErrParamRange", tt.name, tt.value, err)
		}
	}
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	f := newFilterProc(48000, Lowpass)
	if err := f.setParam("frequency", 200); err != nil {
		t.Fatal(err)
	}

	in, out := block(4800), block(4800)
	for i := range in[0] {
		v := math.Sin(2 * math.Pi * 10000 * float64(i) / 48000)
		in[0][i], in[1][i] = v, v
	}
	f.process(in, out)

	var peak float64
	for _, v := range out[0][2400:] {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > 0.01 {
		t.Errorf("10 kHz through 200 Hz lowpass peak = %v", peak)
	}
}

func TestShaperParams(t *testing.T) {
	s, err := newShaperProc(48000)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.setParam("drive", 4); err != nil {
		t.Fatalf("drive error = %v", err)
	}
	if err := s.setParam("curve", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("unknown error = %v", err)
	}
	if got := s.params()["drive"]; got != 4 {
		t.Errorf("drive = %v, want 4", got)
	}

	in, out := block(64), block(64)
	for i := range in[0] {
		in[0][i], in[1][i] = 0.9, -0.9
	}
	s.process(in, out)
	for i := range out[0] {
		if math.Abs(out[0][i]) > 1.0001 || math.Abs(out[1][i]) > 1.0001 {
			t.Fatalf("shaped output exceeds unity at %d: %v/%v", i, out[0][i], out[1][i])
		}
	}
}

func formatFloat(f float64) string {
	switch {
	case f < 0:
		return "negative"
	case f > 0:
		return "positive"
	default:
		return "zero"
	}
}
