// SPDX-License-Identifier: MIT
package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pipeline/internal/graph"
)

// Spec describes a node to build. It is one of FilterSpec, GainSpec,
// DelaySpec, OscillatorSpec, PannerSpec, ShaperSpec, PeriodicSpec,
// DestinationSpec or SourceSpec.
type Spec interface {
	Kind() graph.Kind
	String() string
}

// FilterSpec builds a biquad filter. A zero Frequency keeps the default.
type FilterSpec struct {
	Type      graph.FilterType
	Frequency float64
}

// GainSpec builds a gain stage.
type GainSpec struct {
	Level float64
}

// DelaySpec builds a delay line.
type DelaySpec struct {
	Seconds float64
}

// OscillatorSpec builds an oscillator. A zero Frequency keeps 440 Hz.
type OscillatorSpec struct {
	Waveform  graph.Waveform
	Frequency float64
}

type PannerSpec struct{}

type ShaperSpec struct{}

// PeriodicSpec builds an oscillator from Fourier coefficients.
type PeriodicSpec struct {
	Real, Imag  []float64
	Constraints graph.WaveConstraints
}

// DestinationSpec resolves to the engine's output node.
type DestinationSpec struct{}

// SourceSpec resolves to the currently loaded source.
type SourceSpec struct{}

func (FilterSpec) Kind() graph.Kind      { return graph.KindFilter }
func (GainSpec) Kind() graph.Kind        { return graph.KindGain }
func (DelaySpec) Kind() graph.Kind       { return graph.KindDelay }
func (OscillatorSpec) Kind() graph.Kind  { return graph.KindOscillator }
func (PannerSpec) Kind() graph.Kind      { return graph.KindPanner }
func (ShaperSpec) Kind() graph.Kind      { return graph.KindShaper }
func (PeriodicSpec) Kind() graph.Kind    { return graph.KindPeriodicOscillator }
func (DestinationSpec) Kind() graph.Kind { return graph.KindDestination }
func (SourceSpec) Kind() graph.Kind      { return graph.KindSource }

func (s FilterSpec) String() string {
	if s.Frequency > 0 {
		return fmt.Sprintf("%s:%g", s.Type, s.Frequency)
	}
	return s.Type.String()
}

func (s GainSpec) String() string  { return fmt.Sprintf("gain:%g", s.Level) }
func (s DelaySpec) String() string { return fmt.Sprintf("delay:%g", s.Seconds) }

func (s OscillatorSpec) String() string {
	if s.Frequency > 0 {
		return fmt.Sprintf("osc:%s:%g", s.Waveform, s.Frequency)
	}
	return "osc:" + s.Waveform.String()
}

func (PannerSpec) String() string      { return "panner" }
func (ShaperSpec) String() string      { return "shaper" }
func (DestinationSpec) String() string { return "destination" }
func (SourceSpec) String() string      { return "source" }

func (s PeriodicSpec) String() string {
	return "periodic:" + joinFloats(s.Real) + "/" + joinFloats(s.Imag)
}

// Filter creates a biquad filter node.
func (p *Pipeline) Filter(kind graph.FilterType) (graph.Node, error) {
	return p.engine.Filter(kind)
}

// Gain creates a gain node. The zero level is silence.
func (p *Pipeline) Gain(level float64) (graph.Node, error) {
	return p.engine.Gain(level)
}

// Delay creates a delay node.
func (p *Pipeline) Delay(seconds float64) (graph.Node, error) {
	return p.engine.Delay(seconds)
}

// Oscillator creates an oscillator node; the zero Waveform is a sine.
func (p *Pipeline) Oscillator(waveform graph.Waveform) (graph.Node, error) {
	return p.engine.Oscillator(waveform)
}

func (p *Pipeline) Panner() (graph.Node, error) {
	return p.engine.Panner()
}

func (p *Pipeline) Shaper() (graph.Node, error) {
	return p.engine.Shaper()
}

// PeriodicOscillator creates an oscillator playing a custom periodic wave.
func (p *Pipeline) PeriodicOscillator(re, im []float64, c graph.WaveConstraints) (graph.Node, error) {
	return p.engine.PeriodicOscillator(re, im, c)
}

// Destination returns the engine's output node.
func (p *Pipeline) Destination() graph.Node {
	return p.engine.Destination()
}

// SourceNode returns the current source as a chain node.
func (p *Pipeline) SourceNode() (graph.Node, error) {
	if p.source == nil {
		return nil, ErrNoSource
	}
	return p.source, nil
}

// Build creates the node described by s.
func (p *Pipeline) Build(s Spec) (graph.Node, error) {
	switch s := s.(type) {
	case FilterSpec:
		n, err := p.Filter(s.Type)
		if err != nil {
			return nil, err
		}
		if s.Frequency > 0 {
			if err := p.setParam(n, "frequency", s.Frequency); err != nil {
				return nil, err
			}
		}
		return n, nil
	case GainSpec:
		return p.Gain(s.Level)
	case DelaySpec:
		return p.Delay(s.Seconds)
	case OscillatorSpec:
		n, err := p.Oscillator(s.Waveform)
		if err != nil {
			return nil, err
		}
		if s.Frequency > 0 {
			if err := p.setParam(n, "frequency", s.Frequency); err != nil {
				return nil, err
			}
		}
		return n, nil
	case PannerSpec:
		return p.Panner()
	case ShaperSpec:
		return p.Shaper()
	case PeriodicSpec:
		return p.PeriodicOscillator(s.Real, s.Imag, s.Constraints)
	case DestinationSpec:
		return p.Destination(), nil
	case SourceSpec:
		return p.SourceNode()
	case nil:
		return nil, errors.New("nil node spec")
	default:
		return nil, fmt.Errorf("unsupported node spec %T", s)
	}
}

func (p *Pipeline) setParam(n graph.Node, name string, value float64) error {
	ps, ok := p.engine.(ParamSetter)
	if !ok {
		return fmt.Errorf("engine cannot set %s", name)
	}
	return ps.SetParam(n, name, value)
}

// Menu defaults for specs given without arguments.
const (
	defaultGainLevel      = 1.0
	defaultDelaySeconds   = 2.0
	defaultShelfFrequency = 440.0
)

// ParseSpec parses a textual node description:
//
//	lowpass[:hz] highpass[:hz] bandpass[:hz] lowshelf[:hz] highshelf[:hz]
//	peaking[:hz] notch[:hz] allpass[:hz]
//	gain[:level] delay[:seconds] osc[:waveform[:hz]] panner shaper
//	periodic:r0,r1,...[/i0,i1,...] destination source
func ParseSpec(text string) (Spec, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(text), ":")
	name = strings.ToLower(name)

	switch name {
	case "gain":
		level := defaultGainLevel
		if hasArg {
			v, err := parseFloat(text, arg)
			if err != nil {
				return nil, err
			}
			level = v
		}
		return GainSpec{Level: level}, nil
	case "delay":
		seconds := defaultDelaySeconds
		if hasArg {
			v, err := parseFloat(text, arg)
			if err != nil {
				return nil, err
			}
			seconds = v
		}
		return DelaySpec{Seconds: seconds}, nil
	case "osc", "oscillator":
		wave, freq, _ := strings.Cut(arg, ":")
		w, err := graph.ParseWaveform(wave)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", text, err)
		}
		s := OscillatorSpec{Waveform: w}
		if freq != "" {
			if s.Frequency, err = parseFloat(text, freq); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "periodic":
		return parsePeriodic(text, arg)
	case "panner":
		return PannerSpec{}, nil
	case "shaper":
		return ShaperSpec{}, nil
	case "destination", "dest":
		return DestinationSpec{}, nil
	case "source":
		return SourceSpec{}, nil
	}

	typ, err := graph.ParseFilterType(name)
	if err != nil {
		return nil, fmt.Errorf("unknown node %q", text)
	}
	s := FilterSpec{Type: typ}
	if typ == graph.Lowshelf {
		s.Frequency = defaultShelfFrequency
	}
	if hasArg {
		if s.Frequency, err = parseFloat(text, arg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ParseSpecs parses each entry of list.
func ParseSpecs(list []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(list))
	for _, text := range list {
		s, err := ParseSpec(text)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func parsePeriodic(text, arg string) (Spec, error) {
	if arg == "" {
		return nil, fmt.Errorf("node %q: periodic needs coefficients", text)
	}
	reText, imText, hasImag := strings.Cut(arg, "/")
	re, err := parseFloats(text, reText)
	if err != nil {
		return nil, err
	}
	im := make([]float64, len(re))
	if hasImag {
		if im, err = parseFloats(text, imText); err != nil {
			return nil, err
		}
	}
	return PeriodicSpec{Real: re, Imag: im}, nil
}

func parseFloat(text, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("node %q: bad number %q", text, s)
	}
	return v, nil
}

func parseFloats(text, s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := parseFloat(text, part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
