// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"math"
)

// Filter creates a biquad filter node of the given type.
func (g *Graph) Filter(typ FilterType) (Node, error) {
	if typ < Lowpass || typ > Allpass {
		return nil, fmt.Errorf("unknown filter type %d", typ)
	}
	return g.add(newNode(KindFilter, typ.String(), newFilterProc(g.sampleRate, typ))), nil
}

// Gain creates a gain stage with a linear multiplier.
func (g *Graph) Gain(level float64) (Node, error) {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return nil, fmt.Errorf("%w: gain %v", ErrParamRange, level)
	}
	return g.add(newNode(KindGain, "gain", &gainProc{gain: level})), nil
}

// Delay creates a delay line delaying its input by seconds.
func (g *Graph) Delay(seconds float64) (Node, error) {
	proc, err := newDelayProc(g.sampleRate, seconds)
	if err != nil {
		return nil, err
	}
	return g.add(newNode(KindDelay, "delay", proc)), nil
}

// Oscillator creates a generator with a basic waveform at 440 Hz.
func (g *Graph) Oscillator(wave Waveform) (Node, error) {
	if wave < Sine || wave > Triangle {
		return nil, fmt.Errorf("oscillator waveform %s needs PeriodicOscillator", wave)
	}
	proc := &oscillatorProc{
		sampleRate: g.sampleRate,
		frequency:  DefaultOscillatorFrequency,
		wave:       wave,
	}
	return g.add(newNode(KindOscillator, wave.String(), proc)), nil
}

// PeriodicOscillator creates an oscillator playing a custom periodic wave.
func (g *Graph) PeriodicOscillator(re, im []float64, c WaveConstraints) (Node, error) {
	table, err := periodicTable(re, im, c)
	if err != nil {
		return nil, err
	}
	proc := &oscillatorProc{
		sampleRate: g.sampleRate,
		frequency:  DefaultOscillatorFrequency,
		wave:       Custom,
		table:      table,
	}
	return g.add(newNode(KindPeriodicOscillator, "periodic", proc)), nil
}

// Panner creates a centred stereo panner.
func (g *Graph) Panner() (Node, error) {
	return g.add(newNode(KindPanner, "panner", &pannerProc{})), nil
}

// Shaper creates a waveshaper.
func (g *Graph) Shaper() (Node, error) {
	proc, err := newShaperProc(g.sampleRate)
	if err != nil {
		return nil, err
	}
	return g.add(newNode(KindShaper, "shaper", proc)), nil
}

func (g *Graph) newSource(data Block) Source {
	proc := &sourceProc{data: data, sampleRate: g.sampleRate}
	n := g.add(newNode(KindSource, "source", proc))
	return &sourceNode{node: n, g: g, proc: proc}
}
