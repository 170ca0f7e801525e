// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

// MaxDelaySeconds is the longest delay a delay node accepts.
const MaxDelaySeconds = 180.0

// minDelayCapacity is the line length allocated for short delays so the
// time can be raised later without reallocating.
const minDelayCapacity = 1.0

type delayProc struct {
	sampleRate float64
	seconds    float64
	capacity   float64
	lines      [Channels]*delay.Line
}

func newDelayProc(sampleRate, seconds float64) (*delayProc, error) {
	if seconds < 0 || seconds > MaxDelaySeconds || math.IsNaN(seconds) {
		return nil, fmt.Errorf("%w: delay %.3fs outside [0, %.0f]", ErrParamRange, seconds, MaxDelaySeconds)
	}

	capacity := math.Max(seconds, minDelayCapacity)
	// ReadFractional needs three samples of headroom past the longest delay.
	size := int(math.Ceil(capacity*sampleRate)) + 4

	d := &delayProc{
		sampleRate: sampleRate,
		seconds:    seconds,
		capacity:   capacity,
	}
	for ch := range Channels {
		line, err := delay.New(size)
		if err != nil {
			return nil, err
		}
		d.lines[ch] = line
	}
	return d, nil
}

func (d *delayProc) process(in, out Block) {
	samples := d.seconds * d.sampleRate
	for ch := range Channels {
		line := d.lines[ch]
		src, dst := in[ch], out[ch]
		for i, x := range src {
			if samples < 1 {
				dst[i] = x
			} else {
				dst[i] = line.ReadFractional(samples)
			}
			line.Write(x)
		}
	}
}

func (d *delayProc) params() map[string]float64 {
	return map[string]float64{"delay": d.seconds}
}

func (d *delayProc) setParam(name string, value float64) error {
	if name != "delay" {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if value < 0 || value > d.capacity || math.IsNaN(value) {
		return fmt.Errorf("%w: delay %.3fs outside [0, %.3f]", ErrParamRange, value, d.capacity)
	}
	d.seconds = value
	return nil
}
