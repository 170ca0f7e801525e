// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"
	"math"
)

type gainProc struct {
	gain float64
}

func (g *gainProc) process(in, out Block) {
	for ch := range Channels {
		src, dst := in[ch], out[ch]
		for i, x := range src {
			dst[i] = x * g.gain
		}
	}
}

func (g *gainProc) params() map[string]float64 {
	return map[string]float64{"gain": g.gain}
}

func (g *gainProc) setParam(name string, value float64) error {
	if name != "gain" {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v", ErrParamRange, value)
	}
	g.gain = value
	return nil
}

// pannerProc is an equal-power stereo panner. pan is -1 (left) to 1 (right).
type pannerProc struct {
	pan float64
}

func (p *pannerProc) process(in, out Block) {
	l, r := in[0], in[1]
	outL, outR := out[0], out[1]

	if p.pan <= 0 {
		x := (p.pan + 1) * math.Pi / 2
		gainL, gainR := math.Cos(x), math.Sin(x)
		for i := range l {
			outL[i] = l[i] + r[i]*gainL
			outR[i] = r[i] * gainR
		}
		return
	}

	x := p.pan * math.Pi / 2
	gainL, gainR := math.Cos(x), math.Sin(x)
	for i := range l {
		outL[i] = l[i] * gainL
		outR[i] = r[i] + l[i]*gainR
	}
}

func (p *pannerProc) params() map[string]float64 {
	return map[string]float64{"pan": p.pan}
}

func (p *pannerProc) setParam(name string, value float64) error {
	if name != "pan" {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if value < -1 || value > 1 || math.IsNaN(value) {
		return fmt.Errorf("%w: pan %.2f outside [-1, 1]", ErrParamRange, value)
	}
	p.pan = value
	return nil
}
