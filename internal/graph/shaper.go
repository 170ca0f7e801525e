// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects"
)

const (
	defaultShaperDrive = 1.0
	defaultShaperMix   = 1.0
)

// shaperProc is a tanh waveshaper, one distortion stage per channel.
type shaperProc struct {
	stages [Channels]*effects.Distortion
	drive  float64
	mix    float64
}

func newShaperProc(sampleRate float64) (*shaperProc, error) {
	s := &shaperProc{drive: defaultShaperDrive, mix: defaultShaperMix}
	for ch := range Channels {
		d, err := effects.NewDistortion(sampleRate,
			effects.WithDistortionMode(effects.DistortionModeTanh),
			effects.WithDistortionDrive(s.drive),
			effects.WithDistortionMix(s.mix),
		)
		if err != nil {
			return nil, fmt.Errorf("shaper: %w", err)
		}
		s.stages[ch] = d
	}
	return s, nil
}

func (s *shaperProc) process(in, out Block) {
	for ch := range Channels {
		copy(out[ch], in[ch])
		s.stages[ch].ProcessInPlace(out[ch])
	}
}

func (s *shaperProc) params() map[string]float64 {
	return map[string]float64{"drive": s.drive, "mix": s.mix}
}

func (s *shaperProc) setParam(name string, value float64) error {
	var set func(*effects.Distortion, float64) error
	switch name {
	case "drive":
		set = (*effects.Distortion).SetDrive
	case "mix":
		set = (*effects.Distortion).SetMix
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}

	for _, d := range s.stages {
		if err := set(d, value); err != nil {
			return fmt.Errorf("%w: %v", ErrParamRange, err)
		}
	}

	if name == "drive" {
		s.drive = value
	} else {
		s.mix = value
	}
	return nil
}
