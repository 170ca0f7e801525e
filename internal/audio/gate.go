// SPDX-License-Identifier: MIT
package audio

import (
	"math"

	"pipeline/internal/config"
)

// defaultGateThreshold is roughly -60 dBFS.
const defaultGateThreshold = 0.001

// SetVolume sets the master volume, clamped to [0, config.MaxVolume].
func (e *Engine) SetVolume(v float64) {
	v = min(max(v, 0), config.MaxVolume)
	e.volume.Store(math.Float64bits(v))
}

// Volume returns the master volume.
func (e *Engine) Volume() float64 {
	return math.Float64frombits(e.volume.Load())
}

// EnableGate stops analysis processors seeing blocks whose peak is below
// the gate threshold. Playback is unaffected.
func (e *Engine) EnableGate() {
	e.gateEnabled.Store(true)
}

func (e *Engine) DisableGate() {
	e.gateEnabled.Store(false)
}

// SetGateThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	threshold = min(max(threshold, 0), 1)
	e.gateThreshold.Store(math.Float64bits(threshold))
}

// GateThreshold returns the current gate threshold.
func (e *Engine) GateThreshold() float64 {
	return math.Float64frombits(e.gateThreshold.Load())
}
