// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"sync/atomic"

	"pipeline/internal/transport"
)

// Event is sent through the transport when the detector fires.
type Event struct {
	Type  string  `json:"type"` // Always "event".
	Name  string  `json:"name"`
	Level float64 `json:"level"`
}

// BeatDetector flags onsets as sudden jumps in block RMS and tracks the
// latest RMS level for meters.
type BeatDetector struct {
	threshold      float64 // Minimum RMS for a beat.
	minEnergyRatio float64 // Minimum increase over the previous block.
	cooldown       int     // Blocks to ignore after a beat.
	transport      transport.Transport

	lastEnergy float64
	quiet      int
	level      atomic.Uint64 // math.Float64bits of the latest RMS.
	beats      atomic.Uint64
}

var _ AudioProcessor = (*BeatDetector)(nil)

// NewBeatDetector creates a detector. cooldownBlocks suppresses repeated
// events from one onset. t may be nil.
func NewBeatDetector(threshold, minEnergyRatio float64, cooldownBlocks int, t transport.Transport) *BeatDetector {
	logger.Infof("initializing BeatDetector (threshold: %.2f, min ratio: %.2f)", threshold, minEnergyRatio)
	return &BeatDetector{
		threshold:      threshold,
		minEnergyRatio: minEnergyRatio,
		cooldown:       cooldownBlocks,
		transport:      t,
	}
}

// Process analyses one block for an onset.
func (d *BeatDetector) Process(samples []float64) {
	energy := calculateRMS(samples)
	d.level.Store(math.Float64bits(energy))

	if d.quiet > 0 {
		d.quiet--
	} else if energy > d.threshold && (d.lastEnergy == 0 || energy/d.lastEnergy > d.minEnergyRatio) {
		d.beats.Add(1)
		d.quiet = d.cooldown
		if d.transport != nil {
			if err := d.transport.Send(Event{Type: "event", Name: "beat", Level: energy}); err != nil {
				logger.Warnf("BeatDetector: error sending beat event: %v", err)
			}
		}
	}

	d.lastEnergy = energy
}

// Level returns the RMS of the most recent block.
func (d *BeatDetector) Level() float64 {
	return math.Float64frombits(d.level.Load())
}

// Beats returns the number of onsets detected so far.
func (d *BeatDetector) Beats() uint64 {
	return d.beats.Load()
}

// calculateRMS returns the root mean square of buffer.
func calculateRMS(buffer []float64) float64 {
	if len(buffer) == 0 {
		return 0.0
	}
	var sumSquare float64
	for _, s := range buffer {
		sumSquare += s * s
	}
	return math.Sqrt(sumSquare / float64(len(buffer)))
}
