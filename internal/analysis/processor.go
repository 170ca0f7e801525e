// SPDX-License-Identifier: MIT
/*
Package analysis inspects the rendered output of the pipeline.

Processors receive mono float64 blocks from the output callback. The FFT
processor keeps the latest magnitude spectrum, the meter tracks level and
onsets, and the Publisher turns both into periodic frames for a transport.
*/
package analysis

import applog "pipeline/internal/log"

var logger = applog.New("analysis")

// AudioProcessor is the standard interface for components that process
// rendered audio.
type AudioProcessor interface {
	// Process analyses one block of mono samples in [-1, 1]. It is called
	// from the real-time output callback.
	Process(samples []float64)
}

// ClosableProcessor combines AudioProcessor with a Close method for resource cleanup.
type ClosableProcessor interface {
	AudioProcessor
	Close() error
}

// FFTResultProvider decouples consumers like the band energy calculation
// from the concrete FFT implementation.
type FFTResultProvider interface {
	GetMagnitudes() []float64                // Thread-safe copy of the latest magnitude spectrum.
	GetFrequencyForBin(binIndex int) float64 // Center frequency (Hz) of a bin.
	GetFFTSize() int
	GetSampleRate() float64
}
