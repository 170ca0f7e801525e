// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the pipeline player.
const (
	// Audio output defaults.
	DefaultDeviceID        = MinDeviceID // System default output device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false
	DefaultSampleRate      = 44100
	DefaultVolume          = 1.0

	// Pipeline defaults. The chain plays the source straight to the output.
	DefaultReconnect = true

	// Recording defaults.
	DefaultRecordingDir      = "./recordings"
	DefaultRecordingBitDepth = 16

	// Control server defaults.
	DefaultControlAddress   = "127.0.0.1:8080"
	DefaultSpectrumInterval = 50 * time.Millisecond
	DefaultFFTSize          = 2048
	DefaultFFTWindow        = "Hann"

	DefaultLogLevel = "info"

	// Hardware and processing limits.
	MinDeviceID     = -1 // -1 represents system default device
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
	MaxVolume       = 4.0
)

// DefaultChain is the node chain used when none is configured.
var DefaultChain = []string{"source", "destination"}

// supportedWindows are the FFT window names understood by internal/analysis.
var supportedWindows = []string{"BartlettHann", "Blackman", "BlackmanNuttall", "Hann", "Hamming", "Lanczos", "Nuttall"}

// supportedBitDepths are the PCM depths the recorder can write.
var supportedBitDepths = []int{16, 24, 32}
