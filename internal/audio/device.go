// SPDX-License-Identifier: MIT
package audio

import "time"

// Device describes a host audio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowLatency        time.Duration // Default low output latency.
	HighLatency       time.Duration // Default high output latency.
}

// Type reports whether the device handles input, output or both.
func (d Device) Type() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// CanPlay reports whether the device can play the stereo render output.
func (d Device) CanPlay() bool {
	return d.MaxOutputChannels >= 2
}
