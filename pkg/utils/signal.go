// SPDX-License-Identifier: MIT
/*
Package utils provides test signals and fixtures shared by package tests:
generated waveforms, encoded WAV payloads and a recording transport.
*/
package utils

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MockTransport records everything sent to it.
type MockTransport struct {
	mu     sync.Mutex
	sent   []any
	closed bool
}

func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock transport closed")
	}
	m.sent = append(m.sent, data)
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of everything sent so far.
func (m *MockTransport) Sent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.sent...)
}

// GenerateSineWave returns size samples of a sine at 0.9 full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 440 Hz tone with its second and third harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = signal * 0.9
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudes)-1)

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// WriteWAV encodes channels as 16-bit PCM at path. All channels must have
// the same length; samples are clipped to [-1, 1].
func WriteWAV(path string, sampleRate int, channels ...[]float64) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels")
	}
	frames := len(channels[0])
	data := make([]int, 0, frames*len(channels))
	for i := range frames {
		for ch, samples := range channels {
			if len(samples) != frames {
				return fmt.Errorf("channel %d has %d frames, want %d", ch, len(samples), frames)
			}
			v := math.Max(-1, math.Min(1, samples[i]))
			data = append(data, int(math.Round(v*math.MaxInt16)))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, sampleRate, 16, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finish wav: %w", err)
	}
	return f.Close()
}

// WAVBytes encodes channels into a temporary file under dir and returns
// the file contents.
func WAVBytes(dir string, sampleRate int, channels ...[]float64) ([]byte, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels")
	}
	path := filepath.Join(dir, fmt.Sprintf("fixture-%d.wav", len(channels[0])))
	if err := WriteWAV(path, sampleRate, channels...); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
