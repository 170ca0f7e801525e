// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pipeline/internal/graph"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrAlreadyRecording = errors.New("already recording")

// RecordingPath returns a timestamped file name in dir.
func RecordingPath(dir string, now time.Time) string {
	return filepath.Join(dir, "pipeline-"+now.Format("20060102-150405")+".wav")
}

// StartRecording writes everything played from now on to filename as PCM
// WAV at the configured bit depth. Missing directories are created.
func (e *Engine) StartRecording(filename string) error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.isRecording.Load() {
		return ErrAlreadyRecording
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	bitDepth := e.config.Recording.BitDepth
	sampleRate := int(e.config.Audio.SampleRate)
	e.wavEncoder = wav.NewEncoder(file, sampleRate, bitDepth, graph.Channels, 1)
	e.sampleScale = float64(int64(1)<<(bitDepth-1) - 1)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: graph.Channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, e.config.Audio.FramesPerBuffer*graph.Channels),
		SourceBitDepth: bitDepth,
	}

	e.isRecording.Store(true)
	logger.Infof("recording to %s (%d-bit)", filename, bitDepth)
	return nil
}

// record converts the interleaved output to integers and encodes it.
func (e *Engine) record(out []float32) {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.wavEncoder == nil {
		return
	}
	if cap(e.sampleBuf.Data) < len(out) {
		e.sampleBuf.Data = make([]int, len(out))
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(out)]
	for i, s := range out {
		e.sampleBuf.Data[i] = int(float64(s) * e.sampleScale)
	}

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		logger.Errorf("error writing to WAV file: %v", err)
	}
}

// StopRecording finalises the WAV header and closes the file. It is a no-op
// when not recording.
func (e *Engine) StopRecording() error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if !e.isRecording.Load() {
		return nil
	}
	e.isRecording.Store(false)

	var errs []error
	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close encoder: %w", err))
		}
		e.wavEncoder = nil
	}
	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			errs = append(errs, err)
		}
		logger.Infof("recording saved to %s", e.outputFile.Name())
		e.outputFile = nil
	}
	return errors.Join(errs...)
}

// Recording reports whether output is being written to a file.
func (e *Engine) Recording() bool {
	return e.isRecording.Load()
}

func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}
	return e.StopOutputStream()
}
