// SPDX-License-Identifier: MIT
package graph

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2/mp3"
)

// Accepted sample rates of decoded payloads.
const (
	minDecodeRate = 1000
	maxDecodeRate = 768000
)

// pcm is decoded audio, one slice per channel, normalised to [-1, 1].
type pcm struct {
	channels   [][]float64
	sampleRate int
}

// Decode turns an encoded payload (WAV, AIFF or MP3) into a source node.
// Decoding runs on its own goroutine; Decode returns when it completes or
// ctx is done. Every decoding failure wraps ErrDecode.
func (g *Graph) Decode(ctx context.Context, data []byte) (Source, error) {
	type result struct {
		pcm *pcm
		err error
	}

	done := make(chan result, 1)
	go func() {
		p, err := decodePCM(data, g.sampleRate)
		done <- result{p, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return nil, r.err
	}

	block := r.pcm.stereo()
	src := g.newSource(block)
	logger.Infof("decoded %d frames (%s) into %s", len(block[0]), src.Duration(), src.ID())
	return src, nil
}

// decodePCM decodes data and resamples it to rate. Panics raised inside
// third-party decoders or the resampler on malformed input are reported as
// ErrDecode.
func decodePCM(data []byte, rate float64) (p *pcm, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: decoder panic: %v", ErrDecode, r)
		}
	}()

	if p, err = decodeContainer(data); err != nil {
		return nil, err
	}
	if p.sampleRate < minDecodeRate || p.sampleRate > maxDecodeRate {
		return nil, fmt.Errorf("%w: sample rate %d Hz outside [%d, %d]", ErrDecode, p.sampleRate, minDecodeRate, maxDecodeRate)
	}
	if err := p.resample(rate); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeContainer sniffs the container and decodes it.
func decodeContainer(data []byte) (*pcm, error) {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return decodeWAV(data)
	case len(data) >= 12 && string(data[0:4]) == "FORM" &&
		(string(data[8:12]) == "AIFF" || string(data[8:12]) == "AIFC"):
		return decodeAIFF(data)
	case isMPEG(data):
		return decodeMP3(data)
	default:
		return nil, fmt.Errorf("%w: unrecognised format", ErrDecode)
	}
}

func isMPEG(data []byte) bool {
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeWAV(data []byte) (*pcm, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav file", ErrDecode)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: wav: %v", ErrDecode, err)
	}
	// 8-bit WAV samples are unsigned.
	return intPCM(buf, int(d.BitDepth), d.BitDepth == 8)
}

func decodeAIFF(data []byte) (*pcm, error) {
	d := aiff.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid aiff file", ErrDecode)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: aiff: %v", ErrDecode, err)
	}
	return intPCM(buf, int(d.BitDepth), false)
}

func intPCM(buf *audio.IntBuffer, bitDepth int, unsigned bool) (*pcm, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrDecode)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrDecode, buf.Format.SampleRate)
	}

	numCh := buf.Format.NumChannels
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, fmt.Errorf("%w: no audio frames", ErrDecode)
	}

	full := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if unsigned {
		offset = 1 << (bitDepth - 1)
	}

	p := &pcm{channels: make([][]float64, numCh), sampleRate: buf.Format.SampleRate}
	for ch := range numCh {
		p.channels[ch] = make([]float64, frames)
	}
	for i := range frames {
		for ch := range numCh {
			p.channels[ch][i] = float64(buf.Data[i*numCh+ch]-offset) / full
		}
	}
	return p, nil
}

func decodeMP3(data []byte) (*pcm, error) {
	stream, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrDecode, err)
	}
	defer stream.Close()

	p := &pcm{channels: make([][]float64, 2), sampleRate: int(format.SampleRate)}
	samples := make([][2]float64, 4096)
	for {
		n, ok := stream.Stream(samples)
		for _, s := range samples[:n] {
			p.channels[0] = append(p.channels[0], s[0])
			p.channels[1] = append(p.channels[1], s[1])
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrDecode, err)
	}
	if len(p.channels[0]) == 0 {
		return nil, fmt.Errorf("%w: no audio frames", ErrDecode)
	}
	if format.NumChannels == 1 {
		p.channels = p.channels[:1]
	}
	return p, nil
}

// resample converts every channel to the graph rate.
func (p *pcm) resample(rate float64) error {
	if float64(p.sampleRate) == rate {
		return nil
	}
	for ch, data := range p.channels {
		r, err := resample.NewForRates(float64(p.sampleRate), rate)
		if err != nil {
			return fmt.Errorf("%w: resample %d -> %.0f Hz: %v", ErrDecode, p.sampleRate, rate, err)
		}
		p.channels[ch] = r.Process(data)
	}
	logger.Debugf("resampled %d Hz -> %.0f Hz", p.sampleRate, rate)
	p.sampleRate = int(rate)
	return nil
}

// stereo maps the decoded channels onto the graph's two channels.
// Mono is duplicated; channels past the second are dropped.
func (p *pcm) stereo() Block {
	var b Block
	b[0] = p.channels[0]
	if len(p.channels) > 1 {
		b[1] = p.channels[1]
	} else {
		b[1] = append([]float64(nil), p.channels[0]...)
	}
	if n := min(len(b[0]), len(b[1])); n < len(b[0]) || n < len(b[1]) {
		b[0], b[1] = b[0][:n], b[1][:n]
	}
	return b
}
