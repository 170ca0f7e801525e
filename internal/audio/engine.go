// SPDX-License-Identifier: MIT
/*
Package audio plays the rendered pipeline through PortAudio with:
- Interleaved float32 output rendered from the graph in the stream callback
- Master volume and hard clipping
- A gate that skips analysis on silent blocks
- WAV recording of exactly what is played

Thread Safety:
- Volume, gate and recording state use atomics
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"pipeline/internal/analysis"
	"pipeline/internal/config"
	"pipeline/internal/graph"
	applog "pipeline/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

var logger = applog.New("audio")

// Renderer produces the next frames of output. *graph.Graph implements it.
type Renderer interface {
	Render(frames int) graph.Block
}

var _ Renderer = (*graph.Graph)(nil)

type Engine struct {
	config   *config.Config
	renderer Renderer

	// Audio output handling.
	outputDevice  *portaudio.DeviceInfo
	outputLatency time.Duration
	outputStream  *portaudio.Stream

	// Analysis of the played signal.
	processors []analysis.AudioProcessor
	monoBuffer []float64

	volume        atomic.Uint64 // math.Float64bits
	gateEnabled   atomic.Bool
	gateThreshold atomic.Uint64 // math.Float64bits, peak in [0, 1]

	// Recording state and buffers. recMu guards the encoder while the
	// callback writes to it.
	isRecording atomic.Bool
	recMu       sync.Mutex
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer
	sampleScale float64
}

// NewEngine resolves the configured output device and prepares an engine
// that plays r. PortAudio must be initialised.
func NewEngine(cfg *config.Config, r Renderer, processors ...analysis.AudioProcessor) (*Engine, error) {
	device, err := OutputDevice(cfg.Audio.OutputDevice)
	if err != nil {
		return nil, err
	}

	e := newEngine(cfg, r, processors...)
	e.outputDevice = device
	if cfg.Audio.LowLatency {
		e.outputLatency = device.DefaultLowOutputLatency
	} else {
		e.outputLatency = device.DefaultHighOutputLatency
	}
	return e, nil
}

func newEngine(cfg *config.Config, r Renderer, processors ...analysis.AudioProcessor) *Engine {
	e := &Engine{
		config:     cfg,
		renderer:   r,
		processors: processors,
		monoBuffer: make([]float64, cfg.Audio.FramesPerBuffer),
	}
	e.SetVolume(cfg.Audio.Volume)
	e.SetGateThreshold(defaultGateThreshold)
	return e
}

func (e *Engine) StartOutputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: graph.Channels,
			Device:   e.outputDevice,
			Latency:  e.outputLatency,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processOutputStream)
	if err != nil {
		return err
	}
	e.outputStream = stream

	if err := e.outputStream.Start(); err != nil {
		e.outputStream.Close()
		e.outputStream = nil
		return err
	}

	logger.Infof("output stream started on %q (%.0f Hz, %d frames, latency %v)",
		e.outputDevice.Name, params.SampleRate, params.FramesPerBuffer, e.outputLatency)
	return nil
}

func (e *Engine) StopOutputStream() error {
	if e.outputStream != nil {
		if err := e.outputStream.Stop(); err != nil {
			return err
		}

		if err := e.outputStream.Close(); err != nil {
			return err
		}

		e.outputStream = nil
		logger.Infof("output stream stopped")
	}

	return nil
}

// processOutputStream is the core audio callback. It renders the graph
// into out, which holds interleaved stereo frames.
func (e *Engine) processOutputStream(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	frames := len(out) / graph.Channels
	e.processBuffer(e.renderer.Render(frames), out)

	if e.isRecording.Load() {
		e.record(out)
	}
}

// processBuffer applies volume and clipping, interleaves block into out and
// feeds the mono downmix to the analysis processors.
// Performance Critical (Hot Path):
// - No allocations once monoBuffer fits the callback size
func (e *Engine) processBuffer(block graph.Block, out []float32) {
	frames := len(out) / graph.Channels
	if len(e.monoBuffer) < frames {
		e.monoBuffer = make([]float64, frames)
	}
	mono := e.monoBuffer[:frames]

	vol := e.Volume()
	var peak float64
	for i := range frames {
		l := clip(block[0][i] * vol)
		r := clip(block[1][i] * vol)
		out[2*i] = float32(l)
		out[2*i+1] = float32(r)

		m := (l + r) / 2
		mono[i] = m
		peak = max(peak, m, -m)
	}

	if len(e.processors) == 0 {
		return
	}
	if e.gateEnabled.Load() && peak < e.GateThreshold() {
		return
	}
	for _, p := range e.processors {
		p.Process(mono)
	}
}

func clip(v float64) float64 {
	return min(max(v, -1), 1)
}
