// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"pipeline/cmd"
	"pipeline/internal/analysis"
	"pipeline/internal/audio"
	"pipeline/internal/config"
	"pipeline/internal/control"
	"pipeline/internal/graph"
	applog "pipeline/internal/log"
	"pipeline/internal/pipeline"
	"pipeline/internal/transport"
	"pipeline/internal/tui"
	"pipeline/pkg/build"
)

// Beat detection tuning for the level meter.
const (
	beatThreshold = 0.1
	beatRatio     = 1.5
	beatCooldown  = 8
)

// main is the entry point for the pipeline player.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the control loop owning the node chain
//   - Start the output stream rendering the graph
//   - Start recording and the control server if enabled
//   - Build the configured chain, then run the editor or play headless
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		applog.Debugf("build info: %v", err)
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to the output callback (time-critical)
	// - One thread for the control loop, UI and I/O operations
	runtime.GOMAXPROCS(2)

	options, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if options.Command == "" {
		return
	}

	cfg := options.Config
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	// Handle one-off commands (e.g., device listing) that don't require
	// the audio engine to be running
	if options.Command == cmd.CommandList {
		if err := audio.ListDevices(os.Stdout); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options); err != nil && !errors.Is(err, context.Canceled) {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, options *cmd.Options) error {
	cfg := options.Config

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	var data []byte
	if options.File != "" {
		var err error
		if data, err = os.ReadFile(options.File); err != nil {
			return err
		}
	}

	g, err := graph.New(cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	loop := control.NewLoop(pipeline.New(g))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	window, err := analysis.ParseWindowFunc(cfg.Control.FFTWindow)
	if err != nil {
		return err
	}
	fft, err := analysis.NewFFTProcessor(cfg.Control.FFTSize, cfg.Audio.SampleRate, window)
	if err != nil {
		return err
	}
	defer fft.Close()

	var t transport.Transport = transport.NewLoggingTransport()
	if cfg.Control.Enabled {
		wst := transport.NewWebSocketTransport(cfg.Control.Address, loop)
		if err := wst.Start(); err != nil {
			return fmt.Errorf("control server: %w", err)
		}
		t = wst
	}
	defer t.Close()

	beat := analysis.NewBeatDetector(beatThreshold, beatRatio, beatCooldown, t)
	if cfg.Control.Enabled {
		go analysis.NewPublisher(fft, beat, t).Run(ctx, cfg.Control.SpectrumInterval)
	}

	engine, err := audio.NewEngine(cfg, g, fft, beat)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Errorf("error closing audio engine: %v", err)
		}
	}()

	// CRITICAL: Start of real-time audio processing
	// Once the stream starts PortAudio calls the render callback, marking
	// the start of the hot path.
	if err := engine.StartOutputStream(); err != nil {
		return err
	}

	if cfg.Recording.Enabled {
		if err := engine.StartRecording(audio.RecordingPath(cfg.Recording.OutputDir, time.Now())); err != nil {
			return err
		}
	}

	if _, err := cmd.SetupChain(ctx, loop, data, cfg.Pipeline.Chain, cfg.Pipeline.Loop); err != nil {
		return err
	}

	switch options.Command {
	case cmd.CommandPlay:
		applog.Infof("playing %s, press Ctrl+C to stop", filepath.Base(options.File))
		if cfg.Pipeline.Loop {
			<-ctx.Done()
		} else if err := cmd.WaitFinished(ctx, loop, 100*time.Millisecond); err != nil {
			return err
		}
	default:
		if err := runTUI(ctx, cfg, loop); err != nil {
			return err
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	cancel()
	<-loopDone
	return nil
}

// runTUI runs the editor with logging redirected to a file so it does not
// draw over the screen.
func runTUI(ctx context.Context, cfg *config.Config, loop *control.Loop) error {
	logFile, err := os.Create(filepath.Join(os.TempDir(), "pipeline.log"))
	if err == nil {
		applog.SetOutput(logFile)
		defer func() {
			applog.SetOutput(os.Stderr)
			logFile.Close()
		}()
	}

	return tui.Run(ctx, loop, tui.Options{
		Title:   fmt.Sprintf("%s %s (%.0f Hz)", build.GetBuildFlags().Name, build.GetBuildFlags().Version, cfg.Audio.SampleRate),
		Devices: audio.HostDevices,
	})
}
