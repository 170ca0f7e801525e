// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "pipeline/internal/log"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Recording RecordingConfig `yaml:"recording"`
	Control   ControlConfig   `yaml:"control"`
}

// AudioConfig holds the output stream settings.
type AudioConfig struct {
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Render and stream rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low output latency.
	Volume          float64 `yaml:"volume"`            // Master volume applied after the graph (0-4).
}

// PipelineConfig describes the initial node chain.
type PipelineConfig struct {
	Chain     []string `yaml:"chain"`     // Node specs, e.g. ["source", "lowpass:800", "destination"].
	Reconnect bool     `yaml:"reconnect"` // Reconnect neighbours on live edits.
	Loop      bool     `yaml:"loop"`      // Loop the source when it ends.
}

// RecordingConfig holds settings for recording the rendered output.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"` // Directory for recorded files.
	BitDepth  int    `yaml:"bit_depth"`  // 16, 24 or 32.
}

// ControlConfig holds the websocket control and spectrum server settings.
type ControlConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Address          string        `yaml:"address"`           // host:port to listen on.
	SpectrumInterval time.Duration `yaml:"spectrum_interval"` // Interval between spectrum frames.
	FFTSize          int           `yaml:"fft_size"`          // Power of two.
	FFTWindow        string        `yaml:"fft_window"`        // Window name, e.g. "Hann".
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Volume:          DefaultVolume,
		},
		Pipeline: PipelineConfig{
			Chain:     slices.Clone(DefaultChain),
			Reconnect: DefaultReconnect,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultRecordingBitDepth,
		},
		Control: ControlConfig{
			Address:          DefaultControlAddress,
			SpectrumInterval: DefaultSpectrumInterval,
			FFTSize:          DefaultFFTSize,
			FFTWindow:        DefaultFFTWindow,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches the default location ("config.yaml"). If no file is
// found, it uses built-in defaults. Environment overrides are applied last,
// then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q not recognised", c.LogLevel))
	}

	a := c.Audio
	if a.OutputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.output_device %d must be >= %d", a.OutputDevice, MinDeviceID))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer %d outside [1, %d]", a.FramesPerBuffer, MaxBufferFrames))
	}
	if a.Volume < 0 || a.Volume > MaxVolume {
		errs = append(errs, fmt.Errorf("audio.volume %.2f outside [0, %.0f]", a.Volume, MaxVolume))
	}

	if len(c.Pipeline.Chain) == 0 {
		errs = append(errs, errors.New("pipeline.chain must not be empty"))
	}

	if c.Recording.Enabled && c.Recording.OutputDir == "" {
		errs = append(errs, errors.New("recording.output_dir must be set when recording is enabled"))
	}
	if !slices.Contains(supportedBitDepths, c.Recording.BitDepth) {
		errs = append(errs, fmt.Errorf("recording.bit_depth %d not one of %v", c.Recording.BitDepth, supportedBitDepths))
	}

	ctl := c.Control
	if ctl.Enabled {
		if !strings.Contains(ctl.Address, ":") {
			errs = append(errs, fmt.Errorf("control.address %q appears invalid (missing port?)", ctl.Address))
		}
		if ctl.SpectrumInterval <= 0 {
			errs = append(errs, errors.New("control.spectrum_interval must be positive"))
		}
	}
	if ctl.FFTSize < 2 || ctl.FFTSize&(ctl.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("control.fft_size %d must be a power of two", ctl.FFTSize))
	}
	if !slices.Contains(supportedWindows, ctl.FFTWindow) {
		errs = append(errs, fmt.Errorf("control.fft_window %q not one of %v", ctl.FFTWindow, supportedWindows))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Infof("configuration: overriding log_level from env: %s", val)
	}

	// ENV_AUDIO_{...}
	envInt("ENV_AUDIO_OUTPUT_DEVICE", &c.Audio.OutputDevice)
	envFloat("ENV_AUDIO_SAMPLE_RATE", &c.Audio.SampleRate)
	envInt("ENV_AUDIO_FRAMES_PER_BUFFER", &c.Audio.FramesPerBuffer)
	envBool("ENV_AUDIO_LOW_LATENCY", &c.Audio.LowLatency)
	envFloat("ENV_AUDIO_VOLUME", &c.Audio.Volume)

	// ENV_PIPELINE_CHAIN is a comma separated list of node specs.
	if val, ok := os.LookupEnv("ENV_PIPELINE_CHAIN"); ok {
		var chain []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				chain = append(chain, s)
			}
		}
		c.Pipeline.Chain = chain
		applog.Infof("configuration: overriding pipeline.chain from env: %v", chain)
	}
	envBool("ENV_PIPELINE_LOOP", &c.Pipeline.Loop)

	// ENV_RECORDING_{...}
	envBool("ENV_RECORDING_ENABLED", &c.Recording.Enabled)
	if val, ok := os.LookupEnv("ENV_RECORDING_OUTPUT_DIR"); ok {
		c.Recording.OutputDir = val
	}

	// ENV_CONTROL_{...}
	envBool("ENV_CONTROL_ENABLED", &c.Control.Enabled)
	if val, ok := os.LookupEnv("ENV_CONTROL_ADDRESS"); ok {
		c.Control.Address = val
		applog.Infof("configuration: overriding control.address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_CONTROL_SPECTRUM_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Control.SpectrumInterval = dur
		} else {
			applog.Warnf("configuration: ignoring ENV_CONTROL_SPECTRUM_INTERVAL=%q: %v", val, err)
		}
	}
}

func envBool(name string, dst *bool) {
	if val, ok := os.LookupEnv(name); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
			applog.Infof("configuration: overriding %s from env: %v", name, b)
		} else {
			applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
		}
	}
}

func envInt(name string, dst *int) {
	if val, ok := os.LookupEnv(name); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
			applog.Infof("configuration: overriding %s from env: %d", name, n)
		} else {
			applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
		}
	}
}

func envFloat(name string, dst *float64) {
	if val, ok := os.LookupEnv(name); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
			applog.Infof("configuration: overriding %s from env: %g", name, f)
		} else {
			applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
		}
	}
}
