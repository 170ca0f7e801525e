// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// isolate runs the test in an empty directory so a local config.yaml is
// never picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestParseArgsCommands(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		args    []string
		command string
		file    string
	}{
		{"default is tui", nil, CommandTUI, ""},
		{"tui with file", []string{"song.wav"}, CommandTUI, "song.wav"},
		{"list", []string{"list"}, CommandList, ""},
		{"play", []string{"play", "song.wav"}, CommandPlay, "song.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("ParseArgs() error = %v", err)
			}
			if opts.Command != tt.command {
				t.Errorf("Command = %q, want %q", opts.Command, tt.command)
			}
			if opts.File != tt.file {
				t.Errorf("File = %q, want %q", opts.File, tt.file)
			}
			if opts.Config == nil {
				t.Fatal("Config is nil")
			}
		})
	}
}

func TestParseArgsFlagsOverrideConfig(t *testing.T) {
	isolate(t)

	opts, err := ParseArgs([]string{
		"play", "in.wav",
		"-d", "3",
		"-s", "48000",
		"-b", "256",
		"--volume", "0.5",
		"--chain", "source,lowpass:800,destination",
		"--loop",
		"-r", "-o", "takes", "--bit-depth", "24",
		"--control", "--addr", "0.0.0.0:9000",
		"-v",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := opts.Config
	if cfg.Audio.OutputDevice != 3 || cfg.Audio.SampleRate != 48000 || cfg.Audio.FramesPerBuffer != 256 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.Volume != 0.5 {
		t.Errorf("Volume = %v, want 0.5", cfg.Audio.Volume)
	}
	if want := []string{"source", "lowpass:800", "destination"}; !slices.Equal(cfg.Pipeline.Chain, want) {
		t.Errorf("Chain = %v, want %v", cfg.Pipeline.Chain, want)
	}
	if !cfg.Pipeline.Loop {
		t.Error("Loop not set")
	}
	if !cfg.Recording.Enabled || cfg.Recording.OutputDir != "takes" || cfg.Recording.BitDepth != 24 {
		t.Errorf("recording = %+v", cfg.Recording)
	}
	if !cfg.Control.Enabled || cfg.Control.Address != "0.0.0.0:9000" {
		t.Errorf("control = %+v", cfg.Control)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestParseArgsKeepsFileValuesForUnsetFlags(t *testing.T) {
	isolate(t)

	yaml := "audio:\n  sample_rate: 22050\n  volume: 2\npipeline:\n  chain: [source, gain:0.5, destination]\n"
	if err := os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := ParseArgs([]string{"list", "--volume", "1.5"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.Config
	if cfg.Audio.SampleRate != 22050 {
		t.Errorf("SampleRate = %v, want 22050 from file", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Volume != 1.5 {
		t.Errorf("Volume = %v, want 1.5 from flag", cfg.Audio.Volume)
	}
	if len(cfg.Pipeline.Chain) != 3 || cfg.Pipeline.Chain[1] != "gain:0.5" {
		t.Errorf("Chain = %v", cfg.Pipeline.Chain)
	}
}

func TestParseArgsErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"play without file", []string{"play"}, "accepts 1 arg"},
		{"too many files", []string{"a.wav", "b.wav"}, "accepts at most 1 arg"},
		{"bad bit depth", []string{"--bit-depth", "12"}, "recording.bit_depth"},
		{"bad volume", []string{"--volume", "9"}, "audio.volume"},
		{"bad log level", []string{"--log-level", "loud"}, "log_level"},
		{"bad chain entry", []string{"--chain", "source,reverb"}, "invalid chain"},
		{"play without destination", []string{"play", "in.wav", "--chain", "source,lowpass"}, "source and destination"},
		{"play without source", []string{"play", "in.wav", "--chain", "gain,destination"}, "source and destination"},
		{"missing config", []string{"--config", "nope.yaml"}, "failed to read config file"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Fatal("ParseArgs() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestParseArgsHelpRunsNothing(t *testing.T) {
	isolate(t)

	opts, err := ParseArgs([]string{"--help"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Command != "" {
		t.Errorf("Command = %q, want empty", opts.Command)
	}
}
