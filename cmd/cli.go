// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"

	"pipeline/internal/config"
	"pipeline/internal/pipeline"
	"pipeline/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected by ParseArgs.
const (
	CommandTUI  = "tui"
	CommandList = "list"
	CommandPlay = "play"
)

// Options is the parsed command line.
type Options struct {
	Config  *config.Config
	Command string // Empty when nothing should run (help, version).
	File    string // Audio file for play, optional for tui.
}

// flagValues receives the flag values. Only flags the user set override
// the loaded configuration.
type flagValues struct {
	configPath string

	device     int
	sampleRate float64
	frames     int
	lowLatency bool
	volume     float64

	chain []string
	loop  bool

	record    bool
	outputDir string
	bitDepth  int

	control bool
	address string

	logLevel string
	verbose  bool
}

func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var f flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [FILE]",
		Short:         build.Description,
		Long:          build.Description + ".\n\nWithout a subcommand the interactive chain editor starts; FILE is loaded as its source.",
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(f.configPath)
			if err != nil {
				return err
			}
			f.apply(cmd.Flags().Changed, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			if _, err := pipeline.ParseSpecs(cfg.Pipeline.Chain); err != nil {
				return fmt.Errorf("invalid chain: %w", err)
			}
			options.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandTUI
			if len(args) == 1 {
				options.File = args[0]
			}
			return nil
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	}

	// Play command
	playCmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Play FILE through the configured chain without the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("play needs a file")
			}
			if err := playable(options.Config.Pipeline.Chain); err != nil {
				return err
			}
			options.Command = CommandPlay
			options.File = args[0]
			return nil
		},
	}
	rootCmd.AddCommand(listCmd, playCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "C", "",
		"Path to a YAML configuration file (default ./config.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Output device ID. Use 'list' command to see available devices.")
	pf.Float64VarP(&f.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&f.frames, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&f.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low output latency")
	pf.Float64Var(&f.volume, "volume", config.DefaultVolume,
		"Master volume (0-4)")

	// Pipeline Configuration
	pf.StringSliceVar(&f.chain, "chain", config.DefaultChain,
		"Comma separated node specs, e.g. source,lowpass:800,gain:0.5,destination")
	pf.BoolVar(&f.loop, "loop", false,
		"Loop the source")

	// Recording Configuration
	pf.BoolVarP(&f.record, "record", "r", false,
		"Record the played output")
	pf.StringVarP(&f.outputDir, "output-dir", "o", config.DefaultRecordingDir,
		"Directory for recordings")
	pf.IntVar(&f.bitDepth, "bit-depth", config.DefaultRecordingBitDepth,
		"Recording bit depth (16, 24 or 32)")

	// Control Server Configuration
	pf.BoolVar(&f.control, "control", false,
		"Serve websocket control and spectrum endpoints")
	pf.StringVar(&f.address, "addr", config.DefaultControlAddress,
		"Control server listen address")

	// Debug Configuration
	pf.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false,
		"Show verbose output (same as --log-level debug)")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// playable reports an error when chain cannot render the file to the
// output, in which case playback would never finish.
func playable(chain []string) error {
	specs, err := pipeline.ParseSpecs(chain)
	if err != nil {
		return fmt.Errorf("invalid chain: %w", err)
	}
	var source, destination bool
	for _, s := range specs {
		switch s.(type) {
		case pipeline.SourceSpec:
			source = true
		case pipeline.DestinationSpec:
			destination = true
		}
	}
	if !source || !destination {
		return fmt.Errorf("play needs a chain with source and destination, got %v", chain)
	}
	return nil
}

// apply copies every flag the user set onto cfg.
func (f *flagValues) apply(changed func(string) bool, cfg *config.Config) {
	if changed("device") {
		cfg.Audio.OutputDevice = f.device
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.frames
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("volume") {
		cfg.Audio.Volume = f.volume
	}
	if changed("chain") {
		cfg.Pipeline.Chain = f.chain
	}
	if changed("loop") {
		cfg.Pipeline.Loop = f.loop
	}
	if changed("record") {
		cfg.Recording.Enabled = f.record
	}
	if changed("output-dir") {
		cfg.Recording.OutputDir = f.outputDir
	}
	if changed("bit-depth") {
		cfg.Recording.BitDepth = f.bitDepth
	}
	if changed("control") {
		cfg.Control.Enabled = f.control
	}
	if changed("addr") {
		cfg.Control.Address = f.address
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
}
