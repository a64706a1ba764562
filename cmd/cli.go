// SPDX-License-Identifier: MIT

// Package cmd is the eqscope command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"eqscope/internal/audio"
	"eqscope/internal/config"
	"eqscope/internal/log"
	"eqscope/internal/session"
	"eqscope/internal/tui"
	"eqscope/pkg/build"
)

// logFile receives log output while the terminal UI owns the screen.
const logFile = "eqscope.log"

// Options are the command line overrides. Only flags the user set are
// applied on top of the configuration file.
type Options struct {
	ConfigPath      string
	DeviceID        int
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
	WebSocket       string
	UDP             string
	Record          bool
	OutputFile      string
	Headless        bool
	Verbose         bool
	Pick            bool
	Realtime        bool
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, options)
			if err != nil {
				return err
			}
			return runLive(cmd.Context(), cfg, options)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices(cmd.OutOrStdout())
		},
	})

	analyzeCmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Run a WAV file through the equalizer and analyzer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, options)
			if err != nil {
				return err
			}
			return runFile(cmd.Context(), cfg, options, args[0])
		},
	}
	analyzeCmd.Flags().BoolVar(&options.Realtime, "realtime", false,
		"Play the file at its own pace (always on with the terminal UI)")
	rootCmd.AddCommand(analyzeCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, options)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildInfo.String())
		},
	})

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&options.ConfigPath, "config", "",
		"Configuration file (default: eqscope.yaml or config.yaml in the working directory)")

	// Audio Device Configuration
	flags.IntVarP(&options.DeviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.IntVarP(&options.Channels, "channels", "c", config.DefaultChannels,
		"Number of channels to analyze (1=mono, 2=stereo)")
	flags.Float64VarP(&options.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&options.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.BoolVarP(&options.LowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	flags.BoolVar(&options.Pick, "pick", false,
		"Choose the input device and sample rate interactively")

	// Transports
	flags.StringVar(&options.WebSocket, "ws", "",
		"Serve frames over WebSocket on this address, e.g. :8080")
	flags.StringVar(&options.UDP, "udp", "",
		"Send frame packets over UDP to this address, e.g. 127.0.0.1:9090")

	// Recording Configuration
	flags.BoolVarP(&options.Record, "record", "r", false,
		"Record the filtered signal")
	flags.StringVarP(&options.OutputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav in the recording directory")

	// Display and Debug Configuration
	flags.BoolVar(&options.Headless, "headless", false,
		"Run without the terminal UI")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	return rootCmd
}

// loadConfig reads the configuration file and applies the flags the user
// set.
func loadConfig(cmd *cobra.Command, o *Options) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Audio.InputDevice = o.DeviceID
	}
	if flags.Changed("channels") {
		cfg.Audio.InputChannels = o.Channels
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = o.SampleRate
	}
	if flags.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = o.FramesPerBuffer
	}
	if flags.Changed("low-latency") {
		cfg.Audio.LowLatency = o.LowLatency
	}
	if o.WebSocket != "" {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddress = o.WebSocket
	}
	if o.UDP != "" {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = o.UDP
	}
	if flags.Changed("record") {
		cfg.Recording.Enabled = o.Record
	}
	if o.OutputFile != "" {
		cfg.Recording.OutputFile = o.OutputFile
	}
	if flags.Changed("headless") {
		cfg.Display.Headless = o.Headless
	}
	if o.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warnf("unknown log level %q, using %s", cfg.LogLevel, level)
	}
	if cfg.Debug {
		level = log.LevelDebug
	}
	log.SetLevel(level)
	return cfg, nil
}

// runLive captures from the input device until ctx is cancelled or the
// user quits the terminal UI.
func runLive(ctx context.Context, cfg *config.Config, o *Options) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if o.Pick {
		devices, err := audio.HostDevices()
		if err != nil {
			return err
		}
		sel, ok, err := tui.PickDevice(devices)
		if err != nil || !ok {
			return err
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
	}

	return withSession(ctx, cfg, func(ctx context.Context, s *session.Session, _ *sync.WaitGroup) error {
		if err := s.StartCapture(); err != nil {
			return err
		}
		s.Start()
		return nil
	})
}

// headless reports whether cfg asks for no terminal UI. A stdout that is
// not a terminal forces headless mode.
func headless(cfg *config.Config) bool {
	if !cfg.Display.Headless && !isatty.IsTerminal(os.Stdout.Fd()) {
		log.Warnf("stdout is not a terminal, running headless")
		cfg.Display.Headless = true
	}
	return cfg.Display.Headless
}

// runFile analyzes path. Headless runs without --realtime go as fast as
// the pipeline allows.
func runFile(ctx context.Context, cfg *config.Config, o *Options, path string) error {
	if headless(cfg) {
		s, err := session.New(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		if o.Realtime {
			s.Start()
		}
		return s.RunFile(ctx, path, o.Realtime)
	}

	return withSession(ctx, cfg, func(ctx context.Context, s *session.Session, wg *sync.WaitGroup) error {
		s.Start()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RunFile(ctx, path, true); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("analyze %s: %v", path, err)
			}
		}()
		return nil
	})
}

// startFunc launches work on s. Goroutines it starts must be added to wg
// and return once ctx is done.
type startFunc func(ctx context.Context, s *session.Session, wg *sync.WaitGroup) error

// withSession builds a session, lets start launch it and then blocks on
// the terminal UI, or on ctx when headless. On return ctx is cancelled and
// the started goroutines have finished before the session closes.
func withSession(ctx context.Context, cfg *config.Config, start startFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	stop := func() {
		cancel()
		wg.Wait()
	}

	if headless(cfg) {
		s, err := session.New(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		defer stop()
		if err := start(ctx, s, &wg); err != nil {
			return err
		}
		log.Infof("running headless, press Ctrl+C to stop")
		<-ctx.Done()
		return nil
	}

	f, err := tea.LogToFile(logFile, "")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log.SetOutput(f)
	defer log.SetOutput(os.Stderr)

	sink := tui.NewSink()
	s, err := session.New(cfg, sink)
	if err != nil {
		return err
	}
	defer s.Close()
	defer stop()
	if err := start(ctx, s, &wg); err != nil {
		return err
	}

	title := build.GetBuildFlags().Name
	return tui.Run(ctx, tui.NewModel(title, s.Store(), s.Driver(), sink))
}
