// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"eqscope/internal/log"
)

var logger = log.Named("config")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Audio input settings.
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`  // Spectrum analyzer settings.
	Display   DisplayConfig   `yaml:"display"`   // Render driver settings.
	Filters   FilterConfig    `yaml:"filters"`   // Initial equalizer parameters.
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
	Transport TransportConfig `yaml:"transport"` // Frame transports.
}

// AudioConfig holds settings related to audio input and the sample FIFOs.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per callback, the FIFO block size.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	InputChannels   int     `yaml:"input_channels"`    // 1 for mono, 2 for stereo.
	FIFOCapacity    int     `yaml:"fifo_capacity"`     // Blocks held per channel before the oldest is overwritten.
}

// AnalyzerConfig holds the FFT and path generator settings.
type AnalyzerConfig struct {
	Enabled         bool    `yaml:"enabled"`           // Start with the spectrum analyzer on.
	FFTSize         int     `yaml:"fft_size"`          // 2048, 4096 or 8192.
	FFTWindow       string  `yaml:"fft_window"`        // Window function name (e.g., "blackmanharris", "hann").
	NoiseFloorDB    float64 `yaml:"noise_floor_db"`    // Bottom of the spectrum axis; quieter bins are clamped.
	MaxDB           float64 `yaml:"max_db"`            // Top of the spectrum axis.
	Decay           float64 `yaml:"decay"`             // Release factor per frame in [0, 1).
	FrameQueueDepth int     `yaml:"frame_queue_depth"` // Unread FFT frames kept per channel.
	PathQueueDepth  int     `yaml:"path_queue_depth"`  // Unread paths kept per channel.
}

// DisplayConfig holds render driver settings.
type DisplayConfig struct {
	RefreshRate float64 `yaml:"refresh_rate"` // Ticks per second.
	Width       int     `yaml:"width"`        // Component size used when no terminal sets it.
	Height      int     `yaml:"height"`
	Headless    bool    `yaml:"headless"` // Run without the terminal UI.
}

// FilterConfig holds the initial equalizer parameters. Slopes are in
// dB/octave.
type FilterConfig struct {
	PeakFreq        float64 `yaml:"peak_freq"`
	PeakGainDB      float64 `yaml:"peak_gain_db"`
	PeakQuality     float64 `yaml:"peak_quality"`
	LowCutFreq      float64 `yaml:"low_cut_freq"`
	HighCutFreq     float64 `yaml:"high_cut_freq"`
	LowCutSlope     int     `yaml:"low_cut_slope"`
	HighCutSlope    int     `yaml:"high_cut_slope"`
	LowCutBypassed  bool    `yaml:"low_cut_bypassed"`
	PeakBypassed    bool    `yaml:"peak_bypassed"`
	HighCutBypassed bool    `yaml:"high_cut_bypassed"`
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record the filtered input.
	OutputDir  string `yaml:"output_dir"`  // Directory for generated file names.
	OutputFile string `yaml:"output_file"` // Explicit file, overrides output_dir.
	Format     string `yaml:"format"`      // File format for recordings (wav only).
	BitDepth   int    `yaml:"bit_depth"`   // Bit depth for recorded audio (16, 24 or 32).
}

// TransportConfig holds settings for the network frame sinks.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`  // Serve frames as JSON.
	WebSocketAddress string `yaml:"websocket_address"`  // Listen address (e.g., ":8080").
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send binary frames over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	LogFrames        bool   `yaml:"log_frames"`         // Log a debug line per frame.
}

// configCandidates are searched, in order, when no path is given.
var configCandidates = []string{
	"eqscope.yaml",
	"config.yaml",
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations. If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range configCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
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
		logger.Debugf("loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides applies EQSCOPE_* variables. Unparsable values are
// logged and ignored.
func (c *Config) applyEnvOverrides() {
	envBool("EQSCOPE_DEBUG", &c.Debug)
	envString("EQSCOPE_LOG_LEVEL", &c.LogLevel)

	envInt("EQSCOPE_DEVICE", &c.Audio.InputDevice)
	envFloat("EQSCOPE_SAMPLE_RATE", &c.Audio.SampleRate)
	envInt("EQSCOPE_CHANNELS", &c.Audio.InputChannels)
	envInt("EQSCOPE_FRAMES_PER_BUFFER", &c.Audio.FramesPerBuffer)

	envInt("EQSCOPE_FFT_SIZE", &c.Analyzer.FFTSize)
	envString("EQSCOPE_FFT_WINDOW", &c.Analyzer.FFTWindow)
	envFloat("EQSCOPE_REFRESH_RATE", &c.Display.RefreshRate)

	// Setting an address implies enabling the transport.
	if envString("EQSCOPE_WS_ADDRESS", &c.Transport.WebSocketAddress) {
		c.Transport.WebSocketEnabled = true
	}
	if envString("EQSCOPE_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress) {
		c.Transport.UDPEnabled = true
	}
}

func envString(key string, dst *string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	*dst = val
	logger.Infof("overriding from %s: %s", key, val)
	return true
}

func envBool(key string, dst *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		logger.Warnf("ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = b
	logger.Infof("overriding from %s: %v", key, b)
}

func envInt(key string, dst *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnf("ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = n
	logger.Infof("overriding from %s: %d", key, n)
}

func envFloat(key string, dst *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		logger.Warnf("ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = f
	logger.Infof("overriding from %s: %v", key, f)
}
