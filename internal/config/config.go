// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"strings"

	"eqscope/internal/analysis"
	"eqscope/internal/filter"
)

// Core configuration constants that define the boundaries and defaults
// for the engine and the analyzer.
const (
	// Audio device defaults
	DefaultChannels        = 2           // Left and right producers
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultSampleRate      = 48000
	DefaultFIFOCapacity    = 32 // Blocks per channel

	// Analyzer defaults
	DefaultFFTSize         = 2048
	DefaultFFTWindow       = "blackmanharris"
	DefaultNoiseFloorDB    = -48.0
	DefaultMaxDB           = 0.0
	DefaultDecay           = 0.8
	DefaultFrameQueueDepth = 4
	DefaultPathQueueDepth  = 4

	// Display defaults
	DefaultRefreshRate = 60.0
	DefaultWidth       = 800
	DefaultHeight      = 400

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxChannels     = 2
	MaxRefreshRate  = 240.0
)

// Validation failures. Validate wraps these with the offending value.
var (
	ErrInvalidDevice          = errors.New("invalid input device")
	ErrInvalidSampleRate      = errors.New("invalid sample rate")
	ErrInvalidChannels        = errors.New("invalid channel count")
	ErrInvalidFramesPerBuffer = errors.New("invalid frames per buffer")
	ErrInvalidFFTSize         = errors.New("invalid fft size")
	ErrInvalidWindow          = errors.New("invalid fft window")
	ErrInvalidDecibelRange    = errors.New("invalid decibel range")
	ErrInvalidDecay           = errors.New("invalid decay")
	ErrInvalidQueueDepth      = errors.New("invalid queue depth")
	ErrInvalidRefreshRate     = errors.New("invalid refresh rate")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidSlope           = errors.New("invalid slope")
	ErrInvalidBitDepth        = errors.New("invalid bit depth")
	ErrMissingAddress         = errors.New("missing address")
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			FIFOCapacity:    DefaultFIFOCapacity,
		},
		Analyzer: AnalyzerConfig{
			Enabled:         true,
			FFTSize:         DefaultFFTSize,
			FFTWindow:       DefaultFFTWindow,
			NoiseFloorDB:    DefaultNoiseFloorDB,
			MaxDB:           DefaultMaxDB,
			Decay:           DefaultDecay,
			FrameQueueDepth: DefaultFrameQueueDepth,
			PathQueueDepth:  DefaultPathQueueDepth,
		},
		Display: DisplayConfig{
			RefreshRate: DefaultRefreshRate,
			Width:       DefaultWidth,
			Height:      DefaultHeight,
		},
		Filters: DefaultFilterConfig(),
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			Format:    "wav",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebSocketAddress: ":8080",
			UDPTargetAddress: "127.0.0.1:9090",
		},
	}
}

// DefaultFilterConfig mirrors filter.DefaultChainSettings.
func DefaultFilterConfig() FilterConfig {
	s := filter.DefaultChainSettings()
	return FilterConfig{
		PeakFreq:     s.PeakFreq,
		PeakGainDB:   s.PeakGainDB,
		PeakQuality:  s.PeakQuality,
		LowCutFreq:   s.LowCutFreq,
		HighCutFreq:  s.HighCutFreq,
		LowCutSlope:  s.LowCutSlope.DBPerOctave(),
		HighCutSlope: s.HighCutSlope.DBPerOctave(),
	}
}

// ChainSettings converts the filter section into the parameter store's
// representation.
func (f FilterConfig) ChainSettings() (filter.ChainSettings, error) {
	low, err := filter.SlopeFromDBPerOctave(f.LowCutSlope)
	if err != nil {
		return filter.ChainSettings{}, fmt.Errorf("%w: low cut: %v", ErrInvalidSlope, err)
	}
	high, err := filter.SlopeFromDBPerOctave(f.HighCutSlope)
	if err != nil {
		return filter.ChainSettings{}, fmt.Errorf("%w: high cut: %v", ErrInvalidSlope, err)
	}
	return filter.ChainSettings{
		PeakFreq:        f.PeakFreq,
		PeakGainDB:      f.PeakGainDB,
		PeakQuality:     f.PeakQuality,
		LowCutFreq:      f.LowCutFreq,
		HighCutFreq:     f.HighCutFreq,
		LowCutSlope:     low,
		HighCutSlope:    high,
		LowCutBypassed:  f.LowCutBypassed,
		PeakBypassed:    f.PeakBypassed,
		HighCutBypassed: f.HighCutBypassed,
	}, nil
}

// ProducerConfig converts the analyzer section into a per-channel pipeline
// configuration.
func (a AnalyzerConfig) ProducerConfig() (analysis.ProducerConfig, error) {
	order, err := analysis.OrderForSize(a.FFTSize)
	if err != nil {
		return analysis.ProducerConfig{}, fmt.Errorf("%w: %v", ErrInvalidFFTSize, err)
	}
	window, err := analysis.ParseWindowFunc(a.FFTWindow)
	if err != nil {
		return analysis.ProducerConfig{}, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	path := analysis.DefaultPathConfig()
	path.MinDB = a.NoiseFloorDB
	path.MaxDB = a.MaxDB
	path.Decay = a.Decay
	return analysis.ProducerConfig{
		Order:           order,
		Window:          window,
		FrameQueueDepth: a.FrameQueueDepth,
		PathQueueDepth:  a.PathQueueDepth,
		Path:            path,
	}, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(sentinel error, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...))
	}

	// Audio
	a := c.Audio
	if a.InputDevice < MinDeviceID {
		add(ErrInvalidDevice, "audio.input_device %d", a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		add(ErrInvalidSampleRate, "audio.sample_rate %v outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		add(ErrInvalidChannels, "audio.input_channels %d outside [1, %d]", a.InputChannels, MaxChannels)
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		add(ErrInvalidFramesPerBuffer, "audio.frames_per_buffer %d outside [1, %d]", a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.FIFOCapacity < 1 {
		add(ErrInvalidQueueDepth, "audio.fifo_capacity %d", a.FIFOCapacity)
	}

	// Analyzer
	an := c.Analyzer
	if _, err := analysis.OrderForSize(an.FFTSize); err != nil {
		add(ErrInvalidFFTSize, "analyzer.fft_size: %v", err)
	}
	if _, err := analysis.ParseWindowFunc(an.FFTWindow); err != nil {
		add(ErrInvalidWindow, "analyzer.fft_window: %v", err)
	}
	if an.MaxDB <= an.NoiseFloorDB {
		add(ErrInvalidDecibelRange, "analyzer.noise_floor_db %v must be below analyzer.max_db %v", an.NoiseFloorDB, an.MaxDB)
	}
	if an.Decay < 0 || an.Decay >= 1 {
		add(ErrInvalidDecay, "analyzer.decay %v outside [0, 1)", an.Decay)
	}
	if an.FrameQueueDepth < 1 || an.PathQueueDepth < 1 {
		add(ErrInvalidQueueDepth, "analyzer queue depths %d/%d must be positive", an.FrameQueueDepth, an.PathQueueDepth)
	}

	// Display
	if r := c.Display.RefreshRate; r <= 0 || r > MaxRefreshRate {
		add(ErrInvalidRefreshRate, "display.refresh_rate %v outside (0, %v]", r, MaxRefreshRate)
	}

	// Filters
	f := c.Filters
	for name, v := range map[string]float64{
		"peak_freq":     f.PeakFreq,
		"low_cut_freq":  f.LowCutFreq,
		"high_cut_freq": f.HighCutFreq,
	} {
		if v < filter.MinFrequency || v > filter.MaxFrequency {
			add(ErrInvalidFrequency, "filters.%s %v outside [%v, %v]", name, v, filter.MinFrequency, filter.MaxFrequency)
		}
	}
	if _, err := f.ChainSettings(); err != nil {
		errs = append(errs, err)
	}

	// Recording
	if c.Recording.Enabled || c.Recording.OutputFile != "" {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			add(ErrInvalidBitDepth, "recording.bit_depth %d", c.Recording.BitDepth)
		}
	}

	// Transport
	t := c.Transport
	if t.WebSocketEnabled && strings.TrimSpace(t.WebSocketAddress) == "" {
		add(ErrMissingAddress, "transport.websocket_address must be set when the websocket is enabled")
	}
	if t.UDPEnabled && !strings.Contains(t.UDPTargetAddress, ":") {
		add(ErrMissingAddress, "transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress)
	}

	return errors.Join(errs...)
}
