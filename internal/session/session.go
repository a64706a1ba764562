// SPDX-License-Identifier: MIT

// Package session assembles the pipeline from a configuration: parameter
// store, audio engine, per-channel spectrum producers, render driver and
// frame sinks.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eqscope/internal/analysis"
	"eqscope/internal/audio"
	"eqscope/internal/config"
	"eqscope/internal/filter"
	"eqscope/internal/log"
	"eqscope/internal/render"
	"eqscope/internal/transport"
	"eqscope/internal/transport/udp"
)

var logger = log.Named("session")

// Session owns every running component.
type Session struct {
	cfg       *config.Config
	store     *filter.Store
	engine    *audio.Engine
	producers []*analysis.PathProducer
	driver    *render.Driver
	sinks     []transport.Sink

	unsubscribe func()
}

// New wires a session. extra sinks (the terminal UI, tests) receive frames
// alongside the transports enabled in cfg. Nothing runs until Start.
func New(cfg *config.Config, extra ...render.Sink) (*Session, error) {
	settings, err := cfg.Filters.ChainSettings()
	if err != nil {
		return nil, err
	}
	pcfg, err := cfg.Analyzer.ProducerConfig()
	if err != nil {
		return nil, err
	}

	s := &Session{cfg: cfg, store: filter.NewStore(settings)}
	s.store.SetAnalyzerEnabled(cfg.Analyzer.Enabled)

	s.engine, err = audio.NewEngine(cfg.Audio, s.store.Settings())
	if err != nil {
		return nil, fmt.Errorf("audio engine: %w", err)
	}
	s.unsubscribe = s.store.Subscribe(func() {
		s.engine.ApplySettings(s.store.Settings())
	})

	sources := make([]analysis.SpectrumSource, s.engine.Channels())
	for ch := range sources {
		p, err := analysis.NewPathProducer(s.engine.FIFO(ch), pcfg)
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("channel %d producer: %w", ch, err)
		}
		s.producers = append(s.producers, p)
		sources[ch] = p
	}

	if err := s.openTransports(); err != nil {
		s.abort()
		return nil, err
	}

	sinks := make(render.MultiSink, 0, len(s.sinks)+len(extra))
	for _, t := range s.sinks {
		sinks = append(sinks, t)
	}
	sinks = append(sinks, extra...)

	s.driver, err = render.NewDriver(render.Config{
		RefreshRate: cfg.Display.RefreshRate,
		Width:       cfg.Display.Width,
		Height:      cfg.Display.Height,
	}, s.store, s.engine.SampleRate, sinks, sources...)
	if err != nil {
		s.abort()
		return nil, err
	}

	return s, nil
}

func (s *Session) openTransports() error {
	t := s.cfg.Transport
	if t.WebSocketEnabled {
		ws, err := transport.NewWebSocketSink(t.WebSocketAddress)
		if err != nil {
			return fmt.Errorf("websocket transport: %w", err)
		}
		s.sinks = append(s.sinks, ws)
	}
	if t.UDPEnabled {
		u, err := udp.Dial(t.UDPTargetAddress)
		if err != nil {
			return fmt.Errorf("udp transport: %w", err)
		}
		s.sinks = append(s.sinks, u)
	}
	if t.LogFrames {
		s.sinks = append(s.sinks, transport.NewLoggingSink(int(s.cfg.Display.RefreshRate)))
	}
	return nil
}

// Store returns the parameter store.
func (s *Session) Store() *filter.Store { return s.store }

// Engine returns the audio engine.
func (s *Session) Engine() *audio.Engine { return s.engine }

// Driver returns the render driver.
func (s *Session) Driver() *render.Driver { return s.driver }

// Start begins rendering.
func (s *Session) Start() {
	s.driver.Start()
}

// StartCapture opens the input device and, if configured, starts
// recording. PortAudio must be initialised.
func (s *Session) StartCapture() error {
	if err := s.engine.StartInputStream(); err != nil {
		return err
	}
	return s.startRecording()
}

func (s *Session) startRecording() error {
	rec := s.cfg.Recording
	if !rec.Enabled {
		return nil
	}
	path, err := RecordingPath(rec, time.Now())
	if err != nil {
		return err
	}
	return s.engine.StartRecording(path, rec.BitDepth)
}

// RunFile streams a WAV file through the engine. With realtime unset the
// file is processed as fast as possible and the driver is ticked once per
// engine block instead of on its timer, so no frame is skipped.
func (s *Session) RunFile(ctx context.Context, path string, realtime bool) error {
	src, err := audio.OpenFile(path)
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Infof("analyzing %s (%.0f Hz, %d ch, %s)", path, src.SampleRate(), src.Channels(), src.Duration().Round(time.Millisecond))

	s.engine.SetSampleRate(src.SampleRate())
	if err := s.startRecording(); err != nil {
		return err
	}
	if realtime {
		return src.Run(ctx, s.engine, true)
	}
	return src.Run(ctx, &tickingEngine{s}, false)
}

// RecordingPath returns the configured output file, or a timestamped name
// in the output directory, creating the directory if needed.
func RecordingPath(rec config.RecordingConfig, now time.Time) (string, error) {
	if rec.OutputFile != "" {
		return rec.OutputFile, nil
	}
	dir := rec.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recording directory: %w", err)
	}
	name := "recording-" + now.UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(dir, name), nil
}

// Close stops everything in reverse order of creation.
func (s *Session) Close() error {
	var errs []error
	if s.driver != nil {
		errs = append(errs, s.driver.Close())
	}
	s.unsubscribe()
	errs = append(errs, s.engine.Close())
	errs = append(errs, s.closeSinks())
	return errors.Join(errs...)
}

// abort releases what New acquired before it failed.
func (s *Session) abort() {
	s.unsubscribe()
	s.closeSinks()
	s.engine.Close()
}

func (s *Session) closeSinks() error {
	var errs []error
	for _, t := range s.sinks {
		errs = append(errs, t.Close())
	}
	s.sinks = nil
	return errors.Join(errs...)
}

// tickingEngine renders a frame after every block it processes.
type tickingEngine struct {
	s *Session
}

func (t *tickingEngine) Process(in []float32) {
	t.s.engine.Process(in)
	t.s.driver.Tick()
}

func (t *tickingEngine) Channels() int       { return t.s.engine.Channels() }
func (t *tickingEngine) BlockSize() int      { return t.s.engine.BlockSize() }
func (t *tickingEngine) SampleRate() float64 { return t.s.engine.SampleRate() }

func (t *tickingEngine) SetSampleRate(sampleRate float64) {
	t.s.engine.SetSampleRate(sampleRate)
}
