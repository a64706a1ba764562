// SPDX-License-Identifier: MIT
/*
Package audio is the host side of the pipeline: it captures audio with
PortAudio (or reads it from a WAV file), runs each block through the
audio-path filter chain and hands one block per channel to the sample
FIFOs the analyzer reads from.

Thread Safety:
  - Process runs on the audio callback and never allocates, locks or logs
  - Filter coefficients reach the callback through filter.AudioChain
  - Recording goes through its own FIFO and is encoded off the callback
*/
package audio

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"eqscope/internal/config"
	"eqscope/internal/fifo"
	"eqscope/internal/filter"
	"eqscope/internal/log"
)

var logger = log.Named("audio")

var ErrStreamRunning = errors.New("input stream already running")

type Engine struct {
	// Core configuration.
	config   config.AudioConfig
	channels int
	block    int

	sampleRate atomic.Uint64 // float64 bits

	// Audio path.
	chain   *filter.AudioChain
	fifos   []*fifo.FIFO
	scratch [][]float32 // Per-channel de-interleaved block.
	mixed   []float32   // Re-interleaved filtered block for the recorder.
	levels  []atomic.Uint32

	recorder atomic.Pointer[Recorder]

	// Audio input handling.
	mu           sync.Mutex
	settings     filter.ChainSettings
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
}

// NewEngine prepares FIFOs and the audio-path chain. It does not touch
// PortAudio; StartInputStream does.
func NewEngine(cfg config.AudioConfig, settings filter.ChainSettings) (*Engine, error) {
	if cfg.InputChannels < 1 {
		return nil, fmt.Errorf("%w: %d", config.ErrInvalidChannels, cfg.InputChannels)
	}
	if cfg.FramesPerBuffer < 1 {
		return nil, fmt.Errorf("%w: %d", config.ErrInvalidFramesPerBuffer, cfg.FramesPerBuffer)
	}
	capacity := cfg.FIFOCapacity
	if capacity < 1 {
		capacity = config.DefaultFIFOCapacity
	}

	e := &Engine{
		config:   cfg,
		channels: cfg.InputChannels,
		block:    cfg.FramesPerBuffer,
		fifos:    make([]*fifo.FIFO, cfg.InputChannels),
		scratch:  make([][]float32, cfg.InputChannels),
		mixed:    make([]float32, cfg.FramesPerBuffer*cfg.InputChannels),
		levels:   make([]atomic.Uint32, cfg.InputChannels),
		settings: settings,
	}
	for ch := range e.fifos {
		e.fifos[ch] = fifo.New(capacity, cfg.FramesPerBuffer)
		e.scratch[ch] = make([]float32, cfg.FramesPerBuffer)
	}
	e.sampleRate.Store(math.Float64bits(cfg.SampleRate))
	e.chain = filter.NewAudioChain(e.channels, filter.NewChain(settings, cfg.SampleRate))

	return e, nil
}

// Channels returns the number of captured channels.
func (e *Engine) Channels() int { return e.channels }

// BlockSize returns the frames per FIFO block.
func (e *Engine) BlockSize() int { return e.block }

// FIFO returns channel ch's sample FIFO.
func (e *Engine) FIFO(ch int) *fifo.FIFO { return e.fifos[ch] }

// SampleRate returns the current sample rate in Hz.
func (e *Engine) SampleRate() float64 {
	return math.Float64frombits(e.sampleRate.Load())
}

// SetSampleRate changes the sample rate, e.g. when a file source opens a
// file recorded at a different rate, and redesigns the audio-path chain
// for it.
func (e *Engine) SetSampleRate(sampleRate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sampleRate.Store(math.Float64bits(sampleRate))
	e.chain.Publish(filter.NewChain(e.settings, sampleRate))
}

// ApplySettings designs a new audio-path chain and hands it to the
// callback. Safe to call from any goroutine except the callback itself.
func (e *Engine) ApplySettings(settings filter.ChainSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = settings
	e.chain.Publish(filter.NewChain(settings, e.SampleRate()))
}

// Level returns channel ch's peak absolute sample of the most recent block.
func (e *Engine) Level(ch int) float64 {
	if ch < 0 || ch >= len(e.levels) {
		return 0
	}
	return float64(math.Float32frombits(e.levels[ch].Load()))
}

// Dropped returns the total number of blocks overwritten before the
// analyzer read them.
func (e *Engine) Dropped() uint64 {
	var n uint64
	for _, f := range e.fifos {
		n += f.Dropped()
	}
	return n
}

// Process is the real-time entry point. in holds interleaved frames; it is
// split into FIFO-sized blocks, filtered per channel and pushed.
//
// Performance Critical (Hot Path):
// - No allocations
// - No locks
// - No logging
func (e *Engine) Process(in []float32) {
	e.chain.Prepare()

	frameSize := e.channels
	frames := len(in) / frameSize
	for start := 0; start < frames; start += e.block {
		n := min(e.block, frames-start)
		e.processBlock(in[start*frameSize:(start+n)*frameSize], n)
	}
}

func (e *Engine) processBlock(in []float32, frames int) {
	for ch := range e.channels {
		buf := e.scratch[ch][:frames]
		for i := range buf {
			buf[i] = in[i*e.channels+ch]
		}

		e.chain.ProcessBlock(ch, buf)

		var peak float32
		for _, s := range buf {
			peak = max(peak, s, -s)
		}
		e.levels[ch].Store(math.Float32bits(peak))

		e.fifos[ch].Push(buf)
	}

	if r := e.recorder.Load(); r != nil {
		mixed := e.mixed[:frames*e.channels]
		for ch := range e.channels {
			for i, s := range e.scratch[ch][:frames] {
				mixed[i*e.channels+ch] = s
			}
		}
		r.Write(mixed)
	}
}

// StartInputStream opens the configured PortAudio input device and starts
// capturing. PortAudio must be initialised.
func (e *Engine) StartInputStream() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inputStream != nil {
		return ErrStreamRunning
	}

	device, err := InputDevice(e.config.InputDevice)
	if err != nil {
		return err
	}
	e.inputDevice = device
	if e.config.LowLatency {
		e.inputLatency = device.DefaultLowInputLatency
	} else {
		e.inputLatency = device.DefaultHighInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   device,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.block,
		SampleRate:      e.SampleRate(),
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("open input stream on %q: %w", device.Name, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}
	e.inputStream = stream

	logger.Infof("capturing %q (%d ch, %.0f Hz, %d frames, latency %s)",
		device.Name, e.channels, e.SampleRate(), e.block, e.inputLatency)
	return nil
}

// processInputStream is the PortAudio callback.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.Process(in)
}

// StopInputStream stops and closes the stream if one is running.
func (e *Engine) StopInputStream() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}

// StartRecording begins writing the filtered signal to path as WAV.
func (e *Engine) StartRecording(path string, bitDepth int) error {
	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}
	r, err := NewRecorder(path, RecorderConfig{
		SampleRate: int(e.SampleRate()),
		Channels:   e.channels,
		BitDepth:   bitDepth,
		BlockSize:  e.block,
	})
	if err != nil {
		return err
	}
	if !e.recorder.CompareAndSwap(nil, r) {
		r.Close()
		return ErrAlreadyRecording
	}
	logger.Infof("recording to %s", path)
	return nil
}

// StopRecording finishes the current recording, if any.
func (e *Engine) StopRecording() error {
	r := e.recorder.Swap(nil)
	if r == nil {
		return nil
	}
	return r.Close()
}

// Recording reports whether a recording is in progress.
func (e *Engine) Recording() bool {
	return e.recorder.Load() != nil
}

// Close stops recording and capture.
func (e *Engine) Close() error {
	return errors.Join(e.StopRecording(), e.StopInputStream())
}
