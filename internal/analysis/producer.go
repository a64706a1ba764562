// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// ProducerConfig sizes one channel's analysis pipeline.
type ProducerConfig struct {
	Order           FFTOrder
	Window          WindowFunc
	FrameQueueDepth int
	PathQueueDepth  int
	Path            PathConfig
}

// DefaultProducerConfig is a 2048 point Blackman-Harris analyser over the
// default path layout.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Order:           Order2048,
		Window:          BlackmanHarris,
		FrameQueueDepth: 4,
		PathQueueDepth:  4,
		Path:            DefaultPathConfig(),
	}
}

// PathProducer is the per-channel pipeline FIFO -> FFT data generator ->
// path generator. Every call to Process drains the FIFO into the rolling
// window, produces a frame per block once the window is full, turns every
// frame into a path and keeps only the newest path.
//
// It is not safe for concurrent use. The render goroutine owns it.
type PathProducer struct {
	source BlockSource
	block  []float32

	mono   []float32 // Most recent FFTSize samples, oldest first.
	filled int

	generator *FFTDataGenerator
	frame     []float64
	paths     *PathGenerator
	latest    Path
	floor     float64
}

var _ SpectrumSource = (*PathProducer)(nil)

// NewPathProducer creates a pipeline reading from source.
func NewPathProducer(source BlockSource, cfg ProducerConfig) (*PathProducer, error) {
	if source == nil {
		return nil, fmt.Errorf("path producer needs a block source")
	}
	generator, err := NewFFTDataGenerator(cfg.Order, cfg.Window, cfg.FrameQueueDepth)
	if err != nil {
		return nil, fmt.Errorf("fft data generator: %w", err)
	}
	paths, err := NewPathGenerator(cfg.PathQueueDepth, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("path generator: %w", err)
	}

	return &PathProducer{
		source:    source,
		block:     make([]float32, source.BlockSize()),
		mono:      make([]float32, generator.FFTSize()),
		generator: generator,
		frame:     make([]float64, generator.NumBins()),
		paths:     paths,
		floor:     cfg.Path.MinDB,
	}, nil
}

// Process implements SpectrumSource.
func (p *PathProducer) Process(width int, height, sampleRate float64) bool {
	for p.source.Available() > 0 {
		n, ok := p.source.Pop(p.block)
		if !ok {
			break
		}
		p.append(p.block[:n])
		if p.filled == len(p.mono) {
			p.generator.Produce(p.mono, p.floor)
		}
	}

	if sampleRate <= 0 {
		p.generator.Reset()
		return false
	}
	binWidth := sampleRate / float64(p.generator.FFTSize())
	for p.generator.Available() > 0 {
		if p.generator.Pop(p.frame) {
			p.paths.Generate(p.frame, width, height, binWidth)
		}
	}

	fresh := false
	for p.paths.Available() > 0 {
		if path, ok := p.paths.Pop(p.latest); ok {
			p.latest = path
			fresh = true
		}
	}
	return fresh
}

// append shifts samples into the rolling window.
func (p *PathProducer) append(samples []float32) {
	size := len(p.mono)
	if len(samples) >= size {
		copy(p.mono, samples[len(samples)-size:])
		p.filled = size
		return
	}
	n := len(samples)
	copy(p.mono, p.mono[n:])
	copy(p.mono[size-n:], samples)
	p.filled = min(p.filled+n, size)
}

// Path implements SpectrumSource.
func (p *PathProducer) Path(dst Path) Path {
	return append(dst[:0], p.latest...)
}

// FFTSize returns the analysis window length.
func (p *PathProducer) FFTSize() int {
	return p.generator.FFTSize()
}

// Reset empties the rolling window and forgets every queued result.
func (p *PathProducer) Reset() {
	clear(p.mono)
	p.filled = 0
	p.generator.Reset()
	p.paths.Reset()
	p.latest = p.latest[:0]
}
