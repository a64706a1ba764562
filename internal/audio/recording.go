// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"eqscope/internal/fifo"
)

var ErrAlreadyRecording = errors.New("already recording")

// drainInterval is how often the recorder empties its FIFO. It must be well
// below capacity*blockSize/sampleRate.
const drainInterval = 20 * time.Millisecond

// recorderCapacity is the number of interleaved blocks the recorder can
// fall behind by before blocks are lost.
const recorderCapacity = 256

// RecorderConfig describes the recorded stream.
type RecorderConfig struct {
	SampleRate int
	Channels   int
	BitDepth   int // 16, 24 or 32.
	BlockSize  int // Frames per Write.
}

// Recorder writes interleaved float samples to a WAV file. Write is safe
// to call from the audio callback: it only copies into a FIFO, which a
// background goroutine drains into the encoder.
type Recorder struct {
	cfg     RecorderConfig
	fifo    *fifo.FIFO
	file    *os.File
	encoder *wav.Encoder

	block  []float32
	intBuf *audio.IntBuffer
	scale  float64

	frames   atomic.Uint64
	failures atomic.Uint64

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewRecorder creates path and starts the encoding goroutine.
func NewRecorder(path string, cfg RecorderConfig) (*Recorder, error) {
	switch cfg.BitDepth {
	case 0:
		cfg.BitDepth = 16
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", cfg.BitDepth)
	}
	if cfg.Channels < 1 || cfg.BlockSize < 1 || cfg.SampleRate < 1 {
		return nil, fmt.Errorf("invalid recorder format: %+v", cfg)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	samples := cfg.BlockSize * cfg.Channels
	r := &Recorder{
		cfg:     cfg,
		fifo:    fifo.New(recorderCapacity, samples),
		file:    file,
		encoder: wav.NewEncoder(file, cfg.SampleRate, cfg.BitDepth, cfg.Channels, 1),
		block:   make([]float32, samples),
		intBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: cfg.Channels,
				SampleRate:  cfg.SampleRate,
			},
			Data:           make([]int, samples),
			SourceBitDepth: cfg.BitDepth,
		},
		scale: float64(int64(1)<<(cfg.BitDepth-1) - 1),
		done:  make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()
	return r, nil
}

// Write queues one interleaved block. It never blocks; if the encoder has
// fallen behind, the oldest queued block is lost.
func (r *Recorder) Write(interleaved []float32) {
	r.fifo.Push(interleaved)
}

// Frames returns the number of frames encoded so far.
func (r *Recorder) Frames() uint64 {
	return r.frames.Load()
}

// Path returns the output file name.
func (r *Recorder) Path() string {
	return r.file.Name()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.drain()
		case <-r.done:
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	for r.fifo.Available() > 0 {
		n, ok := r.fifo.Pop(r.block)
		if !ok {
			return
		}
		data := r.intBuf.Data[:n]
		for i, s := range r.block[:n] {
			v := math.Max(-1, math.Min(1, float64(s)))
			data[i] = int(math.Round(v * r.scale))
		}
		r.intBuf.Data = data
		if err := r.encoder.Write(r.intBuf); err != nil {
			if r.failures.Add(1) == 1 {
				logger.Errorf("recorder: write %s: %v", r.file.Name(), err)
			}
			continue
		}
		r.frames.Add(uint64(n / r.cfg.Channels))
	}
}

// Close flushes pending blocks, finalises the WAV header and closes the
// file. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()

		encErr := r.encoder.Close()
		fileErr := r.file.Close()
		r.closeErr = errors.Join(encErr, fileErr)
		logger.Infof("recorder: wrote %d frames to %s", r.frames.Load(), r.file.Name())
	})
	return r.closeErr
}
