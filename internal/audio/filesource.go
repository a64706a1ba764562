// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("not a valid WAV file")

// Processor is what a FileSource feeds; Engine is one.
type Processor interface {
	Process(in []float32)
	Channels() int
	BlockSize() int
	SampleRate() float64
	SetSampleRate(sampleRate float64)
}

// FileSource streams a WAV file through an Engine as if it came from an
// input device.
type FileSource struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate float64
	channels   int
	bitDepth   int
	duration   time.Duration
}

// OpenFile opens and validates a PCM WAV file.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	format := d.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		f.Close()
		return nil, fmt.Errorf("%w: %s: missing format", ErrInvalidWAV, path)
	}

	bitDepth := int(d.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %s: unsupported bit depth %d", ErrInvalidWAV, path, bitDepth)
	}

	duration, err := d.Duration()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read duration of %s: %w", path, err)
	}

	return &FileSource{
		file:       f,
		decoder:    d,
		sampleRate: float64(format.SampleRate),
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
		duration:   duration,
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *FileSource) SampleRate() float64 { return s.sampleRate }

// Channels returns the number of channels in the file.
func (s *FileSource) Channels() int { return s.channels }

// Duration returns the file's play time.
func (s *FileSource) Duration() time.Duration { return s.duration }

// Run feeds the file to e one block at a time until the file ends or ctx
// is cancelled. With realtime set, blocks are paced at the file's sample
// rate; otherwise they are pushed as fast as the engine takes them.
//
// Engine channel c reads file channel min(c, Channels()-1), so a mono file
// fills both channels of a stereo engine.
func (s *FileSource) Run(ctx context.Context, e Processor, realtime bool) error {
	if e.SampleRate() != s.sampleRate {
		logger.Infof("file sample rate %.0f Hz, engine was %.0f Hz", s.sampleRate, e.SampleRate())
		e.SetSampleRate(s.sampleRate)
	}

	block := e.BlockSize()
	engineCh := e.Channels()
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: s.channels, SampleRate: int(s.sampleRate)},
		Data:   make([]int, block*s.channels),
	}
	out := make([]float32, block*engineCh)

	scale := 1 / float32(int64(1)<<(s.bitDepth-1))
	var offset int
	if s.bitDepth == 8 {
		offset = 128 // 8-bit PCM is unsigned.
	}

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(time.Duration(float64(block) / s.sampleRate * float64(time.Second)))
		defer ticker.Stop()
	}

	var total int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		intBuf.Data = intBuf.Data[:cap(intBuf.Data)]
		n, err := s.decoder.PCMBuffer(intBuf)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: %w", s.file.Name(), err)
		}
		frames := n / s.channels
		if frames == 0 {
			logger.Infof("finished %s after %d frames", s.file.Name(), total)
			return nil
		}
		total += frames

		for i := range frames {
			frame := intBuf.Data[i*s.channels : (i+1)*s.channels]
			for c := range engineCh {
				src := min(c, s.channels-1)
				out[i*engineCh+c] = float32(frame[src]-offset) * scale
			}
		}
		e.Process(out[:frames*engineCh])

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

// Close releases the file.
func (s *FileSource) Close() error {
	return s.file.Close()
}
