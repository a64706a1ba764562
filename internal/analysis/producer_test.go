// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eqscope/internal/fifo"
	"eqscope/pkg/decibels"
	"eqscope/pkg/utils"
)

const testBlockSize = 512

type tone struct {
	fifo   *fifo.FIFO
	block  []float32
	offset int
	freq   float64
}

func newTone(freq float64) *tone {
	return &tone{
		fifo:  fifo.New(32, testBlockSize),
		block: make([]float32, testBlockSize),
		freq:  freq,
	}
}

func (s *tone) push(blocks int) {
	for range blocks {
		utils.FillSineWave(s.block, s.offset, testSampleRate, s.freq, 1)
		s.fifo.Push(s.block)
		s.offset += len(s.block)
	}
}

func TestNewPathProducerValidates(t *testing.T) {
	_, err := NewPathProducer(nil, DefaultProducerConfig())
	assert.Error(t, err)

	cfg := DefaultProducerConfig()
	cfg.Order = 3
	_, err = NewPathProducer(fifo.New(4, 64), cfg)
	assert.ErrorIs(t, err, ErrUnsupportedFFTSize)

	cfg = DefaultProducerConfig()
	cfg.Path.Decay = 2
	_, err = NewPathProducer(fifo.New(4, 64), cfg)
	assert.Error(t, err)
}

func TestProducerWaitsForFullWindow(t *testing.T) {
	src := newTone(1000)
	p, err := NewPathProducer(src.fifo, DefaultProducerConfig())
	require.NoError(t, err)

	// 3 x 512 < 2048.
	src.push(3)
	assert.False(t, p.Process(400, 100, testSampleRate))
	assert.Empty(t, p.Path(nil))

	src.push(1)
	assert.True(t, p.Process(400, 100, testSampleRate))
	assert.Len(t, p.Path(nil), 400)

	// Nothing new arrived: the previous path stays.
	assert.False(t, p.Process(400, 100, testSampleRate))
	assert.Len(t, p.Path(nil), 400)
}

func TestProducerPeakFollowsTone(t *testing.T) {
	src := newTone(1000)
	p, err := NewPathProducer(src.fifo, DefaultProducerConfig())
	require.NoError(t, err)

	const width = 400
	src.push(8)
	require.True(t, p.Process(width, 100, testSampleRate))

	path := p.Path(nil)
	top := 0
	for i, pt := range path {
		if pt.Y < path[top].Y {
			top = i
		}
	}

	freq := decibels.MapToLog10(float64(top)/width, 20, 20000)
	assert.InDelta(t, 0, math.Log2(freq/1000), 0.1, "peak at %.0f Hz", freq)
}

func TestProducerSkipsWithoutSampleRate(t *testing.T) {
	src := newTone(1000)
	p, err := NewPathProducer(src.fifo, DefaultProducerConfig())
	require.NoError(t, err)

	src.push(4)
	assert.False(t, p.Process(100, 100, 0))
	assert.Zero(t, src.fifo.Available())
}

func TestProducerReset(t *testing.T) {
	src := newTone(1000)
	p, err := NewPathProducer(src.fifo, DefaultProducerConfig())
	require.NoError(t, err)

	src.push(4)
	require.True(t, p.Process(100, 100, testSampleRate))
	p.Reset()
	assert.Empty(t, p.Path(nil))

	src.push(1)
	assert.False(t, p.Process(100, 100, testSampleRate))
}

func TestProducerLongBlocks(t *testing.T) {
	f := fifo.New(4, 4096)
	p, err := NewPathProducer(f, DefaultProducerConfig())
	require.NoError(t, err)

	f.Push(utils.GenerateSineWave(4096, testSampleRate, 1000, 1))
	assert.True(t, p.Process(64, 100, testSampleRate))
}

func TestProducerProcessNoAllocs(t *testing.T) {
	src := newTone(440)
	p, err := NewPathProducer(src.fifo, DefaultProducerConfig())
	require.NoError(t, err)

	var dst Path
	for range 8 {
		src.push(4)
		p.Process(300, 120, testSampleRate)
		dst = p.Path(dst)
	}

	allocs := testing.AllocsPerRun(50, func() {
		src.push(2)
		p.Process(300, 120, testSampleRate)
		dst = p.Path(dst)
	})
	assert.Zero(t, allocs)
}
