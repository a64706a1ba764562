// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eqscope/internal/config"
	"eqscope/internal/filter"
)

const (
	testSampleRate = 48000
	testFrameSize  = 256
)

func testAudioConfig(channels int) config.AudioConfig {
	return config.AudioConfig{
		InputDevice:     config.MinDeviceID,
		SampleRate:      testSampleRate,
		FramesPerBuffer: testFrameSize,
		InputChannels:   channels,
		FIFOCapacity:    8,
	}
}

// bypassAll returns settings whose chain passes samples through unchanged.
func bypassAll() filter.ChainSettings {
	s := filter.DefaultChainSettings()
	s.LowCutBypassed = true
	s.PeakBypassed = true
	s.HighCutBypassed = true
	return s
}

func newTestEngine(t *testing.T, channels int, settings filter.ChainSettings) *Engine {
	t.Helper()
	e, err := NewEngine(testAudioConfig(channels), settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := testAudioConfig(0)
	_, err := NewEngine(cfg, filter.DefaultChainSettings())
	assert.ErrorIs(t, err, config.ErrInvalidChannels)

	cfg = testAudioConfig(2)
	cfg.FramesPerBuffer = 0
	_, err = NewEngine(cfg, filter.DefaultChainSettings())
	assert.ErrorIs(t, err, config.ErrInvalidFramesPerBuffer)
}

func TestProcess_Deinterleaves(t *testing.T) {
	e := newTestEngine(t, 2, bypassAll())

	in := make([]float32, testFrameSize*2)
	for i := range testFrameSize {
		in[2*i] = 0.25
		in[2*i+1] = -0.5
	}
	e.Process(in)

	left := make([]float32, testFrameSize)
	right := make([]float32, testFrameSize)
	n, ok := e.FIFO(0).Pop(left)
	require.True(t, ok)
	assert.Equal(t, testFrameSize, n)
	_, ok = e.FIFO(1).Pop(right)
	require.True(t, ok)

	for i := range testFrameSize {
		assert.Equal(t, float32(0.25), left[i])
		assert.Equal(t, float32(-0.5), right[i])
	}
	assert.InDelta(t, 0.25, e.Level(0), 1e-9)
	assert.InDelta(t, 0.5, e.Level(1), 1e-9)
	assert.Zero(t, e.Level(5))
}

func TestProcess_SplitsIntoBlocks(t *testing.T) {
	e := newTestEngine(t, 1, bypassAll())

	e.Process(make([]float32, testFrameSize*3+10))
	assert.Equal(t, 4, e.FIFO(0).Available())

	buf := make([]float32, testFrameSize)
	for range 3 {
		n, ok := e.FIFO(0).Pop(buf)
		require.True(t, ok)
		assert.Equal(t, testFrameSize, n)
	}
	n, ok := e.FIFO(0).Pop(buf)
	require.True(t, ok)
	assert.Equal(t, 10, n)
}

func TestProcess_OverflowCountsDropped(t *testing.T) {
	e := newTestEngine(t, 1, bypassAll())

	block := make([]float32, testFrameSize)
	for range 10 {
		e.Process(block)
	}
	assert.Equal(t, 8, e.FIFO(0).Available())
	assert.Equal(t, uint64(2), e.Dropped())
}

func TestApplySettings_ReachesAudioPath(t *testing.T) {
	e := newTestEngine(t, 1, bypassAll())

	settings := bypassAll()
	settings.PeakBypassed = false
	settings.PeakFreq = 1000
	settings.PeakGainDB = 12
	e.ApplySettings(settings)

	// A 1 kHz tone through a +12 dB peak at 1 kHz comes out about 4x louder.
	in := make([]float32, testFrameSize)
	out := make([]float32, testFrameSize)
	var peak float64
	for block := range 40 {
		for i := range in {
			n := block*testFrameSize + i
			in[i] = float32(0.1 * math.Sin(2*math.Pi*1000*float64(n)/testSampleRate))
		}
		e.Process(in)
		_, ok := e.FIFO(0).Pop(out)
		require.True(t, ok)
		if block >= 30 {
			peak = max(peak, e.Level(0))
		}
	}
	assert.InDelta(t, 0.1*math.Pow(10, 12.0/20), peak, 0.02)
}

func TestSetSampleRate(t *testing.T) {
	e := newTestEngine(t, 2, filter.DefaultChainSettings())
	assert.Equal(t, float64(testSampleRate), e.SampleRate())

	e.SetSampleRate(44100)
	assert.Equal(t, 44100.0, e.SampleRate())
}

func TestProcess_ZeroAllocs(t *testing.T) {
	e := newTestEngine(t, 2, filter.DefaultChainSettings())
	in := make([]float32, testFrameSize*2)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) * 0.01))
	}

	allocs := testing.AllocsPerRun(100, func() {
		e.Process(in)
	})
	assert.Zero(t, allocs, "Process must not allocate")
}

func BenchmarkProcess(b *testing.B) {
	e, err := NewEngine(testAudioConfig(2), filter.DefaultChainSettings())
	if err != nil {
		b.Fatal(err)
	}
	in := make([]float32, testFrameSize*2)
	for i := range in {
		in[i] = float32(math.Sin(float64(i) * 0.01))
	}
	b.ReportAllocs()
	for b.Loop() {
		e.Process(in)
	}
}
