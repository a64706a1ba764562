// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"eqscope/pkg/utils"
)

const (
	testSampleRate = 48000.0
	testFloor      = -48.0
)

func TestOrderForSize(t *testing.T) {
	tests := []struct {
		size    int
		order   FFTOrder
		wantErr bool
	}{
		{2048, Order2048, false},
		{4096, Order4096, false},
		{8192, Order8192, false},
		{1024, 0, true},
		{3000, 0, true},
		{0, 0, true},
	}

	for _, tt := range tests {
		order, err := OrderForSize(tt.size)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFFTSize, "size %d", tt.size)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.order, order)
		assert.Equal(t, tt.size, order.Size())
	}
}

func TestNewFFTDataGeneratorRejectsBadInput(t *testing.T) {
	_, err := NewFFTDataGenerator(FFTOrder(5), BlackmanHarris, 4)
	assert.ErrorIs(t, err, ErrUnsupportedFFTSize)

	_, err = NewFFTDataGenerator(Order2048, BlackmanHarris, 0)
	assert.Error(t, err)
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"BlackmanHarris", BlackmanHarris, false},
		{"", BlackmanHarris, false},
		{"hanning", Hann, false},
		{"NUTTALL", Nuttall, false},
		{"triangle", BlackmanHarris, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestProduceNeedsFullWindow(t *testing.T) {
	g, err := NewFFTDataGenerator(Order2048, BlackmanHarris, 4)
	require.NoError(t, err)

	assert.False(t, g.Produce(make([]float32, 2047), testFloor))
	assert.Zero(t, g.Available())
}

func TestSinePeaksAtExpectedBin(t *testing.T) {
	g, err := NewFFTDataGenerator(Order2048, BlackmanHarris, 4)
	require.NoError(t, err)
	require.Equal(t, 1024, g.NumBins())

	samples := utils.GenerateSineWave(g.FFTSize(), testSampleRate, 1000, 1)
	require.True(t, g.Produce(samples, testFloor))
	require.Equal(t, 1, g.Available())

	frame := make([]float64, g.NumBins())
	require.True(t, g.Pop(frame))

	peak := utils.FindPeakBin(frame, 0, len(frame)-1)
	expected := utils.ExpectedBin(1000, testSampleRate, g.FFTSize())
	assert.Equal(t, 43, expected)
	assert.InDelta(t, expected, peak, 1)

	// 1 kHz falls between bins; scalloping costs under a dB.
	assert.InDelta(t, 0, frame[peak], 1)
	assert.LessOrEqual(t, frame[peak], 0.0)

	for _, offset := range []int{-20, -10, 10, 20} {
		assert.Less(t, frame[peak+offset], frame[peak]-30, "bin %d", peak+offset)
	}
}

func TestFullScaleSineReadsZeroDB(t *testing.T) {
	// 48000/2048 Hz per bin puts 1500 Hz exactly on bin 64.
	for _, w := range []WindowFunc{BlackmanHarris, Hann, Hamming, Nuttall} {
		t.Run(w.String(), func(t *testing.T) {
			g, err := NewFFTDataGenerator(Order2048, w, 1)
			require.NoError(t, err)

			require.True(t, g.Produce(utils.GenerateSineWave(g.FFTSize(), testSampleRate, 1500, 1), testFloor))
			frame := make([]float64, g.NumBins())
			require.True(t, g.Pop(frame))

			assert.Equal(t, 64, utils.FindPeakBin(frame, 0, len(frame)-1))
			assert.InDelta(t, 0, frame[64], 0.05)
		})
	}

	t.Run("half scale", func(t *testing.T) {
		g, err := NewFFTDataGenerator(Order2048, BlackmanHarris, 1)
		require.NoError(t, err)

		require.True(t, g.Produce(utils.GenerateSineWave(g.FFTSize(), testSampleRate, 1500, 0.5), testFloor))
		frame := make([]float64, g.NumBins())
		require.True(t, g.Pop(frame))
		assert.InDelta(t, -6.02, frame[64], 0.05)
	})
}

func TestWindowHasUnitMean(t *testing.T) {
	for _, w := range []WindowFunc{BlackmanHarris, BartlettHann, Blackman, BlackmanNuttall, Hann, Hamming, Lanczos, Nuttall} {
		coeffs := make([]float64, 2048)
		applyWindow(coeffs, w)
		assert.InDelta(t, 1, floats.Sum(coeffs)/float64(len(coeffs)), 1e-12, w.String())
	}
}

func TestSilenceSitsAtTheFloor(t *testing.T) {
	g, err := NewFFTDataGenerator(Order4096, Hann, 1)
	require.NoError(t, err)

	require.True(t, g.Produce(make([]float32, g.FFTSize()), testFloor))
	frame := make([]float64, g.NumBins())
	require.True(t, g.Pop(frame))
	for _, v := range frame {
		assert.Equal(t, testFloor, v)
	}
}

func TestFrameQueueKeepsNewest(t *testing.T) {
	g, err := NewFFTDataGenerator(Order2048, BlackmanHarris, 2)
	require.NoError(t, err)

	quiet := utils.GenerateSineWave(g.FFTSize(), testSampleRate, 1000, 0.01)
	loud := utils.GenerateSineWave(g.FFTSize(), testSampleRate, 1000, 1)

	g.Produce(quiet, testFloor)
	g.Produce(quiet, testFloor)
	g.Produce(loud, testFloor)

	assert.Equal(t, 2, g.Available())
	assert.EqualValues(t, 1, g.Dropped())

	first := make([]float64, g.NumBins())
	second := make([]float64, g.NumBins())
	require.True(t, g.Pop(first))
	require.True(t, g.Pop(second))
	assert.False(t, g.Pop(first))

	assert.Greater(t, second[43], first[43]+30)
}

func TestPopShortDestination(t *testing.T) {
	g, err := NewFFTDataGenerator(Order2048, BlackmanHarris, 2)
	require.NoError(t, err)
	g.Produce(make([]float32, g.FFTSize()), testFloor)

	assert.False(t, g.Pop(make([]float64, 10)))
	assert.Equal(t, 1, g.Available())
}

func TestProduceNoAllocs(t *testing.T) {
	g, err := NewFFTDataGenerator(Order2048, BlackmanHarris, 4)
	require.NoError(t, err)
	samples := utils.GenerateSineWave(g.FFTSize(), testSampleRate, 440, 0.5)
	frame := make([]float64, g.NumBins())

	allocs := testing.AllocsPerRun(50, func() {
		g.Produce(samples, testFloor)
		g.Pop(frame)
	})
	assert.Zero(t, allocs)
}

func BenchmarkProduce2048(b *testing.B) {
	g, _ := NewFFTDataGenerator(Order2048, BlackmanHarris, 4)
	samples := utils.GenerateComplexWave(g.FFTSize(), testSampleRate)
	frame := make([]float64, g.NumBins())
	for b.Loop() {
		g.Produce(samples, testFloor)
		g.Pop(frame)
	}
}
