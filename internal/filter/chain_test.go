// SPDX-License-Identifier: MIT
package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlopeStages(t *testing.T) {
	tests := []struct {
		slope  Slope
		stages int
		db     int
	}{
		{Slope12, 1, 12},
		{Slope24, 2, 24},
		{Slope36, 3, 36},
		{Slope48, 4, 48},
		{Slope(-3), 1, 12},
		{Slope(9), 4, 48},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.stages, tt.slope.Stages())
		assert.Equal(t, tt.db, tt.slope.DBPerOctave())
	}

	assert.Equal(t, Slope24, Slope12.Next())
	assert.Equal(t, Slope12, Slope48.Next())
	assert.Equal(t, "36 dB/Oct", Slope36.String())
}

func TestSlopeFromDBPerOctave(t *testing.T) {
	s, err := SlopeFromDBPerOctave(36)
	require.NoError(t, err)
	assert.Equal(t, Slope36, s)

	for _, bad := range []int{0, 6, 18, 60, -12} {
		_, err := SlopeFromDBPerOctave(bad)
		assert.Error(t, err, "%d", bad)
	}
}

func TestChainSettingsClamped(t *testing.T) {
	s := ChainSettings{
		PeakFreq:     5,
		PeakGainDB:   100,
		PeakQuality:  0,
		LowCutFreq:   50000,
		HighCutFreq:  -1,
		LowCutSlope:  Slope(12),
		HighCutSlope: Slope(-1),
	}.Clamped()

	assert.Equal(t, MinFrequency, s.PeakFreq)
	assert.Equal(t, MaxGainDB, s.PeakGainDB)
	assert.Equal(t, MinQuality, s.PeakQuality)
	assert.Equal(t, MaxFrequency, s.LowCutFreq)
	assert.Equal(t, MinFrequency, s.HighCutFreq)
	assert.Equal(t, Slope48, s.LowCutSlope)
	assert.Equal(t, Slope12, s.HighCutSlope)
}

func TestDefaultChainIsNearlyFlatInBand(t *testing.T) {
	c := NewChain(DefaultChainSettings(), testSampleRate)
	for _, f := range []float64{200, 750, 1000, 5000} {
		assert.InDelta(t, 0, c.MagnitudeDB(f, testSampleRate), 0.1, "freq %v", f)
	}
}

func TestLowCutSlopeIsMonotonic(t *testing.T) {
	settings := DefaultChainSettings()
	settings.LowCutFreq = 100
	settings.PeakBypassed = true
	settings.HighCutBypassed = true

	prev := 0.0
	for _, slope := range []Slope{Slope12, Slope24, Slope36, Slope48} {
		settings.LowCutSlope = slope
		c := NewChain(settings, testSampleRate)
		db := c.MagnitudeDB(50, testSampleRate)
		assert.Less(t, db, prev, "slope %v", slope)
		prev = db
	}
}

func TestLowCut48AtHalfCutoff(t *testing.T) {
	settings := DefaultChainSettings()
	settings.LowCutFreq = 100
	settings.LowCutSlope = Slope48

	c := NewChain(settings, testSampleRate)
	assert.InDelta(t, -48, c.MagnitudeDB(50, testSampleRate), 3)
	assert.Equal(t, 4, c.LowCut.Active)
}

func TestHighCutAttenuatesAboveCutoff(t *testing.T) {
	settings := DefaultChainSettings()
	settings.HighCutFreq = 2000
	settings.HighCutSlope = Slope24

	c := NewChain(settings, testSampleRate)
	assert.InDelta(t, -3.01, c.MagnitudeDB(2000, testSampleRate), 0.1)
	assert.InDelta(t, -24, c.MagnitudeDB(4000, testSampleRate), 2)
}

func TestBypassedChainIsIdentity(t *testing.T) {
	settings := DefaultChainSettings()
	settings.LowCutFreq = 500
	settings.HighCutFreq = 2000
	settings.PeakGainDB = 12
	settings.LowCutBypassed = true
	settings.PeakBypassed = true
	settings.HighCutBypassed = true

	c := NewChain(settings, testSampleRate)
	for _, f := range []float64{20, 100, 1000, 10000, 20000} {
		assert.InDelta(t, 1.0, c.Magnitude(f, testSampleRate), 1e-12)
	}
}

func TestBypassingABandOmitsIt(t *testing.T) {
	settings := DefaultChainSettings()
	settings.LowCutFreq = 500
	settings.LowCutSlope = Slope36
	settings.HighCutFreq = 2000
	settings.HighCutSlope = Slope24
	settings.PeakFreq = 1000
	settings.PeakGainDB = 12
	settings.PeakQuality = 2

	full := NewChain(settings, testSampleRate)
	low := func(f float64) float64 { return full.LowCut.Magnitude(f, testSampleRate) }
	peak := func(f float64) float64 { return full.Peak.Coefficients.Magnitude(f, testSampleRate) }
	high := func(f float64) float64 { return full.HighCut.Magnitude(f, testSampleRate) }

	tests := []struct {
		name   string
		bypass func(*ChainSettings)
		want   func(f float64) float64
	}{
		{
			name:   "low cut",
			bypass: func(s *ChainSettings) { s.LowCutBypassed = true },
			want:   func(f float64) float64 { return peak(f) * high(f) },
		},
		{
			name:   "peak",
			bypass: func(s *ChainSettings) { s.PeakBypassed = true },
			want:   func(f float64) float64 { return low(f) * high(f) },
		},
		{
			name:   "high cut",
			bypass: func(s *ChainSettings) { s.HighCutBypassed = true },
			want:   func(f float64) float64 { return low(f) * peak(f) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings
			tt.bypass(&s)
			c := NewChain(s, testSampleRate)
			for _, f := range []float64{20, 100, 250, 500, 1000, 2000, 4000, 10000, 20000} {
				assert.InEpsilon(t, tt.want(f), c.Magnitude(f, testSampleRate), 1e-12, "%.0f Hz", f)
			}
		})
	}
}

func TestCutGroupSkipsInactiveStages(t *testing.T) {
	settings := DefaultChainSettings()
	settings.LowCutFreq = 100
	settings.LowCutSlope = Slope12
	c := NewChain(settings, testSampleRate)

	require.Equal(t, 1, c.LowCut.Active)
	for i := 1; i < MaxCutStages; i++ {
		assert.True(t, c.LowCut.Stages[i].Bypassed)
	}

	// Garbage in an unused slot must not leak into the response.
	before := c.LowCut.Magnitude(50, testSampleRate)
	c.LowCut.Stages[2] = Stage{Coefficients: Coefficients{B0: 100}}
	assert.Equal(t, before, c.LowCut.Magnitude(50, testSampleRate))
}

func TestPeakBoostShowsInChain(t *testing.T) {
	settings := DefaultChainSettings()
	settings.PeakFreq = 1000
	settings.PeakGainDB = 9

	c := NewChain(settings, testSampleRate)
	assert.InDelta(t, 9, c.MagnitudeDB(1000, testSampleRate), 0.05)
}

func TestResponseCurve(t *testing.T) {
	settings := DefaultChainSettings()
	settings.PeakFreq = 1000
	settings.PeakGainDB = 12
	settings.PeakQuality = 2

	c := NewChain(settings, testSampleRate)
	curve := make([]float64, 600)
	c.ResponseCurve(curve, 20, 20000, testSampleRate)

	// The bell sits at the log-midpoint of 20..20000, which is ~632 Hz, so
	// the maximum is right of the middle.
	peak := 0
	for i := range curve {
		if curve[i] > curve[peak] {
			peak = i
		}
	}
	assert.Greater(t, peak, len(curve)/2)
	assert.InDelta(t, 12, curve[peak], 0.5)
}

func BenchmarkChainMagnitude(b *testing.B) {
	c := NewChain(DefaultChainSettings(), testSampleRate)
	for b.Loop() {
		_ = c.MagnitudeDB(1000, testSampleRate)
	}
}
