// SPDX-License-Identifier: MIT
package filter

import (
	"fmt"
	"math"
)

// Slope is the steepness of a cut filter. Each step adds one cascaded
// Butterworth section, i.e. 12 dB/octave.
type Slope int

const (
	Slope12 Slope = iota
	Slope24
	Slope36
	Slope48
)

// MaxCutStages is the number of sections each cut group owns.
const MaxCutStages = 4

// Stages returns the number of active second-order sections.
func (s Slope) Stages() int {
	return int(s.Clamp()) + 1
}

// DBPerOctave returns the nominal attenuation rate.
func (s Slope) DBPerOctave() int {
	return 12 * s.Stages()
}

// Clamp pulls out-of-range values back to the nearest valid slope.
func (s Slope) Clamp() Slope {
	switch {
	case s < Slope12:
		return Slope12
	case s > Slope48:
		return Slope48
	}
	return s
}

// Next cycles 12 -> 24 -> 36 -> 48 -> 12.
func (s Slope) Next() Slope {
	return (s.Clamp() + 1) % (Slope48 + 1)
}

func (s Slope) String() string {
	return fmt.Sprintf("%d dB/Oct", s.DBPerOctave())
}

// SlopeFromDBPerOctave maps 12/24/36/48 onto a Slope.
func SlopeFromDBPerOctave(db int) (Slope, error) {
	if db <= 0 || db%12 != 0 || db > 48 {
		return Slope12, fmt.Errorf("slope must be one of 12, 24, 36 or 48 dB/oct, got %d", db)
	}
	return Slope(db/12 - 1), nil
}

// Parameter ranges exposed to the user.
const (
	MinFrequency = 20.0
	MaxFrequency = 20000.0
	MinGainDB    = -24.0
	MaxGainDB    = 24.0
	MinQuality   = 0.1
	MaxQuality   = 10.0
)

// ChainSettings are the user-facing equalizer parameters.
type ChainSettings struct {
	PeakFreq    float64 `json:"peak_freq"`
	PeakGainDB  float64 `json:"peak_gain_db"`
	PeakQuality float64 `json:"peak_quality"`

	LowCutFreq  float64 `json:"low_cut_freq"`
	HighCutFreq float64 `json:"high_cut_freq"`

	LowCutSlope  Slope `json:"low_cut_slope"`
	HighCutSlope Slope `json:"high_cut_slope"`

	LowCutBypassed  bool `json:"low_cut_bypassed"`
	PeakBypassed    bool `json:"peak_bypassed"`
	HighCutBypassed bool `json:"high_cut_bypassed"`
}

// DefaultChainSettings returns a flat chain: cuts at the edges of the
// audible range, a 0 dB bell at 750 Hz.
func DefaultChainSettings() ChainSettings {
	return ChainSettings{
		PeakFreq:     750,
		PeakGainDB:   0,
		PeakQuality:  1,
		LowCutFreq:   MinFrequency,
		HighCutFreq:  MaxFrequency,
		LowCutSlope:  Slope12,
		HighCutSlope: Slope12,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Clamped returns a copy with every parameter inside its range.
func (s ChainSettings) Clamped() ChainSettings {
	s.PeakFreq = clamp(s.PeakFreq, MinFrequency, MaxFrequency)
	s.PeakGainDB = clamp(s.PeakGainDB, MinGainDB, MaxGainDB)
	s.PeakQuality = clamp(s.PeakQuality, MinQuality, MaxQuality)
	s.LowCutFreq = clamp(s.LowCutFreq, MinFrequency, MaxFrequency)
	s.HighCutFreq = clamp(s.HighCutFreq, MinFrequency, MaxFrequency)
	s.LowCutSlope = s.LowCutSlope.Clamp()
	s.HighCutSlope = s.HighCutSlope.Clamp()
	return s
}
