// SPDX-License-Identifier: MIT
package render

import (
	"strconv"

	"eqscope/pkg/decibels"
)

// Axis ranges shared by every drawing collaborator.
const (
	MinFrequency  = 20.0
	MaxFrequency  = 20000.0
	ResponseMinDB = -24.0
	ResponseMaxDB = 24.0
)

var (
	gridFrequencies = []float64{20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000}
	gridGains       = []float64{-24, -12, 0, 12, 24}
)

// GridLine is one labelled line of the background grid.
type GridLine struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"` // x for frequency lines, y for gain lines.
	Label string  `json:"label"`
}

// Grid is the background of the analysis area: vertical frequency lines
// and horizontal gain lines. Gain lines carry two labels, the filter gain
// on the right and the spectrum level (gain - 24 dB) on the left.
type Grid struct {
	Area        Rect       `json:"area"`
	Frequencies []GridLine `json:"frequencies"`
	Gains       []GridLine `json:"gains"`
	Levels      []GridLine `json:"levels"`
}

// NewGrid lays the grid out over area.
func NewGrid(area Rect) Grid {
	g := Grid{Area: area}
	for _, f := range gridFrequencies {
		g.Frequencies = append(g.Frequencies, GridLine{
			Value: f,
			Pos:   area.X + area.Width*decibels.MapFromLog10(f, MinFrequency, MaxFrequency),
			Label: FrequencyLabel(f),
		})
	}
	for _, db := range gridGains {
		y := decibels.Map(db, ResponseMinDB, ResponseMaxDB, area.Bottom(), area.Y)
		g.Gains = append(g.Gains, GridLine{Value: db, Pos: y, Label: GainLabel(db)})
		level := db - ResponseMaxDB
		g.Levels = append(g.Levels, GridLine{Value: level, Pos: y, Label: strconv.FormatFloat(level, 'f', -1, 64)})
	}
	return g
}

// FrequencyLabel renders 20 as "20Hz" and 2000 as "2kHz".
func FrequencyLabel(f float64) string {
	if f > 999 {
		return strconv.FormatFloat(f/1000, 'f', -1, 64) + "kHz"
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "Hz"
}

// GainLabel renders positive gains with an explicit sign.
func GainLabel(db float64) string {
	s := strconv.FormatFloat(db, 'f', -1, 64)
	if db > 0 {
		return "+" + s
	}
	return s
}
