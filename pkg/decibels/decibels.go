// SPDX-License-Identifier: MIT

// Package decibels holds the one dB convention shared by the spectrum
// analyzer and the filter response: 20*log10 of a linear amplitude, clamped
// at a caller-chosen floor so both curves live on the same axis.
package decibels

import "math"

// DefaultMinusInfinity is the floor used when no other is given.
const DefaultMinusInfinity = -100.0

// GainToDecibels converts a linear amplitude to dB. Gains at or below the
// floor's linear equivalent (including zero and negatives) return
// minusInfinity.
func GainToDecibels(gain, minusInfinity float64) float64 {
	if gain <= 0 {
		return minusInfinity
	}
	db := 20 * math.Log10(gain)
	if db < minusInfinity || math.IsNaN(db) {
		return minusInfinity
	}
	return db
}

// DecibelsToGain converts dB to a linear amplitude. Values at or below
// minusInfinity map to zero.
func DecibelsToGain(db, minusInfinity float64) float64 {
	if db <= minusInfinity {
		return 0
	}
	return math.Pow(10, db/20)
}

// Map linearly maps v from [inMin, inMax] to [outMin, outMax] without
// clamping.
func Map(v, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// MapToLog10 maps a normalised position in [0, 1] onto [min, max] on a
// logarithmic scale. Both bounds must be positive.
func MapToLog10(pos, min, max float64) float64 {
	return min * math.Pow(max/min, pos)
}

// MapFromLog10 is the inverse of MapToLog10.
func MapFromLog10(v, min, max float64) float64 {
	return math.Log(v/min) / math.Log(max/min)
}
