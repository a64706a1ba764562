// SPDX-License-Identifier: MIT
package filter

import "math"

// Design limits. Frequencies are pulled inside (minDesignFreq, maxDesignRatio*sr)
// so extreme settings near Nyquist still give finite, stable sections.
const (
	minDesignFreq  = 1.0
	maxDesignRatio = 0.49
	minQuality     = 0.025
)

func clampFrequency(freq, sampleRate float64) float64 {
	if math.IsNaN(freq) || freq < minDesignFreq {
		return minDesignFreq
	}
	if limit := maxDesignRatio * sampleRate; freq > limit {
		return limit
	}
	return freq
}

func clampQuality(q float64) float64 {
	if math.IsNaN(q) || q < minQuality {
		return minQuality
	}
	return q
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	inv := 1 / a0
	return Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}

// Peak designs an RBJ peaking (bell) section centred on freq with quality q
// and gainDB of boost or cut.
func Peak(freq, q, gainDB, sampleRate float64) Coefficients {
	freq = clampFrequency(freq, sampleRate)
	q = clampQuality(q)

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalize(
		1+alpha*a, -2*cw, 1-alpha*a,
		1+alpha/a, -2*cw, 1-alpha/a,
	)
}

// Highpass designs an RBJ second-order highpass section.
func Highpass(freq, q, sampleRate float64) Coefficients {
	freq = clampFrequency(freq, sampleRate)
	q = clampQuality(q)

	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalize(
		(1+cw)/2, -(1 + cw), (1+cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Lowpass designs an RBJ second-order lowpass section.
func Lowpass(freq, q, sampleRate float64) Coefficients {
	freq = clampFrequency(freq, sampleRate)
	q = clampQuality(q)

	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalize(
		(1-cw)/2, 1-cw, (1-cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// ButterworthQ returns the quality factor of pole pair index of an
// even-order Butterworth filter.
func ButterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	return 1 / (2 * math.Sin(theta))
}

// ButterworthHighpass designs a highpass Butterworth cascade of the given
// number of second-order sections (order = 2*stages).
func ButterworthHighpass(freq float64, stages int, sampleRate float64) []Coefficients {
	return butterworth(freq, stages, sampleRate, Highpass)
}

// ButterworthLowpass designs a lowpass Butterworth cascade of the given
// number of second-order sections (order = 2*stages).
func ButterworthLowpass(freq float64, stages int, sampleRate float64) []Coefficients {
	return butterworth(freq, stages, sampleRate, Lowpass)
}

func butterworth(freq float64, stages int, sampleRate float64, section func(freq, q, sampleRate float64) Coefficients) []Coefficients {
	if stages <= 0 {
		return nil
	}
	order := 2 * stages
	out := make([]Coefficients, stages)
	for i := range out {
		out[i] = section(freq, ButterworthQ(order, i), sampleRate)
	}
	return out
}
