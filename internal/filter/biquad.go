// SPDX-License-Identifier: MIT

/*
Package filter holds the equalizer's filter chain: biquad coefficients and
their magnitude response, the coefficient design formulas, the parameter
store, and the two chain instances built from it.

The visualisation Chain is owned by the render driver and rebuilt on its
goroutine whenever parameters change. The AudioChain is owned by the audio
callback and receives complete coefficient snapshots through an atomic
pointer. The two never share memory.

Coefficients reaching this package are assumed finite; the design functions
clamp their inputs so that holds.
*/
package filter

import (
	"math"
	"math/cmplx"
)

// Coefficients of one second-order section, normalised so a0 = 1.
//
//	H(z) = (B0 + B1 z^-1 + B2 z^-2) / (1 + A1 z^-1 + A2 z^-2)
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Identity passes the signal through unchanged.
var Identity = Coefficients{B0: 1}

// Response evaluates H(e^jw) at freq for the given sample rate.
func (c Coefficients) Response(freq, sampleRate float64) complex128 {
	w := 2 * math.Pi * freq / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return num / den
}

// Magnitude returns |H(e^jw)| at freq as a linear gain.
func (c Coefficients) Magnitude(freq, sampleRate float64) float64 {
	return cmplx.Abs(c.Response(freq, sampleRate))
}

// State is the Direct Form II Transposed delay line of one section.
type State struct {
	d0, d1 float64
}

// Process filters one sample through c.
func (s *State) Process(c *Coefficients, x float64) float64 {
	y := c.B0*x + s.d0
	s.d0 = c.B1*x - c.A1*y + s.d1
	s.d1 = c.B2*x - c.A2*y
	return y
}

// Reset clears the delay line.
func (s *State) Reset() {
	s.d0, s.d1 = 0, 0
}
