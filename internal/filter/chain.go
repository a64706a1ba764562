// SPDX-License-Identifier: MIT
package filter

import (
	"eqscope/pkg/decibels"
)

// Stage is one biquad in the chain.
type Stage struct {
	Coefficients Coefficients
	Bypassed     bool
}

// CutGroup is a cascade of up to MaxCutStages sections. Only the first
// Active sections take part in processing or magnitude evaluation.
type CutGroup struct {
	Stages   [MaxCutStages]Stage
	Active   int
	Bypassed bool
}

// set installs the designed sections and bypasses the rest individually.
func (g *CutGroup) set(coeffs []Coefficients) {
	g.Active = min(len(coeffs), MaxCutStages)
	for i := range g.Stages {
		if i < g.Active {
			g.Stages[i] = Stage{Coefficients: coeffs[i]}
			continue
		}
		g.Stages[i] = Stage{Coefficients: Identity, Bypassed: true}
	}
}

// Magnitude returns the group's linear gain at freq. Sections past Active
// are never evaluated.
func (g *CutGroup) Magnitude(freq, sampleRate float64) float64 {
	if g.Bypassed {
		return 1
	}
	mag := 1.0
	for i := 0; i < g.Active; i++ {
		if g.Stages[i].Bypassed {
			continue
		}
		mag *= g.Stages[i].Coefficients.Magnitude(freq, sampleRate)
	}
	return mag
}

// Chain is LowCut -> Peak -> HighCut. It carries coefficients only, no
// processing state, so it can be copied freely.
type Chain struct {
	LowCut  CutGroup
	Peak    Stage
	HighCut CutGroup

	SampleRate float64
}

// NewChain designs a chain for settings at sampleRate.
func NewChain(settings ChainSettings, sampleRate float64) Chain {
	var c Chain
	c.Update(settings, sampleRate)
	return c
}

// Update regenerates every stage from settings.
func (c *Chain) Update(settings ChainSettings, sampleRate float64) {
	settings = settings.Clamped()
	c.SampleRate = sampleRate

	c.Peak = Stage{
		Coefficients: Peak(settings.PeakFreq, settings.PeakQuality, settings.PeakGainDB, sampleRate),
		Bypassed:     settings.PeakBypassed,
	}

	c.LowCut.set(ButterworthHighpass(settings.LowCutFreq, settings.LowCutSlope.Stages(), sampleRate))
	c.LowCut.Bypassed = settings.LowCutBypassed

	c.HighCut.set(ButterworthLowpass(settings.HighCutFreq, settings.HighCutSlope.Stages(), sampleRate))
	c.HighCut.Bypassed = settings.HighCutBypassed
}

// Magnitude returns the combined linear gain of all non-bypassed stages.
func (c *Chain) Magnitude(freq, sampleRate float64) float64 {
	mag := c.LowCut.Magnitude(freq, sampleRate)
	if !c.Peak.Bypassed {
		mag *= c.Peak.Coefficients.Magnitude(freq, sampleRate)
	}
	return mag * c.HighCut.Magnitude(freq, sampleRate)
}

// MagnitudeDB returns the combined response in dB, floored at
// decibels.DefaultMinusInfinity.
func (c *Chain) MagnitudeDB(freq, sampleRate float64) float64 {
	return decibels.GainToDecibels(c.Magnitude(freq, sampleRate), decibels.DefaultMinusInfinity)
}

// ResponseCurve fills dst with the response in dB at len(dst) frequencies
// spaced logarithmically from minHz (dst[0]) towards maxHz.
func (c *Chain) ResponseCurve(dst []float64, minHz, maxHz, sampleRate float64) {
	width := float64(len(dst))
	for i := range dst {
		freq := decibels.MapToLog10(float64(i)/width, minHz, maxHz)
		dst[i] = c.MagnitudeDB(freq, sampleRate)
	}
}
