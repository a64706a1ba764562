// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"eqscope/pkg/decibels"
)

// Point is a position in the analysis area, origin top left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is one curve, one point per display column.
type Path []Point

// Clone returns a copy of p that shares no memory with it.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

// PathConfig controls how a frame is laid out on screen.
type PathConfig struct {
	MinFreq float64 // Left edge, Hz.
	MaxFreq float64 // Right edge, Hz.
	MinDB   float64 // Bottom edge.
	MaxDB   float64 // Top edge.

	// Decay is the fraction of the gap between the held value and a
	// quieter new value that survives one frame. 0 disables smoothing.
	Decay float64
}

// DefaultPathConfig returns the 20 Hz to 20 kHz, -48 to 0 dB layout.
func DefaultPathConfig() PathConfig {
	return PathConfig{
		MinFreq: 20,
		MaxFreq: 20000,
		MinDB:   -48,
		MaxDB:   0,
		Decay:   0.8,
	}
}

// Validate reports the first inconsistent field.
func (c PathConfig) Validate() error {
	switch {
	case c.MinFreq <= 0 || c.MaxFreq <= c.MinFreq:
		return fmt.Errorf("frequency range must satisfy 0 < min < max, got %g..%g", c.MinFreq, c.MaxFreq)
	case c.MaxDB <= c.MinDB:
		return fmt.Errorf("dB range must satisfy min < max, got %g..%g", c.MinDB, c.MaxDB)
	case c.Decay < 0 || c.Decay >= 1:
		return fmt.Errorf("decay must be in [0, 1), got %g", c.Decay)
	}
	return nil
}

// PathGenerator reduces FFT frames to paths on a logarithmic frequency
// axis. Each column takes the loudest bin it covers and is smoothed against
// the previous frame: louder values are taken immediately, quieter ones
// are approached geometrically.
//
// It is not safe for concurrent use.
type PathGenerator struct {
	cfg   PathConfig
	held  []float64 // Smoothed dB per column.
	path  Path
	paths *queue[Point]
}

// NewPathGenerator creates a generator keeping at most queueDepth paths.
func NewPathGenerator(queueDepth int, cfg PathConfig) (*PathGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if queueDepth < 1 {
		return nil, fmt.Errorf("path queue depth must be positive, got %d", queueDepth)
	}
	return &PathGenerator{
		cfg:   cfg,
		paths: newQueue[Point](queueDepth, 0),
	}, nil
}

// Config returns the layout in use.
func (g *PathGenerator) Config() PathConfig {
	return g.cfg
}

// Generate converts frame into a path width columns wide and height tall
// and queues it. binWidth is sampleRate/fftSize. A width change restarts
// smoothing.
func (g *PathGenerator) Generate(frame []float64, width int, height, binWidth float64) {
	if width <= 0 || len(frame) == 0 || binWidth <= 0 {
		return
	}
	if len(g.held) != width {
		g.held = g.held[:0]
		for range width {
			g.held = append(g.held, math.Inf(-1))
		}
	}

	g.path = g.path[:0]
	w := float64(width)
	for col := range width {
		v := g.columnValue(frame, col, w, binWidth)

		held := g.held[col]
		if v < held {
			v += (held - v) * g.cfg.Decay
		}
		g.held[col] = v

		g.path = append(g.path, Point{X: float64(col), Y: g.mapY(v, height)})
	}
	g.paths.push(g.path)
}

// columnValue returns the loudest bin whose centre lies in the column's
// frequency span, or the interpolated magnitude at the column's centre
// when no bin centre does.
func (g *PathGenerator) columnValue(frame []float64, col int, width, binWidth float64) float64 {
	lo := decibels.MapToLog10(float64(col)/width, g.cfg.MinFreq, g.cfg.MaxFreq) / binWidth
	hi := decibels.MapToLog10(float64(col+1)/width, g.cfg.MinFreq, g.cfg.MaxFreq) / binWidth

	last := len(frame) - 1
	first := int(math.Ceil(lo))
	end := min(int(math.Ceil(hi))-1, last)
	if first <= end {
		v := frame[first]
		for _, m := range frame[first+1 : end+1] {
			v = math.Max(v, m)
		}
		return v
	}

	centre := decibels.MapToLog10((float64(col)+0.5)/width, g.cfg.MinFreq, g.cfg.MaxFreq) / binWidth
	i := int(centre)
	if i >= last {
		return frame[last]
	}
	frac := centre - float64(i)
	return frame[i] + (frame[i+1]-frame[i])*frac
}

// mapY maps dB onto [height, 0] and clamps.
func (g *PathGenerator) mapY(db, height float64) float64 {
	y := decibels.Map(db, g.cfg.MinDB, g.cfg.MaxDB, height, 0)
	if math.IsNaN(y) {
		return height
	}
	return math.Min(math.Max(y, 0), height)
}

// Available returns the number of queued paths.
func (g *PathGenerator) Available() int {
	return g.paths.len()
}

// Pop removes the oldest queued path and appends it to dst[:0].
func (g *PathGenerator) Pop(dst Path) (Path, bool) {
	return g.paths.pop(dst[:0])
}

// Reset forgets queued paths and smoothing history.
func (g *PathGenerator) Reset() {
	g.paths.reset()
	g.held = g.held[:0]
}
