// SPDX-License-Identifier: MIT
package render

import (
	"errors"
	"time"

	"eqscope/internal/analysis"
	"eqscope/internal/filter"
)

// Frame is everything a drawing collaborator needs for one redraw. Paths
// are in analysis area coordinates; add Area.X and Area.Y to place them in
// the component.
//
// The driver reuses a Frame between ticks. A Sink that keeps one past
// Draw must Clone it.
type Frame struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`

	Width  int  `json:"width"` // Component size.
	Height int  `json:"height"`
	Area   Rect `json:"area"`

	SampleRate float64 `json:"sample_rate"`
	Analyzer   bool    `json:"analyzer"`

	// Spectrum holds one path per channel; empty while the analyzer is
	// off or has not filled its first window.
	Spectrum []analysis.Path `json:"spectrum"`

	// Response is the filter chain's magnitude mapped onto the area over
	// [ResponseMinDB, ResponseMaxDB]; ResponseDB holds the raw values.
	Response   analysis.Path `json:"response"`
	ResponseDB []float64     `json:"response_db"`

	Settings filter.ChainSettings `json:"settings"`
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Spectrum = make([]analysis.Path, len(f.Spectrum))
	for i, p := range f.Spectrum {
		c.Spectrum[i] = p.Clone()
	}
	c.Response = f.Response.Clone()
	c.ResponseDB = append([]float64(nil), f.ResponseDB...)
	return &c
}

// Sink is the drawing collaborator. Draw is called on the driver's
// goroutine once per tick and should return quickly.
type Sink interface {
	Draw(f *Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *Frame) error

// Draw implements Sink.
func (fn SinkFunc) Draw(f *Frame) error { return fn(f) }

// MultiSink hands every frame to each sink in order and joins their errors.
type MultiSink []Sink

// Draw implements Sink.
func (m MultiSink) Draw(f *Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Draw(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
