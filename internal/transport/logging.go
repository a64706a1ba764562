// SPDX-License-Identifier: MIT
package transport

import (
	"eqscope/internal/render"
)

// LoggingSink writes a one-line summary of every Nth frame at debug level.
type LoggingSink struct {
	every uint64
}

// NewLoggingSink creates a LoggingSink. every < 1 logs every frame.
func NewLoggingSink(every int) *LoggingSink {
	logger.Infof("using logging sink")
	return &LoggingSink{every: uint64(max(every, 1))}
}

// Draw implements render.Sink.
func (s *LoggingSink) Draw(f *render.Frame) error {
	if f.Sequence%s.every != 0 {
		return nil
	}
	points := 0
	for _, p := range f.Spectrum {
		points += len(p)
	}
	logger.Debugf("frame %d: %dx%d, %.0f Hz, analyzer=%t, %d channels, %d spectrum points, %d response points",
		f.Sequence, f.Width, f.Height, f.SampleRate, f.Analyzer, len(f.Spectrum), points, len(f.Response))
	return nil
}

// Close is a no-op for LoggingSink.
func (s *LoggingSink) Close() error {
	logger.Debugf("logging sink closed")
	return nil
}

// Ensure LoggingSink satisfies the interface at compile time.
var _ Sink = (*LoggingSink)(nil)
