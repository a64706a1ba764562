// SPDX-License-Identifier: MIT

// Package analysis turns blocks of samples into spectrum paths: a rolling
// mono window feeds the FFT data generator, whose dB frames are reduced to
// screen-space paths by the path generator. A PathProducer chains the
// three for one channel.
package analysis

// BlockSource is the consumer side of a per-channel sample FIFO.
type BlockSource interface {
	// Pop copies the oldest complete block into dst and reports how many
	// samples it held. It never blocks.
	Pop(dst []float32) (n int, ok bool)
	// Available returns the number of complete unread blocks.
	Available() int
	// BlockSize is the largest block Pop can return.
	BlockSize() int
}

// SpectrumSource is what the render driver pulls spectrum paths from.
type SpectrumSource interface {
	// Process drains pending audio and advances the path pipeline. It
	// reports whether a new path became available.
	Process(width int, height, sampleRate float64) bool
	// Path appends the latest path to dst[:0].
	Path(dst Path) Path
}
