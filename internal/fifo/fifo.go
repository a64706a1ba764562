// SPDX-License-Identifier: MIT

/*
Package fifo implements the single-producer/single-consumer block FIFO that
carries audio from the real-time callback to the analysis thread.

Thread Safety:
  - Exactly one goroutine may call Push (the audio callback) and exactly one
    may call Pop (the render driver). Available, Capacity and Dropped are safe
    from anywhere.
  - Push and Pop never lock, allocate or wait.

Overflow policy: overwrite-oldest. When the FIFO is full, Push advances the
read index itself before reusing the oldest slot, so the consumer always sees
the most recent audio. A Pop that raced with such an overwrite notices the
moved read index, discards what it copied and tries the next block.

Samples are stored as float32 bit patterns in atomic words. A torn copy is
therefore possible (and discarded) but never a data race.
*/
package fifo

import (
	"math"
	"sync/atomic"

	"eqscope/pkg/bitint"
)

// maxPopAttempts bounds the retry loop in Pop. A retry only happens when
// the producer lapped the reader mid-copy, which takes a full block period.
const maxPopAttempts = 4

type slot struct {
	n       atomic.Uint32
	samples []atomic.Uint32
}

// FIFO is a fixed-capacity ring of audio blocks.
type FIFO struct {
	slots     []slot
	mask      uint64
	blockSize int

	_       [8]uint64
	write   atomic.Uint64 // Next block index the producer writes.
	_       [8]uint64
	read    atomic.Uint64 // Next block index the consumer reads.
	_       [8]uint64
	dropped atomic.Uint64 // Blocks lost to overwrite.
}

// New creates a FIFO holding at least capacity blocks of up to blockSize
// samples each. Capacity is rounded up to a power of two; all storage is
// allocated here and never again.
func New(capacity, blockSize int) *FIFO {
	if capacity < 1 {
		capacity = 1
	}
	if blockSize < 1 {
		blockSize = 1
	}
	capacity = bitint.NextPowerOfTwo(capacity)

	f := &FIFO{
		slots:     make([]slot, capacity),
		mask:      uint64(capacity - 1),
		blockSize: blockSize,
	}
	for i := range f.slots {
		f.slots[i].samples = make([]atomic.Uint32, blockSize)
	}
	return f
}

// Push copies one block into the FIFO. It must only be called from the
// producer goroutine. Blocks longer than BlockSize are truncated and Push
// reports false; the truncated block is still queued.
func (f *FIFO) Push(samples []float32) bool {
	n := len(samples)
	ok := true
	if n > f.blockSize {
		n = f.blockSize
		ok = false
	}

	w := f.write.Load()
	r := f.read.Load()
	if w-r > f.mask {
		// Full. Reclaim the oldest slot; if the CAS fails the consumer has
		// just freed it for us.
		if f.read.CompareAndSwap(r, r+1) {
			f.dropped.Add(1)
		}
	}

	s := &f.slots[w&f.mask]
	for i := 0; i < n; i++ {
		s.samples[i].Store(math.Float32bits(samples[i]))
	}
	s.n.Store(uint32(n))
	f.write.Store(w + 1)

	return ok
}

// Pop copies the oldest complete block into dst and returns the number of
// samples written. ok is false when no block is available. It must only be
// called from the consumer goroutine. If dst is shorter than the block the
// tail is discarded.
func (f *FIFO) Pop(dst []float32) (n int, ok bool) {
	for range maxPopAttempts {
		r := f.read.Load()
		if r == f.write.Load() {
			return 0, false
		}

		s := &f.slots[r&f.mask]
		n = int(s.n.Load())
		if n > len(dst) {
			n = len(dst)
		}
		for i := 0; i < n; i++ {
			dst[i] = math.Float32frombits(s.samples[i].Load())
		}

		if f.read.CompareAndSwap(r, r+1) {
			return n, true
		}
		// The producer overwrote slot r while we copied it. Try again
		// with whatever is oldest now.
	}
	return 0, false
}

// Available returns the number of complete unread blocks.
func (f *FIFO) Available() int {
	r := f.read.Load()
	w := f.write.Load()
	if w <= r {
		return 0
	}
	if d := w - r; d <= f.mask+1 {
		return int(d)
	}
	return f.Capacity()
}

// Capacity returns the number of blocks the FIFO can hold.
func (f *FIFO) Capacity() int {
	return len(f.slots)
}

// BlockSize returns the maximum number of samples per block.
func (f *FIFO) BlockSize() int {
	return f.blockSize
}

// Dropped returns how many blocks have been overwritten before being read.
func (f *FIFO) Dropped() uint64 {
	return f.dropped.Load()
}
