// SPDX-License-Identifier: MIT
package fifo

import (
	"sync"
	"testing"
	"time"
)

const testBlockSize = 64

func block(value float32, n int) []float32 {
	b := make([]float32, n)
	for i := range b {
		b[i] = value
	}
	return b
}

func TestNewRoundsCapacity(t *testing.T) {
	tests := []struct {
		requested int
		expected  int
	}{
		{0, 1},
		{1, 1},
		{3, 4},
		{30, 32},
		{32, 32},
	}

	for _, tt := range tests {
		f := New(tt.requested, testBlockSize)
		if f.Capacity() != tt.expected {
			t.Errorf("New(%d).Capacity() = %d, want %d", tt.requested, f.Capacity(), tt.expected)
		}
		if f.BlockSize() != testBlockSize {
			t.Errorf("BlockSize() = %d, want %d", f.BlockSize(), testBlockSize)
		}
	}
}

func TestPopEmpty(t *testing.T) {
	f := New(4, testBlockSize)
	dst := make([]float32, testBlockSize)

	n, ok := f.Pop(dst)
	if ok || n != 0 {
		t.Errorf("Pop on empty FIFO = (%d, %v), want (0, false)", n, ok)
	}
	if f.Available() != 0 {
		t.Errorf("Available() = %d, want 0", f.Available())
	}
}

func TestOrderingWithinCapacity(t *testing.T) {
	f := New(8, testBlockSize)
	dst := make([]float32, testBlockSize)

	for i := range 8 {
		if !f.Push(block(float32(i), testBlockSize)) {
			t.Fatalf("Push(%d) reported truncation", i)
		}
	}
	if f.Available() != 8 {
		t.Fatalf("Available() = %d, want 8", f.Available())
	}

	for i := range 8 {
		n, ok := f.Pop(dst)
		if !ok || n != testBlockSize {
			t.Fatalf("Pop %d = (%d, %v), want (%d, true)", i, n, ok, testBlockSize)
		}
		if dst[0] != float32(i) || dst[n-1] != float32(i) {
			t.Errorf("Pop %d returned block %v, want %d", i, dst[0], i)
		}
	}
	if _, ok := f.Pop(dst); ok {
		t.Error("Pop after draining returned a block")
	}
	if f.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", f.Dropped())
	}
}

func TestOverflowOverwritesOldest(t *testing.T) {
	f := New(4, testBlockSize)
	dst := make([]float32, testBlockSize)

	for i := range 10 {
		f.Push(block(float32(i), testBlockSize))
	}

	if f.Available() != 4 {
		t.Fatalf("Available() = %d, want 4", f.Available())
	}
	if f.Dropped() != 6 {
		t.Errorf("Dropped() = %d, want 6", f.Dropped())
	}

	for want := 6; want < 10; want++ {
		_, ok := f.Pop(dst)
		if !ok {
			t.Fatalf("Pop for block %d failed", want)
		}
		if dst[0] != float32(want) {
			t.Errorf("got block %v, want %d", dst[0], want)
		}
	}
}

func TestPushTruncatesLongBlocks(t *testing.T) {
	f := New(2, 8)
	if f.Push(block(1, 12)) {
		t.Error("Push of oversized block reported success")
	}

	dst := make([]float32, 16)
	n, ok := f.Pop(dst)
	if !ok || n != 8 {
		t.Errorf("Pop = (%d, %v), want (8, true)", n, ok)
	}
}

func TestPopShortDestination(t *testing.T) {
	f := New(2, 8)
	f.Push(block(3, 8))

	dst := make([]float32, 5)
	n, ok := f.Pop(dst)
	if !ok || n != 5 {
		t.Errorf("Pop = (%d, %v), want (5, true)", n, ok)
	}
}

func TestPushPopZeroAllocs(t *testing.T) {
	f := New(4, testBlockSize)
	src := block(0.5, testBlockSize)
	dst := make([]float32, testBlockSize)

	allocs := testing.AllocsPerRun(100, func() {
		f.Push(src)
		f.Push(src)
		f.Pop(dst)
		f.Pop(dst)
		f.Pop(dst) // empty
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Push/Pop, got %.1f", allocs)
	}

	// Full FIFO: every push overwrites.
	for range 8 {
		f.Push(src)
	}
	allocs = testing.AllocsPerRun(100, func() {
		f.Push(src)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in overwriting Push, got %.1f", allocs)
	}
}

// TestConcurrentSequenceIsMonotonic fills each block with its sequence
// number. Whatever interleaving happens, the consumer must see strictly
// increasing, untorn blocks.
func TestConcurrentSequenceIsMonotonic(t *testing.T) {
	const total = 20000
	f := New(8, testBlockSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src := make([]float32, testBlockSize)
		for i := 1; i <= total; i++ {
			for j := range src {
				src[j] = float32(i)
			}
			f.Push(src)
			if i%64 == 0 {
				time.Sleep(time.Microsecond)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	dst := make([]float32, testBlockSize)
	last := float32(0)
	received := 0
	maxCall := time.Duration(0)
consume:
	for {
		start := time.Now()
		n, ok := f.Pop(dst)
		if d := time.Since(start); d > maxCall {
			maxCall = d
		}
		if !ok {
			select {
			case <-done:
				if f.Available() == 0 {
					break consume
				}
			default:
			}
			continue
		}
		first := dst[0]
		for i := 1; i < n; i++ {
			if dst[i] != first {
				t.Fatalf("torn block: sample %d = %v, first = %v", i, dst[i], first)
			}
		}
		if first <= last {
			t.Fatalf("block %v received after %v", first, last)
		}
		last = first
		received++
	}

	if received == 0 {
		t.Fatal("consumer received nothing")
	}
	if last != total {
		t.Errorf("last block = %v, want %d", last, total)
	}
	if maxCall > 50*time.Millisecond {
		t.Errorf("Pop took %s, expected bounded call time", maxCall)
	}
	t.Logf("received %d of %d blocks, dropped %d", received, total, f.Dropped())
}

func BenchmarkPush(b *testing.B) {
	f := New(32, 512)
	src := block(0.25, 512)

	b.ReportAllocs()
	for b.Loop() {
		f.Push(src)
	}
}

func BenchmarkPushPop(b *testing.B) {
	f := New(32, 512)
	src := block(0.25, 512)
	dst := make([]float32, 512)

	b.ReportAllocs()
	for b.Loop() {
		f.Push(src)
		f.Pop(dst)
	}
}
