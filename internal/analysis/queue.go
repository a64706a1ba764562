// SPDX-License-Identifier: MIT
package analysis

// queue is a bounded FIFO of slices. Pushing into a full queue overwrites
// the oldest entry. Slots are reused, so steady-state pushes and pops do
// not allocate once every slot has reached its working length.
//
// It is not safe for concurrent use.
type queue[T any] struct {
	slots   [][]T
	head    int
	count   int
	dropped uint64
}

func newQueue[T any](depth, width int) *queue[T] {
	slots := make([][]T, depth)
	for i := range slots {
		slots[i] = make([]T, 0, width)
	}
	return &queue[T]{slots: slots}
}

func (q *queue[T]) push(src []T) {
	var idx int
	if q.count == len(q.slots) {
		idx = q.head
		q.head = (q.head + 1) % len(q.slots)
		q.dropped++
	} else {
		idx = (q.head + q.count) % len(q.slots)
		q.count++
	}
	q.slots[idx] = append(q.slots[idx][:0], src...)
}

// pop appends the oldest entry to dst and removes it.
func (q *queue[T]) pop(dst []T) ([]T, bool) {
	if q.count == 0 {
		return dst, false
	}
	dst = append(dst, q.slots[q.head]...)
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	return dst, true
}

func (q *queue[T]) len() int {
	return q.count
}

func (q *queue[T]) reset() {
	q.head, q.count = 0, 0
}
