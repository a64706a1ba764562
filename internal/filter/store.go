// SPDX-License-Identifier: MIT
package filter

import (
	"sync"
	"sync/atomic"
)

// ChangeFlag is a coalescing dirty marker. Any number of Mark calls between
// two Consume calls produce a single true.
type ChangeFlag struct {
	dirty atomic.Bool
}

// Mark records that something changed.
func (f *ChangeFlag) Mark() {
	f.dirty.Store(true)
}

// Consume atomically clears the flag and reports whether it was set.
func (f *ChangeFlag) Consume() bool {
	return f.dirty.CompareAndSwap(true, false)
}

// Store is the parameter store the chains read from. Readers always get
// the latest complete ChainSettings; writers go through Update so
// concurrent edits from the TUI and the CLI do not lose each other.
type Store struct {
	current  atomic.Pointer[ChainSettings]
	analyzer atomic.Bool

	mu        sync.Mutex // Serialises writers and guards listeners.
	listeners map[int]func()
	nextID    int
}

// NewStore creates a Store holding initial, with the analyzer enabled.
func NewStore(initial ChainSettings) *Store {
	s := &Store{listeners: make(map[int]func())}
	initial = initial.Clamped()
	s.current.Store(&initial)
	s.analyzer.Store(true)
	return s
}

// Settings returns a copy of the current parameters.
func (s *Store) Settings() ChainSettings {
	return *s.current.Load()
}

// Set replaces all parameters.
func (s *Store) Set(settings ChainSettings) {
	s.Update(func(cs *ChainSettings) { *cs = settings })
}

// Update applies fn to a copy of the current parameters, publishes the
// result and notifies listeners. Listeners run on the caller's goroutine.
func (s *Store) Update(fn func(*ChainSettings)) {
	s.mu.Lock()
	next := *s.current.Load()
	fn(&next)
	next = next.Clamped()
	s.current.Store(&next)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

// AnalyzerEnabled reports whether spectrum analysis should run.
func (s *Store) AnalyzerEnabled() bool {
	return s.analyzer.Load()
}

// SetAnalyzerEnabled toggles spectrum analysis. It does not notify
// listeners; the render driver reads the flag every tick.
func (s *Store) SetAnalyzerEnabled(enabled bool) {
	s.analyzer.Store(enabled)
}

// Subscribe registers fn to be called after every parameter change and
// returns a function that removes it.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SubscribeFlag marks flag on every parameter change.
func (s *Store) SubscribeFlag(flag *ChangeFlag) (unsubscribe func()) {
	return s.Subscribe(flag.Mark)
}

func (s *Store) snapshotListeners() []func() {
	out := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}
