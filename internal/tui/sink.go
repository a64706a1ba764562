// SPDX-License-Identifier: MIT
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"eqscope/internal/render"
)

type frameMsg struct {
	frame *render.Frame
}

// Sink hands frames from the render driver to the Bubble Tea program.
// Only the newest frame is kept; the UI never holds up the driver.
type Sink struct {
	frames    chan *render.Frame
	done      chan struct{}
	closeOnce sync.Once
}

// NewSink creates a Sink.
func NewSink() *Sink {
	return &Sink{
		frames: make(chan *render.Frame, 1),
		done:   make(chan struct{}),
	}
}

// Draw implements render.Sink.
func (s *Sink) Draw(f *render.Frame) error {
	c := f.Clone()
	select {
	case s.frames <- c:
		return nil
	default:
	}
	// Replace the unread frame.
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- c:
	default:
	}
	return nil
}

// wait returns a command that delivers the next frame.
func (s *Sink) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-s.frames:
			return frameMsg{frame: f}
		case <-s.done:
			return nil
		}
	}
}

// Close releases a pending wait.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

var _ render.Sink = (*Sink)(nil)
