// SPDX-License-Identifier: MIT

// Package transport carries rendered frames out of the process: to
// WebSocket clients as JSON, to a UDP listener as compact binary packets,
// or to the log.
package transport

import (
	"io"

	"eqscope/internal/log"
	"eqscope/internal/render"
)

var logger = log.Named("transport")

// Sink is a render.Sink that holds resources.
type Sink interface {
	render.Sink
	io.Closer
}
