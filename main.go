// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"eqscope/cmd"
	"eqscope/internal/log"
	"eqscope/pkg/build"
)

// main is the entry point for eqscope.
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load the configuration
//
// 2. Concurrent Phase (Hot Path):
//   - Audio callback filters and queues blocks
//   - Render driver turns them into frames for the sinks
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// Missing ldflags only matter for release builds.
	if err := build.Initialize(); err != nil {
		log.Debugf("build info: %v", err)
	}

	// One thread for the audio callback, one for rendering and I/O.
	runtime.GOMAXPROCS(2)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		log.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
