//go:build !windows

package main

import (
	"os"
	"syscall"
)

// interruptSignals stop a run between ticks: Ctrl+C or a SIGTERM from a
// supervisor. The partial run is still saved.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
