//go:build windows

package main

import "os"

// interruptSignals stop a run between ticks. Windows only delivers Ctrl+C.
var interruptSignals = []os.Signal{os.Interrupt}
