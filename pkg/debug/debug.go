// Package debug provides STRAND_DEBUG-gated logging to stderr.
//
// The TUI owns the terminal, so debug output is only readable when stderr
// is redirected:
//
//	STRAND_DEBUG=1 strand 2>debug.log
//
// When the variable is unset every call is a no-op.
package debug

import (
	"log"
	"os"
	"time"
)

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("STRAND_DEBUG") != "" {
		enable()
	}
}

func enable() {
	enabled = true
	if logger == nil {
		logger = log.New(os.Stderr, "[strand] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	return enabled
}

// SetEnabled flips debug logging at runtime, regardless of the
// environment.
func SetEnabled(on bool) {
	if on {
		enable()
		return
	}
	enabled = false
}

// Log writes a printf-style debug line.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// Timing records how long a named step took.
func Timing(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// Span logs entry to a step and, when the returned func runs, exit with
// the elapsed time.
//
//	defer debug.Span("reload")()
func Span(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type. Useful for one-off inspection of
// message payloads.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Printf("%s: %T = %+v", name, v, v)
}
