package main

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal.
//
// Under some PTY capture setups, lipgloss/termenv background detection
// emits OSC/DSR control sequences to stdout during startup. In a real
// terminal they vanish; in robot mode they land in front of the snapshot
// and break JSON consumers. Termenv skips all TTY probing when CI is set,
// so plainly non-interactive invocations get CI=1 before any of that
// initializes.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args, os.Getenv("STRAND_ROBOT") == "1") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot bool) bool {
	if envRobot {
		return true
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, "--robot") {
			return true
		}
		switch arg {
		case "--version", "--help", "--check-sources":
			return true
		}
		if strings.HasPrefix(arg, "--export-graph") {
			return true
		}
	}
	return false
}
