// Package termguard keeps terminal probing out of non-interactive runs.
// Importing it for side effects from the main package is enough.
package termguard

import (
	"os"
	"strings"
)

// init runs before Bubble Tea acquires the terminal (and before any TUI starts).
//
// In some PTY/TTY capture environments (notably CI and script wrappers),
// Bubble Tea's init triggers Lipgloss/Termenv background detection, which can
// emit OSC/DSR control sequences to stdout. Those sequences are harmless in a
// real terminal but corrupt the plain-text output of the status and export
// modes when it is piped into another tool.
//
// Non-interactive invocations are treated as headless by setting CI=1 early.
// Termenv uses CI to disable TTY probing, preventing those sequences from
// being written.
func init() {
	if os.Getenv("CI") != "" {
		return
	}

	if !shouldSuppressTTYQueries(os.Args, os.Getenv("ND_TEST_MODE") != "") {
		return
	}

	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}

	for _, arg := range args {
		trimmed := strings.TrimLeft(arg, "-")
		switch trimmed {
		case "version", "help", "status":
			return true
		}
		if strings.HasPrefix(trimmed, "export") {
			return true
		}
	}

	return false
}
