// Package debug provides conditional debug logging for nd.
//
// Debug logging is enabled by setting the ND_DEBUG environment variable:
//
//	ND_DEBUG=1 nd
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
package debug

import (
	"log"
	"os"
	"time"
)

var (
	// enabled is true when ND_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [ND_DEBUG] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("ND_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[ND_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[ND_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
