// Package recovery turns panics in main and worker goroutines into a logged
// stack trace and a non-zero exit.
package recovery

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

// exit and stderr are replaced in tests.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r)
		exit(1)
	}
}

// HandlePanicFunc logs panic details and calls cleanup before exiting.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(r)
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

func report(r any) {
	_, _ = fmt.Fprintf(stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
}
