// Package monitoring holds the process-wide diagnostic logger used by the
// loader packages.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// now is swapped out by tests.
var now = time.Now

// Timed starts a wall-clock timer for label and returns a stop function.
// Calling stop logs "<label> completed in <ms>ms" and returns the elapsed time.
func Timed(label string) func() time.Duration {
	start := now()
	return func() time.Duration {
		elapsed := now().Sub(start)
		Logf("%s completed in %.2fms", label, float64(elapsed.Microseconds())/1000)
		return elapsed
	}
}
