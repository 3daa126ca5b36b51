// Package monitoring holds the process-wide diagnostic logger and progress
// helpers shared by the decoding packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or embedding hosts can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogProgress returns a progress callback that logs milestones through Logf,
// tagged with the operation name. Useful as the default progress sink for
// hosts that do not render progress themselves.
func LogProgress(op string) func(fraction float64, message string) {
	return func(fraction float64, message string) {
		Logf("%s: %3.0f%% %s", op, fraction*100, message)
	}
}
