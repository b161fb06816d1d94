package monitoring

import "log"

// Logf is the package-level diagnostic logger shared by the reconstruction
// pipeline. It defaults to log.Printf; the daemon or tests may swap it out
// with SetLogger to redirect or silence diagnostics.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger, which is how batch tools run quiet.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
