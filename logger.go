package osm2sidewalks

import "log"

// Logf is the package-level diagnostic logger used by stages running in verbose mode.
// It defaults to log.Printf and may be replaced with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
