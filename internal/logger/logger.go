package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Init configures the process-wide logger. Only the first call has effect.
func Init(level, format string) *Logger {
	once.Do(func() {
		globalLogger = New(level, format)
	})
	return globalLogger
}

// Get returns the process-wide logger, falling back to an info console logger
// when Init was never called.
func Get() *Logger {
	return Init(InfoLevel, ConsoleFormat)
}
