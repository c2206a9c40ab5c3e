// Package logger is the agent's zap setup. The same logger is the local
// sink for every control-channel line, so it writes to the console that
// an operator sees on the device's serial port or journal.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	global *Logger
	once   sync.Once
)

// Get returns the process logger. The first call fixes the level; later
// calls return the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		global = New(level, os.Stdout)
	})
	return global
}

// New builds a console logger writing to w.
func New(level string, w io.Writer) *Logger {
	core := newConsoleCore(parseLevel(level), w)
	return &Logger{SugaredLogger: zap.New(core).Sugar().Named(loggerName)}
}

// Nop discards everything. Components take it in place of a nil logger.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
