// Package console provides a terminal logging backend.
package console

import (
	"io"

	"github.com/charmbracelet/log"

	"gravcore/internal/logging"
)

// Params contains configuration for creating a console logger.
type Params struct {
	Debug bool
}

// Logger implements logging.Logger using charmbracelet/log for console
// output.
type Logger struct {
	logger *log.Logger
}

var _ logging.Logger = (*Logger)(nil)

// New creates a console logger writing to w, typically os.Stderr.
func New(w io.Writer, params Params) *Logger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &Logger{logger: logger}
}

// Debug writes a message at DEBUG level.
func (c *Logger) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

// Info writes a message at INFO level.
func (c *Logger) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

// Warn writes a message at WARN level.
func (c *Logger) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

// Error writes a message at ERROR level.
func (c *Logger) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}
