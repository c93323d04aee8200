// Package logging defines the leveled key/value logging interface the
// rest of the module logs through. Backends live in subpackages so
// importing code stays decoupled from any particular output format.
package logging

// Logger is the interface for logging backends. Key/value pairs follow
// the message as alternating keys and values.
type Logger interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
}

// Noop returns a logger that discards everything.
func Noop() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
