package output

// LoggerPort is the structured logger used across the module. Args are
// alternating key/value pairs.
type LoggerPort interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	WithField(key string, value any) LoggerPort
	WithFields(fields map[string]any) LoggerPort
	// Named returns a child logger for a component.
	Named(component string) LoggerPort

	Close() error
}

// NopLogger discards everything. Use cases fall back to it when no logger
// is injected.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any)                   {}
func (NopLogger) Info(string, ...any)                    {}
func (NopLogger) Warn(string, ...any)                    {}
func (NopLogger) Error(string, ...any)                   {}
func (n NopLogger) WithField(string, any) LoggerPort     { return n }
func (n NopLogger) WithFields(map[string]any) LoggerPort { return n }
func (n NopLogger) Named(string) LoggerPort              { return n }
func (NopLogger) Close() error                           { return nil }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l LoggerPort) LoggerPort {
	if l == nil {
		return NopLogger{}
	}
	return l
}
