package log

const (
	// LogFormatPlain defines a logging format used for human-readable,
	// single-line log output.
	LogFormatPlain string = "plain"

	// LogFormatText is an alias for the plain format.
	LogFormatText string = "text"

	// LogFormatJSON defines a logging format for structured JSON output.
	LogFormatJSON string = "json"

	// Supported log levels.
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Logger is what any library in this module should take.
type Logger interface {
	Debug(msg string, keyVals ...interface{})
	Info(msg string, keyVals ...interface{})
	Error(msg string, keyVals ...interface{})

	With(keyVals ...interface{}) Logger
}
