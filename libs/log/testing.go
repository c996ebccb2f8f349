package log

import (
	"testing"

	"github.com/rs/zerolog"
)

// NewTestingLogger converts a testing.T into a logging interface to make
// test failures and verbose provide better feedback associated with test
// failures. This logger will also always include debug and trace messages
// when the verbose (-v) flag is set.
func NewTestingLogger(t testing.TB) Logger {
	level := LogLevelInfo
	if testing.Verbose() {
		level = LogLevelDebug
	}

	return NewTestingLoggerWithLevel(t, level)
}

// NewTestingLoggerWithLevel creates a testing logger instance at a specific
// level that wraps the behavior of testing.T.Log().
func NewTestingLoggerWithLevel(t testing.TB, level string) Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		t.Fatalf("failed to parse log level (%s): %v", level, err)
	}

	return defaultLogger{
		Logger: zerolog.New(zerolog.NewTestWriter(t)).Level(logLevel),
	}
}
