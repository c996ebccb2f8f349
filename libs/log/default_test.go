package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenchain/lumen/libs/log"
)

func TestNewDefaultLogger(t *testing.T) {
	testCases := map[string]struct {
		format    string
		level     string
		expectErr bool
	}{
		"invalid format":         {"foo", log.LogLevelInfo, true},
		"invalid level":          {log.LogFormatJSON, "foo", true},
		"json at info":           {log.LogFormatJSON, log.LogLevelInfo, false},
		"plain at debug":         {log.LogFormatPlain, log.LogLevelDebug, false},
		"text alias":             {log.LogFormatText, log.LogLevelError, false},
		"format is case folded":  {"JSON", log.LogLevelInfo, false},
		"both arguments invalid": {"foo", "bar", true},
	}

	for name, tc := range testCases {
		tc := tc

		t.Run(name, func(t *testing.T) {
			logger, err := log.NewDefaultLogger(tc.format, tc.level)
			if tc.expectErr {
				require.Error(t, err)
				require.Nil(t, logger)
			} else {
				require.NoError(t, err)
				require.NotNil(t, logger)
				assert.NotNil(t, logger.With("module", "test"))
			}
		})
	}
}

func TestMustNewDefaultLogger(t *testing.T) {
	require.NotPanics(t, func() {
		log.MustNewDefaultLogger(log.LogFormatJSON, log.LogLevelInfo)
	})
	require.Panics(t, func() {
		log.MustNewDefaultLogger("foo", log.LogLevelInfo)
	})
}
