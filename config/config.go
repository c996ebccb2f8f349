package config

import (
	"errors"
	"time"
)

// StateSyncConfig holds the tunables of the state-sync driver. The
// enclosing node process owns loading and unmarshaling; the driver only
// reads the resolved values.
type StateSyncConfig struct {
	// MaxStreamWait is the longest a single fetch waits for the next
	// notification on the active data stream.
	MaxStreamWait time.Duration `mapstructure:"max-stream-wait"`

	// MaxConsecutiveStreamTimeouts is the number of consecutive fetch
	// timeouts after which the stream is considered dead and must be
	// rebuilt rather than retried.
	MaxConsecutiveStreamTimeouts uint64 `mapstructure:"max-consecutive-stream-timeouts"`

	// MaxChunkSize caps the number of transactions accepted in a single
	// notification batch.
	MaxChunkSize uint64 `mapstructure:"max-chunk-size"`

	// MempoolAckTimeout bounds the wait for the mempool to acknowledge a
	// commit notification.
	MempoolAckTimeout time.Duration `mapstructure:"mempool-ack-timeout"`
}

// DefaultStateSyncConfig returns a configuration suitable for most nodes.
func DefaultStateSyncConfig() *StateSyncConfig {
	return &StateSyncConfig{
		MaxStreamWait:                5 * time.Second,
		MaxConsecutiveStreamTimeouts: 3,
		MaxChunkSize:                 1000,
		MempoolAckTimeout:            5 * time.Second,
	}
}

// TestStateSyncConfig returns a configuration with short waits for use in
// tests.
func TestStateSyncConfig() *StateSyncConfig {
	cfg := DefaultStateSyncConfig()
	cfg.MaxStreamWait = 50 * time.Millisecond
	cfg.MempoolAckTimeout = 250 * time.Millisecond
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *StateSyncConfig) ValidateBasic() error {
	if cfg.MaxStreamWait <= 0 {
		return errors.New("max-stream-wait must be positive")
	}
	if cfg.MaxConsecutiveStreamTimeouts == 0 {
		return errors.New("max-consecutive-stream-timeouts must be at least 1")
	}
	if cfg.MaxChunkSize == 0 {
		return errors.New("max-chunk-size must be at least 1")
	}
	if cfg.MempoolAckTimeout <= 0 {
		return errors.New("mempool-ack-timeout must be positive")
	}
	return nil
}
