package statesync

import (
	"errors"
	"fmt"
	"time"
)

// ErrIntegerOverflow means the synced version reached the maximum
// representable value, so no next version can be expressed. This is fatal
// to the driver.
var ErrIntegerOverflow = errors.New("the expected next version has overflowed")

// ErrStreamTimeout means a single fetch on the active data stream exceeded
// its bounded wait. The caller should retry the fetch on the same stream.
type ErrStreamTimeout struct {
	Wait time.Duration
}

func (e ErrStreamTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for a data notification after %v", e.Wait)
}

// ErrCriticalStreamTimeout means the stream hit the maximum number of
// consecutive fetch timeouts and is presumed dead. The caller must abandon
// the stream and rebuild it from the latest storage state.
type ErrCriticalStreamTimeout struct {
	Timeouts uint64
}

func (e ErrCriticalStreamTimeout) Error() string {
	return fmt.Sprintf("data stream timed out %d consecutive times", e.Timeouts)
}

// ErrVerification means a ledger info failed quorum verification against
// the currently trusted epoch state. The stream is terminated with negative
// feedback and never retried; the driver opens a new stream.
type ErrVerification struct {
	Reason error
}

func (e ErrVerification) Error() string {
	return fmt.Sprintf("ledger info failed verification: %v", e.Reason)
}

func (e ErrVerification) Unwrap() error { return e.Reason }

// ErrInvalidPayload means a notification's payload did not match the
// expected type or shape at this point in the protocol.
type ErrInvalidPayload struct {
	Reason string
}

func (e ErrInvalidPayload) Error() string {
	return fmt.Sprintf("invalid payload: %s", e.Reason)
}

// ErrStorage means a startup or version record was missing or unreadable.
// Storage errors are fatal to driver initialization and are not retried.
type ErrStorage struct {
	Reason error
}

func (e ErrStorage) Error() string {
	return fmt.Sprintf("storage error: %v", e.Reason)
}

func (e ErrStorage) Unwrap() error { return e.Reason }
