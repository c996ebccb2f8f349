package statesync

import (
	"context"
	"time"
)

// GetDataNotification fetches the next notification from the active data
// stream, waiting at most maxStreamWait. On a successful fetch the stream's
// consecutive-timeout counter is reset; on a timeout it is incremented, and
// once it reaches maxConsecutiveTimeouts the error escalates from a
// recoverable ErrStreamTimeout to an ErrCriticalStreamTimeout, telling the
// caller to rebuild the stream instead of retrying the fetch.
//
// This is the driver's single suspension point per iteration: it performs
// no internal retries and is cancellable only through ctx.
//
// Note: this assumes the active data stream exists.
func GetDataNotification(
	ctx context.Context,
	maxStreamWait time.Duration,
	maxConsecutiveTimeouts uint64,
	activeDataStream *DataStreamListener,
) (DataNotification, error) {
	if activeDataStream == nil {
		panic("the active data stream should exist")
	}

	timer := time.NewTimer(maxStreamWait)
	defer timer.Stop()

	select {
	case dataNotification := <-activeDataStream.C:
		activeDataStream.ConsecutiveTimeouts = 0
		return dataNotification, nil

	case <-timer.C:
		activeDataStream.ConsecutiveTimeouts++
		if activeDataStream.ConsecutiveTimeouts >= maxConsecutiveTimeouts {
			return DataNotification{}, ErrCriticalStreamTimeout{
				Timeouts: activeDataStream.ConsecutiveTimeouts,
			}
		}
		return DataNotification{}, ErrStreamTimeout{Wait: maxStreamWait}

	case <-ctx.Done():
		return DataNotification{}, ctx.Err()
	}
}
