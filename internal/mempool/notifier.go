package mempool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumenchain/lumen/libs/log"
	"github.com/lumenchain/lumen/types"
)

// CommitNotification tells the mempool which transactions were just
// committed, so it can evict them and re-validate what remains against
// the block timestamp. The receiver must call Ack once it has processed
// the notification.
type CommitNotification struct {
	Transactions        []types.Transaction
	BlockTimestampUsecs uint64

	ackOnce sync.Once
	ack     chan struct{}
}

// Ack signals that the notification has been processed. Safe to call more
// than once.
func (n *CommitNotification) Ack() {
	n.ackOnce.Do(func() { close(n.ack) })
}

// ErrDeliveryTimeout is returned when the mempool does not accept a
// notification within the configured timeout.
type ErrDeliveryTimeout struct {
	Timeout time.Duration
}

func (e ErrDeliveryTimeout) Error() string {
	return fmt.Sprintf("the mempool did not accept the commit notification within %s", e.Timeout)
}

// ErrAckTimeout is returned when the mempool accepts a notification but
// does not acknowledge it within the configured timeout.
type ErrAckTimeout struct {
	Timeout time.Duration
}

func (e ErrAckTimeout) Error() string {
	return fmt.Sprintf("the mempool did not ack the commit notification within %s", e.Timeout)
}

// NotificationHandler bridges the sync driver and the mempool: the driver
// calls NotifyCommittedTransactions after every commit, and the mempool
// consumes Notifications and acks each one. Delivery and ack are both
// bounded by ackTimeout so a stuck mempool cannot stall syncing.
type NotificationHandler struct {
	logger     log.Logger
	ackTimeout time.Duration

	notifications chan *CommitNotification
}

// NewNotificationHandler returns a handler with an unbuffered delivery
// channel.
func NewNotificationHandler(logger log.Logger, ackTimeout time.Duration) *NotificationHandler {
	return &NotificationHandler{
		logger:        logger,
		ackTimeout:    ackTimeout,
		notifications: make(chan *CommitNotification),
	}
}

// Notifications is the mempool-side receive channel.
func (h *NotificationHandler) Notifications() <-chan *CommitNotification {
	return h.notifications
}

// NotifyCommittedTransactions delivers a commit notification to the
// mempool and waits for the ack. The ackTimeout bounds the combined
// delivery and ack wait.
func (h *NotificationHandler) NotifyCommittedTransactions(
	ctx context.Context,
	transactions []types.Transaction,
	blockTimestampUsecs uint64,
) error {
	notification := &CommitNotification{
		Transactions:        transactions,
		BlockTimestampUsecs: blockTimestampUsecs,
		ack:                 make(chan struct{}),
	}

	timer := time.NewTimer(h.ackTimeout)
	defer timer.Stop()

	select {
	case h.notifications <- notification:
	case <-timer.C:
		return ErrDeliveryTimeout{Timeout: h.ackTimeout}
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-notification.ack:
		h.logger.Debug("the mempool acked a commit notification",
			"num_txs", len(transactions),
			"block_timestamp_usecs", blockTimestampUsecs)
		return nil
	case <-timer.C:
		return ErrAckTimeout{Timeout: h.ackTimeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}
