package statesync

import (
	"context"

	"github.com/lumenchain/lumen/libs/log"
	"github.com/lumenchain/lumen/types"
)

// CommittedTransactions is the durably persisted subset of a verified
// notification: the ordered transactions plus the contract events they
// emitted. It is consumed exactly once, by HandleCommittedTransactions.
type CommittedTransactions struct {
	Transactions []types.Transaction
	Events       []types.ContractEvent
}

// MempoolNotifier informs the mempool about committed transactions so it
// can drop them.
type MempoolNotifier interface {
	NotifyCommittedTransactions(ctx context.Context, transactions []types.Transaction, blockTimestampUsecs uint64) error
}

// EventNotifier fans committed contract events out to subscribers. It is
// internally synchronized.
type EventNotifier interface {
	NotifyEvents(ctx context.Context, version types.Version, events []types.ContractEvent) error
}

// HandleCommittedTransactions notifies the mempool and the event
// subscription service about a batch that storage has durably committed,
// and updates the synced-version gauge.
//
// The latest synced version and ledger info are re-read from storage here,
// not taken from the caller: downstream consumers must only ever be told
// about a version that storage itself agrees is committed, even if a crash
// interrupted the last write. If either re-read fails the whole
// notification step is abandoned and logged; a missed downstream
// notification is recoverable and must never block the sync pipeline.
func HandleCommittedTransactions(
	ctx context.Context,
	committed CommittedTransactions,
	storage StateReader,
	mempoolNotifier MempoolNotifier,
	eventNotifier EventNotifier,
	metrics *Metrics,
	logger log.Logger,
) {
	latestSyncedVersion, err := FetchLatestSyncedVersion(storage)
	if err != nil {
		logger.Error("failed to fetch the latest synced version", "err", err)
		return
	}
	latestSyncedLedgerInfo, err := FetchLatestSyncedLedgerInfo(storage)
	if err != nil {
		logger.Error("failed to fetch the latest synced ledger info", "err", err)
		return
	}

	if err := mempoolNotifier.NotifyCommittedTransactions(
		ctx, committed.Transactions, latestSyncedLedgerInfo.LedgerInfo.TimestampUsecs,
	); err != nil {
		logger.Error("failed to notify the mempool of committed transactions", "err", err)
	}

	if err := eventNotifier.NotifyEvents(ctx, latestSyncedVersion, committed.Events); err != nil {
		logger.Error("failed to notify event subscribers", "err", err)
	}

	metrics.SyncedVersion.Set(float64(latestSyncedVersion))
}
