package statesync

import (
	"errors"

	"github.com/lumenchain/lumen/types"
)

// StateReader is the read-only view of durable ledger storage used to
// initialize and rehydrate the driver's trust state.
type StateReader interface {
	// GetStartupInfo returns the bootstrap record, or nil if the node has
	// no genesis committed.
	GetStartupInfo() (*types.StartupInfo, error)

	// GetLatestTransactionInfo returns the record of the most recently
	// committed transaction, or nil if there is none.
	GetLatestTransactionInfo() (*types.TransactionInfo, error)
}

// FetchLatestEpochState returns the trusted epoch state from storage.
func FetchLatestEpochState(storage StateReader) (*types.EpochState, error) {
	startupInfo, err := fetchStartupInfo(storage)
	if err != nil {
		return nil, err
	}
	return startupInfo.EpochState, nil
}

// FetchLatestSyncedLedgerInfo returns the latest committed ledger info from
// storage.
func FetchLatestSyncedLedgerInfo(storage StateReader) (*types.LedgerInfoWithSignatures, error) {
	startupInfo, err := fetchStartupInfo(storage)
	if err != nil {
		return nil, err
	}
	return startupInfo.LatestLedgerInfo, nil
}

// FetchLatestSyncedVersion returns the latest committed version from
// storage. A missing latest-transaction-info record while startup info
// exists is treated as storage corruption.
func FetchLatestSyncedVersion(storage StateReader) (types.Version, error) {
	latestTransactionInfo, err := storage.GetLatestTransactionInfo()
	if err != nil {
		return 0, ErrStorage{Reason: err}
	}
	if latestTransactionInfo == nil {
		return 0, ErrStorage{Reason: errors.New("latest transaction info is missing")}
	}
	return latestTransactionInfo.Version, nil
}

func fetchStartupInfo(storage StateReader) (*types.StartupInfo, error) {
	startupInfo, err := storage.GetStartupInfo()
	if err != nil {
		return nil, ErrStorage{Reason: err}
	}
	if startupInfo == nil {
		return nil, ErrStorage{Reason: errors.New("missing startup info from storage")}
	}
	return startupInfo, nil
}

// InitializeSyncVersionGauges seeds the version gauges from storage, e.g.
// after a reboot or a restored snapshot.
func InitializeSyncVersionGauges(storage StateReader, metrics *Metrics) error {
	highestSyncedVersion, err := FetchLatestSyncedVersion(storage)
	if err != nil {
		return err
	}

	metrics.SyncedVersion.Set(float64(highestSyncedVersion))
	metrics.AppliedTransactionOutputs.Set(float64(highestSyncedVersion))
	metrics.ExecutedTransactions.Set(float64(highestSyncedVersion))
	return nil
}
