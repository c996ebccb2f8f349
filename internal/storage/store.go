package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/lumenchain/lumen/types"
)

// Key prefixes. Transaction infos are keyed by version so that the latest
// record is one reverse iteration away.
const (
	prefixTransactionInfo = int64(0)
	prefixLedgerInfo      = int64(1)
	prefixEpochState      = int64(2)
)

// decMode tolerates non-UTF-8 text strings: signature maps are keyed by
// raw validator addresses.
var decMode cbor.DecMode

func init() {
	dm, err := cbor.DecOptions{UTF8: cbor.UTF8DecodeInvalid}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// SyncStore is the durable store for synced ledger state: per-version
// transaction infos, the latest quorum-certified ledger info and the
// trusted epoch state. It backs both the storage-synchronizer write path
// and the driver's read-only startup queries.
//
// Atomicity relies on the underlying database's batch writes: a version is
// either fully committed together with its ledger info or not at all.
type SyncStore struct {
	db dbm.DB
}

// NewSyncStore returns a store backed by the given database.
func NewSyncStore(db dbm.DB) *SyncStore {
	return &SyncStore{db: db}
}

// Bootstrap writes the genesis state: the initial epoch state and the
// genesis ledger info. It fails if the store already has startup info.
func (s *SyncStore) Bootstrap(epochState *types.EpochState, ledgerInfo *types.LedgerInfoWithSignatures) error {
	startupInfo, err := s.GetStartupInfo()
	if err != nil {
		return err
	}
	if startupInfo != nil {
		return errors.New("store is already bootstrapped")
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := s.putEpochState(batch, epochState); err != nil {
		return err
	}
	if err := s.putLedgerInfo(batch, ledgerInfo); err != nil {
		return err
	}
	if err := s.putTransactionInfo(batch, &types.TransactionInfo{
		Version: ledgerInfo.LedgerInfo.Version,
	}); err != nil {
		return err
	}
	return batch.WriteSync()
}

// ApplyTransactionBatch durably commits a verified batch of transactions
// starting at firstVersion, together with the ledger info the batch proves
// against. If the ledger info ends the epoch, the stored epoch state is
// replaced in the same write.
//
// This implements the storage-synchronizer contract of the sync driver.
func (s *SyncStore) ApplyTransactionBatch(
	_ context.Context,
	firstVersion types.Version,
	transactions []types.Transaction,
	_ []types.ContractEvent,
	proofLedgerInfo *types.LedgerInfoWithSignatures,
) error {
	if len(transactions) == 0 {
		return errors.New("cannot apply an empty transaction batch")
	}
	if proofLedgerInfo == nil {
		return errors.New("cannot apply a transaction batch without a proof ledger info")
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	for i, tx := range transactions {
		if err := s.putTransactionInfo(batch, &types.TransactionInfo{
			Version:         firstVersion + types.Version(i),
			TransactionHash: tx.Hash(),
		}); err != nil {
			return err
		}
	}

	lastVersion := firstVersion + types.Version(len(transactions)) - 1
	if proofLedgerInfo.LedgerInfo.Version <= lastVersion {
		if err := s.putLedgerInfo(batch, proofLedgerInfo); err != nil {
			return err
		}
		if next := proofLedgerInfo.LedgerInfo.NextEpochState; next != nil {
			if err := s.putEpochState(batch, next); err != nil {
				return err
			}
		}
	}

	return batch.WriteSync()
}

// GetStartupInfo returns the bootstrap record, or nil if the store is
// empty (no genesis committed).
func (s *SyncStore) GetStartupInfo() (*types.StartupInfo, error) {
	epochStateBz, err := s.db.Get(epochStateKey())
	if err != nil {
		return nil, fmt.Errorf("failed to read the epoch state: %w", err)
	}
	ledgerInfoBz, err := s.db.Get(ledgerInfoKey())
	if err != nil {
		return nil, fmt.Errorf("failed to read the latest ledger info: %w", err)
	}
	if epochStateBz == nil && ledgerInfoBz == nil {
		return nil, nil
	}
	if epochStateBz == nil || ledgerInfoBz == nil {
		return nil, errors.New("startup info is partially written")
	}

	var epochState types.EpochState
	if err := decMode.Unmarshal(epochStateBz, &epochState); err != nil {
		return nil, fmt.Errorf("failed to decode the epoch state: %w", err)
	}
	var ledgerInfo types.LedgerInfoWithSignatures
	if err := decMode.Unmarshal(ledgerInfoBz, &ledgerInfo); err != nil {
		return nil, fmt.Errorf("failed to decode the latest ledger info: %w", err)
	}

	return &types.StartupInfo{
		EpochState:       &epochState,
		LatestLedgerInfo: &ledgerInfo,
	}, nil
}

// GetLatestTransactionInfo returns the record of the most recently
// committed transaction, or nil if there is none.
func (s *SyncStore) GetLatestTransactionInfo() (*types.TransactionInfo, error) {
	// ledgerInfoKey is the first key past the transaction info keyspace
	iter, err := s.db.ReverseIterator(transactionInfoKey(0), ledgerInfoKey())
	if err != nil {
		return nil, fmt.Errorf("failed to iterate transaction infos: %w", err)
	}
	defer iter.Close()

	if !iter.Valid() {
		if err := iter.Error(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var txInfo types.TransactionInfo
	if err := decMode.Unmarshal(iter.Value(), &txInfo); err != nil {
		return nil, fmt.Errorf("failed to decode transaction info: %w", err)
	}
	return &txInfo, nil
}

// GetTransactionInfo returns the record for a specific version, or nil if
// that version has not been committed.
func (s *SyncStore) GetTransactionInfo(version types.Version) (*types.TransactionInfo, error) {
	bz, err := s.db.Get(transactionInfoKey(version))
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction info: %w", err)
	}
	if bz == nil {
		return nil, nil
	}

	var txInfo types.TransactionInfo
	if err := decMode.Unmarshal(bz, &txInfo); err != nil {
		return nil, fmt.Errorf("failed to decode transaction info: %w", err)
	}
	return &txInfo, nil
}

// Close closes the underlying database.
func (s *SyncStore) Close() error {
	return s.db.Close()
}

func (s *SyncStore) putTransactionInfo(batch dbm.Batch, txInfo *types.TransactionInfo) error {
	bz, err := cbor.Marshal(txInfo)
	if err != nil {
		return fmt.Errorf("failed to encode transaction info: %w", err)
	}
	return batch.Set(transactionInfoKey(txInfo.Version), bz)
}

func (s *SyncStore) putLedgerInfo(batch dbm.Batch, ledgerInfo *types.LedgerInfoWithSignatures) error {
	bz, err := cbor.Marshal(ledgerInfo)
	if err != nil {
		return fmt.Errorf("failed to encode ledger info: %w", err)
	}
	return batch.Set(ledgerInfoKey(), bz)
}

func (s *SyncStore) putEpochState(batch dbm.Batch, epochState *types.EpochState) error {
	bz, err := cbor.Marshal(epochState)
	if err != nil {
		return fmt.Errorf("failed to encode epoch state: %w", err)
	}
	return batch.Set(epochStateKey(), bz)
}

func transactionInfoKey(version types.Version) []byte {
	key, err := orderedcode.Append(nil, prefixTransactionInfo, version)
	if err != nil {
		panic(err)
	}
	return key
}

func ledgerInfoKey() []byte {
	key, err := orderedcode.Append(nil, prefixLedgerInfo)
	if err != nil {
		panic(err)
	}
	return key
}

func epochStateKey() []byte {
	key, err := orderedcode.Append(nil, prefixEpochState)
	if err != nil {
		panic(err)
	}
	return key
}
