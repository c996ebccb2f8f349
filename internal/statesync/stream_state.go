package statesync

import (
	"math"

	"github.com/lumenchain/lumen/types"
)

// SpeculativeStreamState tracks the trust state of one active data stream:
// the currently trusted epoch state, the proof ledger info that all data
// along the stream must chain to, and the version synced so far. It assumes
// the stream's data is being verified ahead of the executor and storage, so
// the driver never blocks on them.
//
// The state is owned exclusively by the driver loop for the lifetime of one
// stream and is rebuilt from storage whenever a stream is (re)opened.
type SpeculativeStreamState struct {
	epochState      *types.EpochState
	proofLedgerInfo *types.LedgerInfoWithSignatures
	syncedVersion   types.Version
}

// NewSpeculativeStreamState constructs the initial trust state for a new
// stream. proofLedgerInfo may be nil when no target is known yet (e.g.
// right after boot, before the stream has supplied one).
func NewSpeculativeStreamState(
	epochState *types.EpochState,
	proofLedgerInfo *types.LedgerInfoWithSignatures,
	syncedVersion types.Version,
) *SpeculativeStreamState {
	return &SpeculativeStreamState{
		epochState:      epochState,
		proofLedgerInfo: proofLedgerInfo,
		syncedVersion:   syncedVersion,
	}
}

// ExpectedNextVersion returns the version expected to extend the stream.
// Overflow at the uint64 boundary is an error, never a wraparound.
func (s *SpeculativeStreamState) ExpectedNextVersion() (types.Version, error) {
	if s.syncedVersion == math.MaxUint64 {
		return 0, ErrIntegerOverflow
	}
	return s.syncedVersion + 1, nil
}

// HasProofLedgerInfo reports whether a proof target is known.
func (s *SpeculativeStreamState) HasProofLedgerInfo() bool {
	return s.proofLedgerInfo != nil
}

// ProofLedgerInfo returns the ledger info that all data along the stream
// should have proofs relative to. Calling this before any proof ledger
// info has been verified is a programming error.
func (s *SpeculativeStreamState) ProofLedgerInfo() *types.LedgerInfoWithSignatures {
	if s.proofLedgerInfo == nil {
		panic("proof ledger info is missing")
	}
	return s.proofLedgerInfo
}

// SyncedVersion returns the version synced so far along the stream.
func (s *SpeculativeStreamState) SyncedVersion() types.Version {
	return s.syncedVersion
}

// EpochState returns the currently trusted epoch state.
func (s *SpeculativeStreamState) EpochState() *types.EpochState {
	return s.epochState
}

// UpdateSyncedVersion overwrites the synced version. Callers are
// responsible for only moving it forward; the tracker stays a passive data
// holder.
func (s *SpeculativeStreamState) UpdateSyncedVersion(syncedVersion types.Version) {
	s.syncedVersion = syncedVersion
}

// VerifyLedgerInfoWithSignatures verifies the ledger info against the
// current epoch state and advances the epoch if the ledger info ends it.
// Every ledger info is verified, with no exceptions: this is the sole
// epoch-advancement mechanism. Re-installing an epoch state the tracker
// already trusts is a plain re-assignment, so a verified duplicate never
// double-advances.
func (s *SpeculativeStreamState) VerifyLedgerInfoWithSignatures(liws *types.LedgerInfoWithSignatures) error {
	if err := s.epochState.Verify(liws); err != nil {
		return ErrVerification{Reason: err}
	}
	if next := liws.LedgerInfo.NextEpochState; next != nil {
		s.epochState = next.Copy()
	}
	return nil
}

// UpdateProofLedgerInfo verifies a newly proven ledger info and makes it
// the stream's proof target.
func (s *SpeculativeStreamState) UpdateProofLedgerInfo(liws *types.LedgerInfoWithSignatures) error {
	if err := s.VerifyLedgerInfoWithSignatures(liws); err != nil {
		return err
	}
	s.proofLedgerInfo = liws
	return nil
}
