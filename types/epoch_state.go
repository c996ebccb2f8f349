package types

import (
	"errors"
	"fmt"
)

// EpochState is the trusted validator set for a specific epoch. It is
// immutable once constructed and replaced wholesale on epoch change.
type EpochState struct {
	Epoch    uint64
	Verifier *ValidatorSet
}

// NewEpochState constructs an epoch state from an epoch number and its
// validator set.
func NewEpochState(epoch uint64, verifier *ValidatorSet) *EpochState {
	return &EpochState{
		Epoch:    epoch,
		Verifier: verifier,
	}
}

// ValidateBasic performs stateless checks on the epoch state.
func (es *EpochState) ValidateBasic() error {
	if es == nil {
		return errors.New("nil epoch state")
	}
	return es.Verifier.ValidateBasic()
}

// Verify checks that the given ledger info belongs to this epoch and is
// signed by a quorum of this epoch's validators.
func (es *EpochState) Verify(liws *LedgerInfoWithSignatures) error {
	if liws == nil {
		return errors.New("nil ledger info")
	}
	if liws.LedgerInfo.Epoch != es.Epoch {
		return fmt.Errorf("ledger info has epoch %d, expected %d",
			liws.LedgerInfo.Epoch, es.Epoch)
	}
	return es.Verifier.VerifyLedgerInfo(liws)
}

// Copy returns a deep copy of the epoch state.
func (es *EpochState) Copy() *EpochState {
	if es == nil {
		return nil
	}
	return &EpochState{
		Epoch:    es.Epoch,
		Verifier: es.Verifier.Copy(),
	}
}

// Equals reports whether two epoch states describe the same epoch with the
// same validator set.
func (es *EpochState) Equals(other *EpochState) bool {
	if es == nil || other == nil {
		return es == other
	}
	return es.Epoch == other.Epoch && es.Verifier.Equals(other.Verifier)
}

func (es *EpochState) String() string {
	if es == nil {
		return "nil-EpochState"
	}
	return fmt.Sprintf("EpochState{Epoch:%d Validators:%d}", es.Epoch, es.Verifier.Size())
}
