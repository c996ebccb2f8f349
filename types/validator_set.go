package types

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
)

// MaxTotalVotingPower is the maximum allowed total voting power of a
// validator set, leaving headroom for tallying without overflow.
const MaxTotalVotingPower = int64(math.MaxInt64) / 8

// ErrNotEnoughVotingPowerSigned is returned when a ledger info is signed by
// less than the required quorum of voting power.
type ErrNotEnoughVotingPowerSigned struct {
	Got    int64
	Needed int64
}

func (e ErrNotEnoughVotingPowerSigned) Error() string {
	return fmt.Sprintf("invalid ledger info: insufficient voting power: got %d, needed more than %d", e.Got, e.Needed)
}

// ValidatorSet is the ordered set of validators for one epoch. It is
// immutable once constructed; epoch changes replace it wholesale.
//
// The set is ordered by address to give a deterministic encoding.
type ValidatorSet struct {
	Validators []*Validator

	// cached; computed lazily and skipped by encoders
	totalVotingPower int64
}

// NewValidatorSet constructs a validator set from the given list. The list
// is copied and sorted by address.
func NewValidatorSet(vals []*Validator) *ValidatorSet {
	validators := make([]*Validator, len(vals))
	for i, val := range vals {
		validators[i] = val.Copy()
	}
	sort.Slice(validators, func(i, j int) bool {
		return bytes.Compare(validators[i].Address, validators[j].Address) < 0
	})
	return &ValidatorSet{Validators: validators}
}

// ValidateBasic performs stateless checks on the validator set.
func (vals *ValidatorSet) ValidateBasic() error {
	if vals == nil || len(vals.Validators) == 0 {
		return errors.New("validator set is nil or empty")
	}
	seen := make(map[string]struct{}, len(vals.Validators))
	for idx, val := range vals.Validators {
		if err := val.ValidateBasic(); err != nil {
			return fmt.Errorf("invalid validator #%d: %w", idx, err)
		}
		if _, ok := seen[string(val.Address)]; ok {
			return fmt.Errorf("duplicate validator address %X", val.Address)
		}
		seen[string(val.Address)] = struct{}{}
	}
	if vals.TotalVotingPower() > MaxTotalVotingPower {
		return fmt.Errorf("total voting power %d exceeds maximum %d",
			vals.TotalVotingPower(), MaxTotalVotingPower)
	}
	return nil
}

// Size returns the number of validators in the set.
func (vals *ValidatorSet) Size() int {
	return len(vals.Validators)
}

// HasAddress reports whether a validator with the given address is in the
// set.
func (vals *ValidatorSet) HasAddress(address []byte) bool {
	_, val := vals.GetByAddress(address)
	return val != nil
}

// GetByAddress returns the index and validator with the given address, or
// -1 and nil if not present.
func (vals *ValidatorSet) GetByAddress(address []byte) (int, *Validator) {
	for idx, val := range vals.Validators {
		if bytes.Equal(val.Address, address) {
			return idx, val
		}
	}
	return -1, nil
}

// TotalVotingPower returns the sum of all validators' voting power. The
// value is computed once and cached.
func (vals *ValidatorSet) TotalVotingPower() int64 {
	if vals.totalVotingPower == 0 {
		for _, val := range vals.Validators {
			vals.totalVotingPower += val.VotingPower
		}
	}
	return vals.totalVotingPower
}

// Copy returns a deep copy of the validator set.
func (vals *ValidatorSet) Copy() *ValidatorSet {
	if vals == nil {
		return nil
	}
	validators := make([]*Validator, len(vals.Validators))
	for i, val := range vals.Validators {
		validators[i] = val.Copy()
	}
	return &ValidatorSet{
		Validators:       validators,
		totalVotingPower: vals.totalVotingPower,
	}
}

// Equals reports whether two validator sets contain the same validators
// with the same voting power, in the same order.
func (vals *ValidatorSet) Equals(other *ValidatorSet) bool {
	if vals == nil || other == nil {
		return vals == other
	}
	if len(vals.Validators) != len(other.Validators) {
		return false
	}
	for i, val := range vals.Validators {
		otherVal := other.Validators[i]
		if !bytes.Equal(val.Address, otherVal.Address) ||
			!val.PubKey.Equals(otherVal.PubKey) ||
			val.VotingPower != otherVal.VotingPower {
			return false
		}
	}
	return true
}

// VerifyLedgerInfo checks that the ledger info carries valid signatures
// from validators of this set holding strictly more than 2/3 of the total
// voting power. A signature from an address outside the set, or an invalid
// signature from a member, fails verification outright.
func (vals *ValidatorSet) VerifyLedgerInfo(liws *LedgerInfoWithSignatures) error {
	if liws == nil {
		return errors.New("nil ledger info")
	}

	signBytes, err := liws.LedgerInfo.SigningBytes()
	if err != nil {
		return err
	}

	var talliedVotingPower int64
	for _, val := range vals.Validators {
		sig, ok := liws.Signatures[string(val.Address)]
		if !ok {
			continue
		}
		if !val.PubKey.VerifySignature(signBytes, sig) {
			return fmt.Errorf("invalid signature from validator %X", val.Address)
		}
		talliedVotingPower += val.VotingPower
	}

	// Signatures from addresses outside the set are a protocol violation,
	// not just dead weight.
	if len(liws.Signatures) > 0 {
		for addr := range liws.Signatures {
			if !vals.HasAddress([]byte(addr)) {
				return fmt.Errorf("signature from unknown validator %X", addr)
			}
		}
	}

	votingPowerNeeded := vals.TotalVotingPower() * 2 / 3
	if talliedVotingPower <= votingPowerNeeded {
		return ErrNotEnoughVotingPowerSigned{
			Got:    talliedVotingPower,
			Needed: votingPowerNeeded,
		}
	}

	return nil
}
