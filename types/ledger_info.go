package types

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// signingEncMode produces canonical (deterministic) CBOR, so that every
// validator signs byte-identical ledger info encodings.
var signingEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	signingEncMode = em
}

// LedgerInfo is a cryptographically summarized checkpoint of the ledger at
// a version. A ledger info carrying a NextEpochState ends its epoch: the
// embedded validator set supersedes the current one for all future
// verifications.
type LedgerInfo struct {
	Epoch           uint64
	Version         Version
	AccumulatorRoot []byte
	TimestampUsecs  uint64

	// NextEpochState is set iff this ledger info ends the epoch.
	NextEpochState *EpochState
}

// SigningBytes returns the canonical encoding of the ledger info that
// validators sign.
func (li LedgerInfo) SigningBytes() ([]byte, error) {
	bz, err := signingEncMode.Marshal(li)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger info: %w", err)
	}
	return bz, nil
}

// EndsEpoch reports whether this ledger info carries a reconfiguration.
func (li LedgerInfo) EndsEpoch() bool {
	return li.NextEpochState != nil
}

// LedgerInfoWithSignatures is a ledger info plus the validator signatures
// proving quorum certification. Signatures are keyed by validator address.
type LedgerInfoWithSignatures struct {
	LedgerInfo LedgerInfo
	Signatures map[string][]byte
}

// NewLedgerInfoWithSignatures wraps a ledger info with an empty signature
// set.
func NewLedgerInfoWithSignatures(li LedgerInfo) *LedgerInfoWithSignatures {
	return &LedgerInfoWithSignatures{
		LedgerInfo: li,
		Signatures: make(map[string][]byte),
	}
}

// AddSignature records a validator's signature, replacing any previous
// signature from the same address.
func (liws *LedgerInfoWithSignatures) AddSignature(address, signature []byte) {
	if liws.Signatures == nil {
		liws.Signatures = make(map[string][]byte)
	}
	liws.Signatures[string(address)] = signature
}

// ValidateBasic performs stateless checks on the ledger info.
func (liws *LedgerInfoWithSignatures) ValidateBasic() error {
	if len(liws.Signatures) == 0 {
		return errors.New("ledger info has no signatures")
	}
	if liws.LedgerInfo.NextEpochState != nil {
		if err := liws.LedgerInfo.NextEpochState.ValidateBasic(); err != nil {
			return fmt.Errorf("invalid next epoch state: %w", err)
		}
	}
	return nil
}

// StartupInfo is the bootstrap record read from storage when a node
// (re)initializes syncing: the trusted epoch state and the latest ledger
// info known to be committed. A node with no genesis committed has no
// startup info.
type StartupInfo struct {
	EpochState       *EpochState
	LatestLedgerInfo *LedgerInfoWithSignatures
}
