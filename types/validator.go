package types

import (
	"errors"
	"fmt"

	"github.com/lumenchain/lumen/crypto/ed25519"
)

// Validator holds a single validator's identity and voting power within an
// epoch.
type Validator struct {
	Address     []byte
	PubKey      ed25519.PubKey
	VotingPower int64
}

// NewValidator derives a validator from a public key and voting power.
func NewValidator(pubKey ed25519.PubKey, votingPower int64) *Validator {
	return &Validator{
		Address:     pubKey.Address(),
		PubKey:      pubKey,
		VotingPower: votingPower,
	}
}

// ValidateBasic performs stateless checks on the validator.
func (v *Validator) ValidateBasic() error {
	if v == nil {
		return errors.New("nil validator")
	}
	if len(v.PubKey) != ed25519.PubKeySize {
		return fmt.Errorf("validator has malformed public key (size %d)", len(v.PubKey))
	}
	if v.VotingPower < 0 {
		return errors.New("validator has negative voting power")
	}
	if len(v.Address) != ed25519.AddressSize {
		return fmt.Errorf("validator address is the wrong size: %X", v.Address)
	}
	return nil
}

// Copy returns a deep copy of the validator.
func (v *Validator) Copy() *Validator {
	if v == nil {
		return nil
	}
	vCopy := *v
	vCopy.Address = append([]byte(nil), v.Address...)
	vCopy.PubKey = append(ed25519.PubKey(nil), v.PubKey...)
	return &vCopy
}

func (v *Validator) String() string {
	if v == nil {
		return "nil-Validator"
	}
	return fmt.Sprintf("Validator{%X %v VP:%v}", v.Address, v.PubKey, v.VotingPower)
}
