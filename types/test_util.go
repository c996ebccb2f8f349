package types

import (
	"github.com/lumenchain/lumen/crypto/ed25519"
)

// PrivValidator is a test helper holding a validator's signing key.
type PrivValidator struct {
	PrivKey ed25519.PrivKey
}

// Address returns the validator address derived from the public key.
func (pv *PrivValidator) Address() []byte {
	return pv.PrivKey.PubKey().Address()
}

// SignLedgerInfo signs the ledger info and records the signature on it.
func (pv *PrivValidator) SignLedgerInfo(liws *LedgerInfoWithSignatures) error {
	signBytes, err := liws.LedgerInfo.SigningBytes()
	if err != nil {
		return err
	}
	sig, err := pv.PrivKey.Sign(signBytes)
	if err != nil {
		return err
	}
	liws.AddSignature(pv.Address(), sig)
	return nil
}

// RandValidatorSet returns a randomly generated validator set of the given
// size, where every validator has the given voting power, along with the
// matching private validators (sorted to align with the set's ordering).
func RandValidatorSet(numValidators int, votingPower int64) (*ValidatorSet, []*PrivValidator) {
	vals := make([]*Validator, numValidators)
	privValsByAddr := make(map[string]*PrivValidator, numValidators)
	for i := 0; i < numValidators; i++ {
		privKey := ed25519.GenPrivKey()
		vals[i] = NewValidator(privKey.PubKey(), votingPower)
		privValsByAddr[string(vals[i].Address)] = &PrivValidator{PrivKey: privKey}
	}

	valSet := NewValidatorSet(vals)
	privVals := make([]*PrivValidator, numValidators)
	for i, val := range valSet.Validators {
		privVals[i] = privValsByAddr[string(val.Address)]
	}
	return valSet, privVals
}
