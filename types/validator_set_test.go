package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenchain/lumen/crypto/ed25519"
)

func signedLedgerInfo(t *testing.T, li LedgerInfo, signers []*PrivValidator) *LedgerInfoWithSignatures {
	t.Helper()
	liws := NewLedgerInfoWithSignatures(li)
	for _, pv := range signers {
		require.NoError(t, pv.SignLedgerInfo(liws))
	}
	return liws
}

func TestValidatorSet_VerifyLedgerInfo(t *testing.T) {
	valSet, privVals := RandValidatorSet(4, 10)
	li := LedgerInfo{Epoch: 1, Version: 50}

	// 3 of 4 validators (30 of 40 voting power) is a quorum
	liws := signedLedgerInfo(t, li, privVals[:3])
	require.NoError(t, valSet.VerifyLedgerInfo(liws))

	// all 4 is also a quorum
	liws = signedLedgerInfo(t, li, privVals)
	require.NoError(t, valSet.VerifyLedgerInfo(liws))
}

func TestValidatorSet_VerifyLedgerInfoBelowQuorum(t *testing.T) {
	valSet, privVals := RandValidatorSet(4, 10)
	li := LedgerInfo{Epoch: 1, Version: 50}

	// 2 of 4 validators is exactly 2/3 short of the strict >2/3 rule
	liws := signedLedgerInfo(t, li, privVals[:2])
	err := valSet.VerifyLedgerInfo(liws)
	require.Error(t, err)

	var quorumErr ErrNotEnoughVotingPowerSigned
	require.ErrorAs(t, err, &quorumErr)
	assert.EqualValues(t, 20, quorumErr.Got)
	assert.EqualValues(t, 26, quorumErr.Needed)

	// no signatures at all
	liws = NewLedgerInfoWithSignatures(li)
	require.ErrorAs(t, valSet.VerifyLedgerInfo(liws), &quorumErr)
}

func TestValidatorSet_VerifyLedgerInfoBadSignature(t *testing.T) {
	valSet, privVals := RandValidatorSet(4, 10)
	li := LedgerInfo{Epoch: 1, Version: 50}

	liws := signedLedgerInfo(t, li, privVals)

	// corrupt one signature; verification must fail even though the other
	// three signatures alone would form a quorum
	addr := valSet.Validators[0].Address
	liws.Signatures[string(addr)][3] ^= 0xff
	require.Error(t, valSet.VerifyLedgerInfo(liws))
}

func TestValidatorSet_VerifyLedgerInfoUnknownSigner(t *testing.T) {
	valSet, privVals := RandValidatorSet(4, 10)
	li := LedgerInfo{Epoch: 1, Version: 50}

	liws := signedLedgerInfo(t, li, privVals)

	outsider := &PrivValidator{PrivKey: ed25519.GenPrivKey()}
	require.NoError(t, outsider.SignLedgerInfo(liws))

	require.Error(t, valSet.VerifyLedgerInfo(liws))
}

func TestValidatorSet_VerifyLedgerInfoSignatureOverWrongBytes(t *testing.T) {
	valSet, privVals := RandValidatorSet(4, 10)

	// sign version 50, then present the signatures on version 51
	liws := signedLedgerInfo(t, LedgerInfo{Epoch: 1, Version: 50}, privVals)
	forged := NewLedgerInfoWithSignatures(LedgerInfo{Epoch: 1, Version: 51})
	forged.Signatures = liws.Signatures

	require.Error(t, valSet.VerifyLedgerInfo(forged))
}

func TestValidatorSet_Basics(t *testing.T) {
	valSet, _ := RandValidatorSet(4, 10)

	require.NoError(t, valSet.ValidateBasic())
	assert.Equal(t, 4, valSet.Size())
	assert.EqualValues(t, 40, valSet.TotalVotingPower())

	addr := valSet.Validators[2].Address
	assert.True(t, valSet.HasAddress(addr))
	idx, val := valSet.GetByAddress(addr)
	assert.Equal(t, 2, idx)
	assert.Equal(t, addr, val.Address)

	assert.False(t, valSet.HasAddress(ed25519.GenPrivKey().PubKey().Address()))

	vcopy := valSet.Copy()
	assert.True(t, valSet.Equals(vcopy))

	other, _ := RandValidatorSet(4, 10)
	assert.False(t, valSet.Equals(other))
}

func TestValidatorSet_ValidateBasicRejectsDuplicates(t *testing.T) {
	privKey := ed25519.GenPrivKey()
	val := NewValidator(privKey.PubKey(), 10)
	valSet := NewValidatorSet([]*Validator{val, val})
	require.Error(t, valSet.ValidateBasic())
}
