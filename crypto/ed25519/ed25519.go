package ed25519

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	voi "github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
)

const (
	// PubKeySize is the size, in bytes, of public keys.
	PubKeySize = 32
	// PrivKeySize is the size, in bytes, of private keys, including the
	// public key suffix.
	PrivKeySize = 64
	// SignatureSize is the size, in bytes, of signatures.
	SignatureSize = 64

	// AddressSize is the size, in bytes, of a derived validator address.
	AddressSize = 20

	KeyType = "ed25519"
)

// PubKey implements signature verification for ed25519 public keys.
type PubKey []byte

// Address is the first 20 bytes of the SHA256 hash of the raw public key.
func (pubKey PubKey) Address() []byte {
	if len(pubKey) != PubKeySize {
		panic(fmt.Sprintf("pubkey is incorrect size: %d", len(pubKey)))
	}
	hash := sha256.Sum256(pubKey)
	return hash[:AddressSize]
}

// Bytes returns the raw public key bytes.
func (pubKey PubKey) Bytes() []byte {
	return []byte(pubKey)
}

// VerifySignature reports whether sig is a valid signature of msg under
// pubKey. Malformed keys and signatures simply fail verification.
func (pubKey PubKey) VerifySignature(msg, sig []byte) bool {
	if len(pubKey) != PubKeySize || len(sig) != SignatureSize {
		return false
	}
	return voi.Verify(voi.PublicKey(pubKey), msg, sig)
}

func (pubKey PubKey) Equals(other PubKey) bool {
	return bytes.Equal(pubKey, other)
}

func (pubKey PubKey) String() string {
	return fmt.Sprintf("PubKeyEd25519{%X}", []byte(pubKey))
}

func (pubKey PubKey) Type() string {
	return KeyType
}

// PrivKey implements signing for ed25519 private keys.
type PrivKey []byte

// Bytes returns the raw private key bytes.
func (privKey PrivKey) Bytes() []byte {
	return []byte(privKey)
}

// Sign produces a signature on the provided message.
func (privKey PrivKey) Sign(msg []byte) ([]byte, error) {
	if len(privKey) != PrivKeySize {
		return nil, fmt.Errorf("privkey is incorrect size: %d", len(privKey))
	}
	return voi.Sign(voi.PrivateKey(privKey), msg), nil
}

// PubKey returns the public key half of the private key.
func (privKey PrivKey) PubKey() PubKey {
	if len(privKey) != PrivKeySize {
		panic(fmt.Sprintf("privkey is incorrect size: %d", len(privKey)))
	}
	pubKey := make([]byte, PubKeySize)
	copy(pubKey, privKey[PubKeySize:])
	return PubKey(pubKey)
}

func (privKey PrivKey) Equals(other PrivKey) bool {
	return bytes.Equal(privKey, other)
}

func (privKey PrivKey) Type() string {
	return KeyType
}

// GenPrivKey generates a new ed25519 private key using crypto/rand.
func GenPrivKey() PrivKey {
	_, priv, err := voi.GenerateKey(rand.Reader)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ed25519 key: %v", err))
	}
	return PrivKey(priv)
}
