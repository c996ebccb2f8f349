package types

import (
	"crypto/sha256"
)

// Version is the global index of a committed transaction in the ledger.
type Version = uint64

// Transaction is a single user transaction as delivered by the streaming
// service and persisted by storage. The payload is opaque to the sync
// driver.
type Transaction struct {
	Payload []byte
}

// Hash returns the SHA256 digest of the transaction payload.
func (tx Transaction) Hash() []byte {
	hash := sha256.Sum256(tx.Payload)
	return hash[:]
}

// ContractEvent is an event emitted during transaction execution, fanned
// out to event subscribers once the emitting transaction is committed.
type ContractEvent struct {
	Key            []byte
	SequenceNumber uint64
	Data           []byte
}

// TransactionInfo is the per-version record kept by storage for every
// committed transaction.
type TransactionInfo struct {
	Version         Version
	TransactionHash []byte
}
