package statesync

import (
	"context"

	"github.com/lumenchain/lumen/types"
)

// NotificationID identifies one data notification within a stream. All
// feedback to the streaming service is keyed by it.
type NotificationID = uint64

// NotificationFeedback describes why a stream is being abandoned (or that
// it completed normally), reported back to the streaming service.
type NotificationFeedback int

const (
	// FeedbackEndOfStream reports normal stream completion.
	FeedbackEndOfStream NotificationFeedback = iota
	// FeedbackEmptyPayloadData reports a stream that produced no usable
	// data (e.g. repeated fetch timeouts).
	FeedbackEmptyPayloadData
	// FeedbackInvalidPayloadData reports payload contents that could not
	// be applied.
	FeedbackInvalidPayloadData
	// FeedbackPayloadProofFailed reports a payload whose proof failed
	// verification against the trusted epoch state.
	FeedbackPayloadProofFailed
	// FeedbackPayloadTypeIsIncorrect reports a payload variant that was
	// unexpected at this point in the protocol.
	FeedbackPayloadTypeIsIncorrect
)

func (f NotificationFeedback) String() string {
	switch f {
	case FeedbackEndOfStream:
		return "end_of_stream"
	case FeedbackEmptyPayloadData:
		return "empty_payload_data"
	case FeedbackInvalidPayloadData:
		return "invalid_payload_data"
	case FeedbackPayloadProofFailed:
		return "payload_proof_failed"
	case FeedbackPayloadTypeIsIncorrect:
		return "payload_type_is_incorrect"
	default:
		return "unknown"
	}
}

// DataPayload is the content variant of a data notification.
type DataPayload interface {
	isDataPayload()
}

// TransactionsWithProof carries a batch of transactions (and the events
// they emitted) starting at FirstVersion. If Proof is set, the batch proves
// a new target ledger info that the stream's subsequent data chains to.
type TransactionsWithProof struct {
	FirstVersion types.Version
	Transactions []types.Transaction
	Events       []types.ContractEvent
	Proof        *types.LedgerInfoWithSignatures
}

// TransactionOutputsWithProof carries a batch of transactions together with
// their pre-computed outputs, so the node can apply them without
// re-execution.
type TransactionOutputsWithProof struct {
	FirstVersion types.Version
	Transactions []types.Transaction
	Outputs      [][]byte
	Events       []types.ContractEvent
	Proof        *types.LedgerInfoWithSignatures
}

// EndOfStream marks normal stream completion.
type EndOfStream struct{}

func (TransactionsWithProof) isDataPayload()       {}
func (TransactionOutputsWithProof) isDataPayload() {}
func (EndOfStream) isDataPayload()                 {}

// DataNotification is one unit of data delivered by the streaming service.
// Every notification must eventually be answered with feedback referencing
// its ID, or the stream never advances.
type DataNotification struct {
	ID      NotificationID
	Payload DataPayload
}

// DataStreamListener is the receive side of an active data stream. The
// consecutive-timeout counter is owned by the driver loop; the streaming
// service only writes to the channel.
type DataStreamListener struct {
	C chan DataNotification

	// ConsecutiveTimeouts counts fetches that timed out since the last
	// successful fetch on this stream.
	ConsecutiveTimeouts uint64
}

// NewDataStreamListener returns a listener with the given channel capacity.
func NewDataStreamListener(capacity int) *DataStreamListener {
	return &DataStreamListener{
		C: make(chan DataNotification, capacity),
	}
}

// StreamingClient is the abstract contract of the data streaming service.
// One concrete implementation is swappable for tests.
type StreamingClient interface {
	// RequestStream opens a stream that serves verified-data notifications
	// starting at startVersion. A nil target requests continuous syncing.
	RequestStream(ctx context.Context, startVersion types.Version, target *types.LedgerInfoWithSignatures) (*DataStreamListener, error)

	// TerminateStreamWithFeedback reports success/failure feedback for the
	// notification that ended the stream.
	TerminateStreamWithFeedback(ctx context.Context, id NotificationID, feedback NotificationFeedback) error
}

// StorageSynchronizer is the execution/storage collaborator that durably
// applies verified transaction batches. A batch is either fully committed
// together with its proof ledger info or not committed at all.
type StorageSynchronizer interface {
	ApplyTransactionBatch(
		ctx context.Context,
		firstVersion types.Version,
		transactions []types.Transaction,
		events []types.ContractEvent,
		proofLedgerInfo *types.LedgerInfoWithSignatures,
	) error
}
