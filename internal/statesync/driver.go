package statesync

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/lumenchain/lumen/config"
	"github.com/lumenchain/lumen/libs/log"
	"github.com/lumenchain/lumen/libs/service"
	"github.com/lumenchain/lumen/types"
)

// Driver is the state-synchronization driver: a single logical task that
// consumes a stream of verified-data notifications, verifies them against
// the trusted epoch state, hands them to the storage synchronizer, and
// notifies downstream consumers of every durable commit, in strict version
// order with no pipelining.
//
// Anything that invalidates trust in the current stream (verification
// failure, invalid payload, critical timeout) tears the stream down and
// rebuilds it from freshly re-read storage state. Anything that invalidates
// trust in storage itself (storage error, version overflow) stops the
// driver.
type Driver struct {
	service.BaseService
	logger log.Logger

	cfg             *config.StateSyncConfig
	streamingClient StreamingClient
	storage         StateReader
	synchronizer    StorageSynchronizer
	mempoolNotifier MempoolNotifier
	eventNotifier   EventNotifier
	metrics         *Metrics

	// owned by the sync loop; rebuilt on every stream termination
	activeDataStream   *DataStreamListener
	streamState        *SpeculativeStreamState
	lastNotificationID NotificationID
	notificationSeen   bool
}

// NewDriver wires the driver to its collaborators. The driver starts
// syncing when its service is started and runs until its context is
// canceled or a fatal error occurs.
func NewDriver(
	logger log.Logger,
	cfg *config.StateSyncConfig,
	streamingClient StreamingClient,
	storage StateReader,
	synchronizer StorageSynchronizer,
	mempoolNotifier MempoolNotifier,
	eventNotifier EventNotifier,
	metrics *Metrics,
) *Driver {
	d := &Driver{
		logger:          logger,
		cfg:             cfg,
		streamingClient: streamingClient,
		storage:         storage,
		synchronizer:    synchronizer,
		mempoolNotifier: mempoolNotifier,
		eventNotifier:   eventNotifier,
		metrics:         metrics,
	}
	d.BaseService = *service.NewBaseService(logger, "StateSyncDriver", d)
	return d
}

func (d *Driver) OnStart(ctx context.Context) error {
	if err := d.cfg.ValidateBasic(); err != nil {
		return err
	}
	if err := InitializeSyncVersionGauges(d.storage, d.metrics); err != nil {
		return err
	}

	go d.syncLoop(ctx)
	return nil
}

func (d *Driver) OnStop() {}

func (d *Driver) syncLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if d.activeDataStream == nil {
			if !d.initializeActiveStream(ctx) {
				return
			}
			if d.activeDataStream == nil {
				continue
			}
		}

		dataNotification, err := GetDataNotification(
			ctx, d.cfg.MaxStreamWait, d.cfg.MaxConsecutiveStreamTimeouts, d.activeDataStream,
		)
		if err != nil {
			if !d.handleFetchError(ctx, err) {
				return
			}
			continue
		}

		d.lastNotificationID = dataNotification.ID
		d.notificationSeen = true
		if !d.processNotification(ctx, dataNotification) {
			return
		}
	}
}

// initializeActiveStream rebuilds the trust state from storage and opens a
// new stream. It returns false on fatal errors. A failure to open the
// stream itself is retried on the next iteration (activeDataStream stays
// nil).
func (d *Driver) initializeActiveStream(ctx context.Context) bool {
	epochState, err := FetchLatestEpochState(d.storage)
	if err != nil {
		d.logger.Error("failed to fetch the latest epoch state", "err", err)
		return false
	}
	syncedVersion, err := FetchLatestSyncedVersion(d.storage)
	if err != nil {
		d.logger.Error("failed to fetch the latest synced version", "err", err)
		return false
	}

	d.streamState = NewSpeculativeStreamState(epochState, nil, syncedVersion)
	startVersion, err := d.streamState.ExpectedNextVersion()
	if err != nil {
		d.logger.Error("cannot compute the next version to sync", "err", err)
		return false
	}

	listener, err := d.streamingClient.RequestStream(ctx, startVersion, nil)
	if err != nil {
		d.logger.Error("failed to open a new data stream; retrying", "err", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d.cfg.MaxStreamWait):
		}
		return true
	}

	d.activeDataStream = listener
	d.logger.Info("opened a new data stream",
		"start_version", startVersion,
		"epoch", epochState.Epoch,
	)
	return true
}

// handleFetchError reacts to a failed fetch. It returns false only when the
// driver should stop.
func (d *Driver) handleFetchError(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var recoverable ErrStreamTimeout
	if errors.As(err, &recoverable) {
		d.metrics.StreamTimeouts.Add(1)
		d.logger.Debug("timed out waiting for a data notification; retrying the fetch", "err", err)
		return true
	}

	var critical ErrCriticalStreamTimeout
	if errors.As(err, &critical) {
		d.metrics.StreamTimeouts.Add(1)
		d.logger.Error("the data stream has timed out too many times; rebuilding it", "err", err)
		if d.notificationSeen {
			d.terminateActiveStream(ctx, d.lastNotificationID, FeedbackEmptyPayloadData)
		} else {
			// nothing ever arrived on this stream, so there is no
			// notification id to key feedback by
			d.discardActiveStream()
		}
		return true
	}

	d.logger.Error("unexpected error fetching a data notification", "err", err)
	return false
}

// processNotification drives one notification through verification,
// storage application and downstream notification. It returns false only
// when the driver should stop.
func (d *Driver) processNotification(ctx context.Context, dataNotification DataNotification) bool {
	switch payload := dataNotification.Payload.(type) {
	case TransactionsWithProof:
		return d.applyTransactionBatch(ctx, dataNotification.ID, batchPayload{
			firstVersion: payload.FirstVersion,
			transactions: payload.Transactions,
			events:       payload.Events,
			proof:        payload.Proof,
		}, false)

	case TransactionOutputsWithProof:
		return d.applyTransactionBatch(ctx, dataNotification.ID, batchPayload{
			firstVersion: payload.FirstVersion,
			transactions: payload.Transactions,
			events:       payload.Events,
			proof:        payload.Proof,
		}, true)

	default:
		// only the end-of-stream marker is valid here
		if err := HandleEndOfStreamOrInvalidPayload(ctx, d.streamingClient, d.logger, dataNotification); err != nil {
			d.logger.Error("the data stream ended abnormally", "err", err)
		}
		d.discardActiveStream()
		return true
	}
}

type batchPayload struct {
	firstVersion types.Version
	transactions []types.Transaction
	events       []types.ContractEvent
	proof        *types.LedgerInfoWithSignatures
}

func (d *Driver) applyTransactionBatch(
	ctx context.Context,
	notificationID NotificationID,
	batch batchPayload,
	appliedOutputs bool,
) bool {
	expectedVersion, err := d.streamState.ExpectedNextVersion()
	if err != nil {
		d.logger.Error("cannot compute the next expected version; stopping the driver", "err", err)
		return false
	}

	switch {
	case len(batch.transactions) == 0:
		d.terminateActiveStream(ctx, notificationID, FeedbackEmptyPayloadData)
		return true

	case uint64(len(batch.transactions)) > d.cfg.MaxChunkSize:
		d.logger.Error("notification batch exceeds the maximum chunk size",
			"batch_size", len(batch.transactions),
			"max_chunk_size", d.cfg.MaxChunkSize,
		)
		d.terminateActiveStream(ctx, notificationID, FeedbackInvalidPayloadData)
		return true

	case batch.firstVersion != expectedVersion:
		d.logger.Error("notification batch starts at an unexpected version",
			"expected_version", expectedVersion,
			"first_version", batch.firstVersion,
		)
		d.terminateActiveStream(ctx, notificationID, FeedbackInvalidPayloadData)
		return true
	}

	batchSize := types.Version(len(batch.transactions))
	if expectedVersion > math.MaxUint64-(batchSize-1) {
		d.logger.Error("the batch's final version is not representable; stopping the driver",
			"err", ErrIntegerOverflow,
			"first_version", expectedVersion,
			"batch_size", batchSize,
		)
		return false
	}

	// A batch may prove a ledger info beyond the current target; verify it
	// before trusting it. Epoch rollover happens inside the verification.
	if batch.proof != nil && d.proofExtendsTarget(batch.proof) {
		if err := d.streamState.UpdateProofLedgerInfo(batch.proof); err != nil {
			d.metrics.VerificationFailures.Add(1)
			d.logger.Error("the batch's proof ledger info failed verification", "err", err)
			d.terminateActiveStream(ctx, notificationID, FeedbackPayloadProofFailed)
			return true
		}
	}

	if !d.streamState.HasProofLedgerInfo() {
		d.logger.Error("received a transaction batch with no proof ledger info to chain to")
		d.terminateActiveStream(ctx, notificationID, FeedbackInvalidPayloadData)
		return true
	}

	if err := d.synchronizer.ApplyTransactionBatch(
		ctx, expectedVersion, batch.transactions, batch.events, d.streamState.ProofLedgerInfo(),
	); err != nil {
		d.logger.Error("failed to apply the transaction batch", "err", err)
		d.terminateActiveStream(ctx, notificationID, FeedbackInvalidPayloadData)
		return true
	}

	newSyncedVersion := expectedVersion + batchSize - 1
	d.streamState.UpdateSyncedVersion(newSyncedVersion)
	if appliedOutputs {
		d.metrics.AppliedTransactionOutputs.Set(float64(newSyncedVersion))
	} else {
		d.metrics.ExecutedTransactions.Set(float64(newSyncedVersion))
	}

	HandleCommittedTransactions(
		ctx,
		CommittedTransactions{Transactions: batch.transactions, Events: batch.events},
		d.storage,
		d.mempoolNotifier,
		d.eventNotifier,
		d.metrics,
		d.logger,
	)
	return true
}

// proofExtendsTarget reports whether the given ledger info proves a version
// beyond the current proof target.
func (d *Driver) proofExtendsTarget(proof *types.LedgerInfoWithSignatures) bool {
	if !d.streamState.HasProofLedgerInfo() {
		return true
	}
	return proof.LedgerInfo.Version > d.streamState.ProofLedgerInfo().LedgerInfo.Version
}

// terminateActiveStream sends feedback for the notification that ended the
// stream and discards the stream. A failed termination is logged, not
// retried: the stream is being abandoned either way.
func (d *Driver) terminateActiveStream(
	ctx context.Context,
	notificationID NotificationID,
	feedback NotificationFeedback,
) {
	if err := TerminateStreamWithFeedback(
		ctx, d.streamingClient, d.logger, notificationID, feedback,
	); err != nil {
		d.logger.Error("failed to terminate the data stream", "err", err)
	}
	d.discardActiveStream()
}

// discardActiveStream drops the stream and its trust state. The next loop
// iteration rebuilds both from storage.
func (d *Driver) discardActiveStream() {
	d.activeDataStream = nil
	d.streamState = nil
	d.lastNotificationID = 0
	d.notificationSeen = false
	d.metrics.TerminatedStreams.Add(1)
}
