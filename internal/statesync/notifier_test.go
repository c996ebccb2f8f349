package statesync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenchain/lumen/libs/log"
	"github.com/lumenchain/lumen/types"
)

func makeCommitted(n int) CommittedTransactions {
	committed := CommittedTransactions{}
	for i := 0; i < n; i++ {
		committed.Transactions = append(committed.Transactions, types.Transaction{Payload: []byte{byte(i)}})
		committed.Events = append(committed.Events, types.ContractEvent{SequenceNumber: uint64(i)})
	}
	return committed
}

func TestHandleCommittedTransactions(t *testing.T) {
	ctx := context.Background()
	logger := log.NewTestingLogger(t)

	valSet, privVals := types.RandValidatorSet(4, 10)
	epochState := types.NewEpochState(5, valSet)
	liws := makeSignedLedgerInfo(t, types.LedgerInfo{
		Epoch:          5,
		Version:        110,
		TimestampUsecs: 987654,
	}, privVals[:3])
	reader := newMockStateReader(epochState, liws, 110)

	mempoolNotifier := &mockMempoolNotifier{}
	eventNotifier := &mockEventNotifier{}

	HandleCommittedTransactions(
		ctx, makeCommitted(3), reader, mempoolNotifier, eventNotifier, NopMetrics(), logger,
	)

	require.Equal(t, 1, mempoolNotifier.numNotified())
	require.Len(t, mempoolNotifier.notified[0], 3)
	// the block timestamp comes from the ledger info storage reports, not
	// from the caller
	assert.EqualValues(t, 987654, mempoolNotifier.timestamps[0])

	require.Equal(t, 1, eventNotifier.numNotified())
	assert.EqualValues(t, 110, eventNotifier.versions[0])
	assert.Len(t, eventNotifier.events[0], 3)
}

func TestHandleCommittedTransactions_RefetchFailureAbandons(t *testing.T) {
	ctx := context.Background()
	logger := log.NewTestingLogger(t)

	valSet, _ := types.RandValidatorSet(4, 10)
	reader := newMockStateReader(types.NewEpochState(5, valSet), nil, 110)
	reader.txInfoErr = errors.New("disk exploded")

	mempoolNotifier := &mockMempoolNotifier{}
	eventNotifier := &mockEventNotifier{}

	HandleCommittedTransactions(
		ctx, makeCommitted(3), reader, mempoolNotifier, eventNotifier, NopMetrics(), logger,
	)

	// the whole notification step is abandoned; nobody hears stale news
	assert.Equal(t, 0, mempoolNotifier.numNotified())
	assert.Equal(t, 0, eventNotifier.numNotified())
}

func TestHandleCommittedTransactions_MempoolFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	logger := log.NewTestingLogger(t)

	valSet, privVals := types.RandValidatorSet(4, 10)
	liws := makeSignedLedgerInfo(t, types.LedgerInfo{Epoch: 5, Version: 110}, privVals[:3])
	reader := newMockStateReader(types.NewEpochState(5, valSet), liws, 110)

	mempoolNotifier := &mockMempoolNotifier{err: errors.New("mempool unavailable")}
	eventNotifier := &mockEventNotifier{}

	// must not panic or propagate; event subscribers are still notified
	HandleCommittedTransactions(
		ctx, makeCommitted(2), reader, mempoolNotifier, eventNotifier, NopMetrics(), logger,
	)

	assert.Equal(t, 1, eventNotifier.numNotified())
	// storage's view of the synced version is untouched by the failure
	assert.EqualValues(t, 110, reader.latestVersion())
}
