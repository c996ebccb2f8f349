package statesync

import (
	"context"
	"sync"

	"github.com/lumenchain/lumen/types"
)

// mockStreamingClient records stream requests and termination feedback.
type mockStreamingClient struct {
	mtx sync.Mutex

	listeners     []*DataStreamListener
	startVersions []types.Version
	feedback      []feedbackRecord

	requestErr   error
	terminateErr error
}

type feedbackRecord struct {
	id       NotificationID
	feedback NotificationFeedback
}

func newMockStreamingClient() *mockStreamingClient {
	return &mockStreamingClient{}
}

func (m *mockStreamingClient) RequestStream(
	_ context.Context,
	startVersion types.Version,
	_ *types.LedgerInfoWithSignatures,
) (*DataStreamListener, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.requestErr != nil {
		return nil, m.requestErr
	}
	listener := NewDataStreamListener(16)
	m.listeners = append(m.listeners, listener)
	m.startVersions = append(m.startVersions, startVersion)
	return listener, nil
}

func (m *mockStreamingClient) TerminateStreamWithFeedback(
	_ context.Context,
	id NotificationID,
	feedback NotificationFeedback,
) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.feedback = append(m.feedback, feedbackRecord{id: id, feedback: feedback})
	return m.terminateErr
}

func (m *mockStreamingClient) numStreams() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.listeners)
}

func (m *mockStreamingClient) listener(i int) *DataStreamListener {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.listeners[i]
}

func (m *mockStreamingClient) startVersion(i int) types.Version {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.startVersions[i]
}

func (m *mockStreamingClient) allFeedback() []feedbackRecord {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make([]feedbackRecord, len(m.feedback))
	copy(out, m.feedback)
	return out
}

// mockStateReader serves startup and latest-transaction records from
// memory.
type mockStateReader struct {
	mtx sync.Mutex

	startupInfo  *types.StartupInfo
	latestTxInfo *types.TransactionInfo

	startupErr error
	txInfoErr  error
}

func newMockStateReader(
	epochState *types.EpochState,
	latestLedgerInfo *types.LedgerInfoWithSignatures,
	latestVersion types.Version,
) *mockStateReader {
	return &mockStateReader{
		startupInfo: &types.StartupInfo{
			EpochState:       epochState,
			LatestLedgerInfo: latestLedgerInfo,
		},
		latestTxInfo: &types.TransactionInfo{Version: latestVersion},
	}
}

func (m *mockStateReader) GetStartupInfo() (*types.StartupInfo, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.startupErr != nil {
		return nil, m.startupErr
	}
	return m.startupInfo, nil
}

func (m *mockStateReader) GetLatestTransactionInfo() (*types.TransactionInfo, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.txInfoErr != nil {
		return nil, m.txInfoErr
	}
	return m.latestTxInfo, nil
}

func (m *mockStateReader) setLatest(liws *types.LedgerInfoWithSignatures, epochState *types.EpochState) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.startupInfo = &types.StartupInfo{
		EpochState:       epochState,
		LatestLedgerInfo: liws,
	}
	m.latestTxInfo = &types.TransactionInfo{Version: liws.LedgerInfo.Version}
}

func (m *mockStateReader) latestVersion() types.Version {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.latestTxInfo.Version
}

// mockSynchronizer records applied batches and optionally mirrors them
// into a state reader, standing in for the execution/storage pipeline.
type mockSynchronizer struct {
	mtx sync.Mutex

	applied  []appliedBatch
	applyErr error
	onApply  func(batch appliedBatch)
}

type appliedBatch struct {
	firstVersion types.Version
	transactions []types.Transaction
	events       []types.ContractEvent
	proof        *types.LedgerInfoWithSignatures
}

func (m *mockSynchronizer) ApplyTransactionBatch(
	_ context.Context,
	firstVersion types.Version,
	transactions []types.Transaction,
	events []types.ContractEvent,
	proof *types.LedgerInfoWithSignatures,
) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.applyErr != nil {
		return m.applyErr
	}
	batch := appliedBatch{
		firstVersion: firstVersion,
		transactions: transactions,
		events:       events,
		proof:        proof,
	}
	m.applied = append(m.applied, batch)
	if m.onApply != nil {
		m.onApply(batch)
	}
	return nil
}

func (m *mockSynchronizer) numApplied() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.applied)
}

// mockMempoolNotifier records commit notifications to the mempool.
type mockMempoolNotifier struct {
	mtx sync.Mutex

	notified   [][]types.Transaction
	timestamps []uint64
	err        error
}

func (m *mockMempoolNotifier) NotifyCommittedTransactions(
	_ context.Context,
	transactions []types.Transaction,
	blockTimestampUsecs uint64,
) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, transactions)
	m.timestamps = append(m.timestamps, blockTimestampUsecs)
	return nil
}

func (m *mockMempoolNotifier) numNotified() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.notified)
}

func (m *mockMempoolNotifier) notifiedAt(i int) ([]types.Transaction, uint64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.notified[i], m.timestamps[i]
}

func (m *mockMempoolNotifier) setErr(err error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.err = err
}

// mockEventNotifier records committed events.
type mockEventNotifier struct {
	mtx sync.Mutex

	versions []types.Version
	events   [][]types.ContractEvent
	err      error
}

func (m *mockEventNotifier) NotifyEvents(
	_ context.Context,
	version types.Version,
	events []types.ContractEvent,
) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.err != nil {
		return m.err
	}
	m.versions = append(m.versions, version)
	m.events = append(m.events, events)
	return nil
}

func (m *mockEventNotifier) numNotified() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.versions)
}
