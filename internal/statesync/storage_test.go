package statesync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenchain/lumen/types"
)

func TestFetchLatestStorageState(t *testing.T) {
	valSet, privVals := types.RandValidatorSet(4, 10)
	epochState := types.NewEpochState(5, valSet)
	liws := makeSignedLedgerInfo(t, types.LedgerInfo{Epoch: 5, Version: 100}, privVals[:3])
	reader := newMockStateReader(epochState, liws, 100)

	gotEpochState, err := FetchLatestEpochState(reader)
	require.NoError(t, err)
	assert.True(t, epochState.Equals(gotEpochState))

	gotLedgerInfo, err := FetchLatestSyncedLedgerInfo(reader)
	require.NoError(t, err)
	assert.EqualValues(t, 100, gotLedgerInfo.LedgerInfo.Version)

	gotVersion, err := FetchLatestSyncedVersion(reader)
	require.NoError(t, err)
	assert.EqualValues(t, 100, gotVersion)
}

func TestFetchLatestStorageState_MissingStartupInfo(t *testing.T) {
	// a node with no genesis committed cannot sync
	reader := &mockStateReader{latestTxInfo: &types.TransactionInfo{Version: 0}}

	var storageErr ErrStorage
	_, err := FetchLatestEpochState(reader)
	require.ErrorAs(t, err, &storageErr)

	_, err = FetchLatestSyncedLedgerInfo(reader)
	require.ErrorAs(t, err, &storageErr)
}

func TestFetchLatestStorageState_ReadFailure(t *testing.T) {
	valSet, _ := types.RandValidatorSet(4, 10)
	reader := newMockStateReader(types.NewEpochState(5, valSet), nil, 100)
	reader.startupErr = errors.New("disk exploded")
	reader.txInfoErr = errors.New("disk exploded")

	var storageErr ErrStorage
	_, err := FetchLatestEpochState(reader)
	require.ErrorAs(t, err, &storageErr)

	_, err = FetchLatestSyncedVersion(reader)
	require.ErrorAs(t, err, &storageErr)
}

func TestFetchLatestSyncedVersion_MissingTransactionInfo(t *testing.T) {
	valSet, _ := types.RandValidatorSet(4, 10)
	epochState := types.NewEpochState(5, valSet)

	// startup info exists but the latest transaction info is missing;
	// that inconsistency is storage corruption
	reader := &mockStateReader{
		startupInfo: &types.StartupInfo{EpochState: epochState},
	}

	var storageErr ErrStorage
	_, err := FetchLatestSyncedVersion(reader)
	require.ErrorAs(t, err, &storageErr)
}

func TestInitializeSyncVersionGauges(t *testing.T) {
	valSet, _ := types.RandValidatorSet(4, 10)
	reader := newMockStateReader(types.NewEpochState(5, valSet), nil, 100)

	require.NoError(t, InitializeSyncVersionGauges(reader, NopMetrics()))

	reader.txInfoErr = errors.New("disk exploded")
	require.Error(t, InitializeSyncVersionGauges(reader, NopMetrics()))
}
