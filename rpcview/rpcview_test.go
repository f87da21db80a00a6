package rpcview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/snapshot"
	"github.com/lumenchain/treasury-executor/store"
)

func TestGetBalance_SumsPendingAmounts(t *testing.T) {
	s := store.NewMemStore()
	require.NoError(t, s.PutDisbursement(&disbursement.Disbursement{ID: 1, Destination: "d", Amount: 100, Status: disbursement.StatusQueued}))
	require.NoError(t, s.PutDisbursement(&disbursement.Disbursement{ID: 2, Destination: "d", Amount: 200, Status: disbursement.StatusTimelocked}))
	require.NoError(t, s.PutDisbursement(&disbursement.Disbursement{ID: 3, Destination: "d", Amount: 50, TxHash: "0xabcd", Status: disbursement.StatusExecuted}))
	require.NoError(t, s.StoreExecutorSnapshot(&snapshot.Snapshot{TickEpoch: 7, Identity: "node-a"}))

	bal, err := GetBalance(s)
	require.NoError(t, err)
	require.Equal(t, uint64(300), bal.PendingTotal)
	require.Equal(t, uint64(7), bal.LastTickEpoch)
	require.Equal(t, "node-a", bal.ActiveIdentity)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	s := store.NewMemStore()
	for i := uint64(1); i <= 5; i++ {
		status := disbursement.StatusQueued
		if i%2 == 0 {
			status = disbursement.StatusDraft
		}
		require.NoError(t, s.PutDisbursement(&disbursement.Disbursement{ID: i, Destination: "d", Amount: 1, Status: status}))
	}

	queued := disbursement.StatusQueued
	page, err := List(s, &queued, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.False(t, page.HasMore)

	page, err = List(s, nil, 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.True(t, page.HasMore)
}

func TestGetShow_ReturnsDisbursementAndIntent(t *testing.T) {
	s := store.NewMemStore()
	require.NoError(t, s.PutDisbursement(&disbursement.Disbursement{ID: 1, Destination: "d", Amount: 1, Status: disbursement.StatusQueued, CreatedAt: time.Now(), UpdatedAt: time.Now()}))

	show, ok, err := GetShow(s, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, show.Disbursement)
	require.Nil(t, show.Intent)

	_, ok, err = GetShow(s, 99)
	require.NoError(t, err)
	require.False(t, ok)
}
