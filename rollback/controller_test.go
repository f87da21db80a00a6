package rollback

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/store"
)

func seed(t *testing.T, s store.Store, d *disbursement.Disbursement) {
	t.Helper()
	require.NoError(t, s.PutDisbursement(d))
}

func TestController_RollBack_TransitionsExecutedToRolledBack(t *testing.T) {
	s := store.NewMemStore()
	seed(t, s, &disbursement.Disbursement{ID: 1, Destination: "d", Amount: 10, Status: disbursement.StatusExecuted, TxHash: "0xabcd"})

	c := New(s)
	_, err := c.RollBack(1, "governance reversal")
	require.NoError(t, err)

	d, _, err := s.GetDisbursement(1)
	require.NoError(t, err)
	require.Equal(t, disbursement.StatusRolledBack, d.Status)
	require.Equal(t, "governance reversal", d.LastError)
}

func TestController_RollBack_CascadesCancelToDependents(t *testing.T) {
	s := store.NewMemStore()
	seed(t, s, &disbursement.Disbursement{ID: 1, Destination: "d", Amount: 10, Status: disbursement.StatusExecuted, TxHash: "0xabcd"})
	seed(t, s, &disbursement.Disbursement{ID: 2, Destination: "d", Amount: 5, Status: disbursement.StatusQueued, Dependencies: []uint64{1}})
	seed(t, s, &disbursement.Disbursement{ID: 3, Destination: "d", Amount: 5, Status: disbursement.StatusTimelocked, Dependencies: []uint64{1}, ScheduledEpoch: 10})
	seed(t, s, &disbursement.Disbursement{ID: 4, Destination: "d", Amount: 5, Status: disbursement.StatusDraft})

	c := New(s)
	res, err := c.RollBack(1, "bad destination")
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{2, 3}, res.CancelledDependents)

	d2, _, _ := s.GetDisbursement(2)
	require.Equal(t, disbursement.StatusCancelled, d2.Status)
	d3, _, _ := s.GetDisbursement(3)
	require.Equal(t, disbursement.StatusCancelled, d3.Status)
	d4, _, _ := s.GetDisbursement(4)
	require.Equal(t, disbursement.StatusDraft, d4.Status)
}

func TestController_RollBack_RejectsNonExecuted(t *testing.T) {
	s := store.NewMemStore()
	seed(t, s, &disbursement.Disbursement{ID: 1, Destination: "d", Amount: 10, Status: disbursement.StatusQueued})

	c := New(s)
	_, err := c.RollBack(1, "reason")
	require.Error(t, err)
}

func TestController_RollBack_UnknownID(t *testing.T) {
	s := store.NewMemStore()
	c := New(s)
	_, err := c.RollBack(99, "reason")
	require.ErrorIs(t, err, disbursement.ErrUnknownID)
}
