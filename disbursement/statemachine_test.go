package disbursement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition_LegalEdges(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusVoting, true},
		{StatusVoting, StatusQueued, true},
		{StatusVoting, StatusCancelled, true},
		{StatusQueued, StatusTimelocked, true},
		{StatusQueued, StatusExecuted, true},
		{StatusTimelocked, StatusQueued, true},
		{StatusTimelocked, StatusExecuted, true},
		{StatusExecuted, StatusFinalized, true},
		{StatusExecuted, StatusRolledBack, true},
		{StatusDraft, StatusQueued, false},
		{StatusFinalized, StatusQueued, false},
		{StatusCancelled, StatusQueued, false},
		{StatusRolledBack, StatusExecuted, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransition_AppliesOnSuccess(t *testing.T) {
	d := &Disbursement{Status: StatusQueued}
	require.NoError(t, Transition(d, StatusExecuted))
	require.Equal(t, StatusExecuted, d.Status)
}

func TestTransition_RejectsIllegalEdge(t *testing.T) {
	d := &Disbursement{Status: StatusFinalized}
	err := Transition(d, StatusQueued)
	require.Error(t, err)
	var illegal *ErrIllegalTransition
	require.ErrorAs(t, err, &illegal)
	require.Equal(t, StatusFinalized, illegal.From)
	require.Equal(t, StatusQueued, illegal.To)
	require.Equal(t, StatusFinalized, d.Status)
}

func TestStatus_Terminal(t *testing.T) {
	require.True(t, StatusFinalized.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.True(t, StatusRolledBack.Terminal())
	require.False(t, StatusQueued.Terminal())
	require.False(t, StatusExecuted.Terminal())
}
