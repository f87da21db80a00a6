package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenchain/treasury-executor/disbursement"
)

func TestFromProposal_MapsToDraft(t *testing.T) {
	p := TreasuryDirectiveProposal{
		ID:              42,
		Transfer:        TreasuryTransfer{To: "treasury.dest.9", Amount: 500, Memo: "grant"},
		ScheduledEpoch:  10,
		RawDependencies: []byte("[1,2,3]"),
		SubmitTime:      time.Unix(1_700_000_000, 0).UTC(),
	}

	d, err := FromProposal(p)
	require.NoError(t, err)
	require.Equal(t, uint64(42), d.ID)
	require.Equal(t, disbursement.StatusDraft, d.Status)
	require.Equal(t, []uint64{1, 2, 3}, d.Dependencies)
	require.Equal(t, uint64(500), d.Amount)
}

func TestFromProposal_RejectsZeroAmount(t *testing.T) {
	p := TreasuryDirectiveProposal{ID: 1, Transfer: TreasuryTransfer{To: "x", Amount: 0}}
	_, err := FromProposal(p)
	require.ErrorIs(t, err, disbursement.ErrInvalidAmount)
}

func TestFromProposal_StoresOversizeMemoVerbatim(t *testing.T) {
	big := make([]byte, disbursement.MaxMemoBytes+100)
	for i := range big {
		big[i] = 'x'
	}
	p := TreasuryDirectiveProposal{ID: 1, Transfer: TreasuryTransfer{To: "x", Amount: 1, Memo: string(big)}}
	d, err := FromProposal(p)
	require.NoError(t, err)
	require.Len(t, d.Memo, disbursement.MaxMemoBytes+100)
	require.Equal(t, big, d.Memo)
}

func TestFromProposal_PropagatesDependencyParseError(t *testing.T) {
	p := TreasuryDirectiveProposal{ID: 1, Transfer: TreasuryTransfer{To: "x", Amount: 1}, RawDependencies: []byte("[not-an-int]")}
	_, err := FromProposal(p)
	require.Error(t, err)
}

func TestParseAmountWei(t *testing.T) {
	v, err := ParseAmountWei("123456")
	require.NoError(t, err)
	require.Equal(t, uint64(123456), v)

	_, err = ParseAmountWei("not-a-number")
	require.Error(t, err)
}
