package disbursement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_RejectsZeroAmount(t *testing.T) {
	d := &Disbursement{Amount: 0, Status: StatusDraft}
	require.ErrorIs(t, d.Validate(), ErrInvalidAmount)
}

func TestValidate_StoresOversizeMemoVerbatim(t *testing.T) {
	d := &Disbursement{Amount: 1, Memo: make([]byte, MaxMemoBytes+1), Status: StatusDraft}
	require.NoError(t, d.Validate())
	require.Len(t, d.Memo, MaxMemoBytes+1)
}

func TestValidate_RequiresTxHashOnlyWhenSettled(t *testing.T) {
	d := &Disbursement{Amount: 1, Status: StatusExecuted}
	require.ErrorIs(t, d.Validate(), ErrTxHashInvariant)

	d.TxHash = "0xabcd"
	require.NoError(t, d.Validate())

	d2 := &Disbursement{Amount: 1, Status: StatusQueued, TxHash: "0xabcd"}
	require.ErrorIs(t, d2.Validate(), ErrTxHashInvariant)
}

func TestValidate_RejectsMalformedTxHash(t *testing.T) {
	d := &Disbursement{Amount: 1, Status: StatusExecuted, TxHash: "0xabc"}
	require.ErrorIs(t, d.Validate(), ErrTxHashFormat)

	d2 := &Disbursement{Amount: 1, Status: StatusExecuted, TxHash: "not-hex"}
	require.ErrorIs(t, d2.Validate(), ErrTxHashFormat)
}

func TestClone_IsIndependentOfOriginal(t *testing.T) {
	d := &Disbursement{ID: 1, Memo: []byte("hi"), Dependencies: []uint64{1, 2}}
	cp := d.Clone()

	cp.Memo[0] = 'x'
	cp.Dependencies[0] = 99

	require.Equal(t, byte('h'), d.Memo[0])
	require.Equal(t, uint64(1), d.Dependencies[0])
}
