package submitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenchain/treasury-executor/errclass"
	"github.com/lumenchain/treasury-executor/intent"
)

func testIntent() *intent.SignedExecutionIntent {
	return &intent.SignedExecutionIntent{
		DisbursementID: 3,
		Nonce:          1,
		Payload:        []byte("payload"),
		Signature:      []byte("sig"),
	}
}

func TestLoopbackSubmitter_DuplicateSubmissionReturnsOriginalTxHash(t *testing.T) {
	s := NewLoopbackSubmitter(nil)
	ctx := context.Background()

	first, err := s.Submit(ctx, testIntent())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := s.Submit(ctx, testIntent())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, s.Count())
}

func TestLoopbackSubmitter_DistinctIntentsGetDistinctHashes(t *testing.T) {
	s := NewLoopbackSubmitter(nil)
	ctx := context.Background()

	a, err := s.Submit(ctx, testIntent())
	require.NoError(t, err)

	other := testIntent()
	other.Nonce = 2
	b, err := s.Submit(ctx, other)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.Equal(t, 2, s.Count())
}

func TestLoopbackSubmitter_InjectedFailurePropagatesClass(t *testing.T) {
	injected := errclass.New(errclass.Transient, "submit: connection reset")
	s := NewLoopbackSubmitter(func(it *intent.SignedExecutionIntent) error {
		return injected
	})

	_, err := s.Submit(context.Background(), testIntent())
	require.Error(t, err)

	var classified errclass.Classified
	require.ErrorAs(t, err, &classified)
	require.Equal(t, errclass.Transient, classified.Class())
	require.Equal(t, 0, s.Count())
}

func TestLoopbackSubmitter_RetryAfterTransientFailureSucceeds(t *testing.T) {
	attempts := 0
	s := NewLoopbackSubmitter(func(it *intent.SignedExecutionIntent) error {
		attempts++
		if attempts == 1 {
			return errclass.New(errclass.Transient, "submit: timeout")
		}
		return nil
	})
	ctx := context.Background()

	_, err := s.Submit(ctx, testIntent())
	require.Error(t, err)

	txHash, err := s.Submit(ctx, testIntent())
	require.NoError(t, err)
	require.NotEmpty(t, txHash)
}
