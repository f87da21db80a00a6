// Package submitter defines the Submitter contract (§6.3): it takes a
// signed execution intent and returns either a ledger tx_hash or a
// classified error the executor can act on.
package submitter

import (
	"context"

	"github.com/lumenchain/treasury-executor/errclass"
	"github.com/lumenchain/treasury-executor/intent"
)

// Submitter hands a signed intent to the underlying ledger. Implementations
// must be idempotent on duplicate submission of the same (DisbursementID,
// Nonce) pair: a resubmission after a crash between submit and persist must
// return the original tx_hash rather than double-spend (§4.6 "Idempotency").
type Submitter interface {
	Submit(ctx context.Context, it *intent.SignedExecutionIntent) (txHash string, err error)
}

// Error is the SubmitError contract of §6.3.
type Error = errclass.Classified

// ReconcileSource is optionally implemented by a Submitter that can answer,
// independent of a specific Submit call's return value, whether a given
// (DisbursementID, Nonce) pair already has a tx_hash on the ledger. The
// executor consults it before honoring a Cancelled classification, to
// resolve the spec's crash-returned-without-confirming open question in the
// "reconcile on restart" direction it names as preferred: an intent whose
// submission looked cancelled but actually landed is reconciled forward to
// Executed instead of being cancelled out from under a successful payment.
type ReconcileSource interface {
	Lookup(disbursementID, nonce uint64) (txHash string, ok bool)
}

// Func adapts a plain function to the Submitter interface, for tests.
type Func func(ctx context.Context, it *intent.SignedExecutionIntent) (string, error)

func (f Func) Submit(ctx context.Context, it *intent.SignedExecutionIntent) (string, error) {
	return f(ctx, it)
}
