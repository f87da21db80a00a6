// Package signer defines the Signer contract (§6.2): it consults the nonce
// floor, constructs a ledger-specific payload, and returns a signed
// execution intent for a disbursement.
package signer

import (
	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/errclass"
	"github.com/lumenchain/treasury-executor/intent"
)

// Signer produces a SignedExecutionIntent for a disbursement. Implementations
// must read the shared nonce floor themselves so that intent.Nonce equals
// floor+1 at sign time (§4.4 "Nonce discipline"); cryptographic primitives
// are treated as an opaque capability (§1 non-goals) — this interface does
// not prescribe a curve or hash function.
type Signer interface {
	Sign(d *disbursement.Disbursement) (*intent.SignedExecutionIntent, error)
}

// Error is the SignerError contract of §6.2, carrying an errclass.Class
// discriminator so the executor can distinguish fatal storage/key-material
// failures from everything else.
type Error = errclass.Classified

// Func adapts a plain function to the Signer interface, for tests and
// simple wiring.
type Func func(d *disbursement.Disbursement) (*intent.SignedExecutionIntent, error)

func (f Func) Sign(d *disbursement.Disbursement) (*intent.SignedExecutionIntent, error) {
	return f(d)
}
