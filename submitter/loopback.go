package submitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/lumenchain/treasury-executor/intent"
)

// LoopbackSubmitter is a test/dev Submitter that never touches a real
// ledger: it derives a deterministic tx_hash from the intent payload and
// records it in memory, keyed by (DisbursementID, Nonce) so a duplicate
// submission of the same intent after a crash-restart returns the original
// tx_hash instead of minting a second one (§4.6).
type LoopbackSubmitter struct {
	mu     sync.Mutex
	ledger map[submissionKey]string
	fail   func(it *intent.SignedExecutionIntent) error
}

type submissionKey struct {
	disbursementID uint64
	nonce          uint64
}

// NewLoopbackSubmitter constructs a LoopbackSubmitter. fail, if non-nil, is
// consulted first on every Submit call, including a resubmission of an
// intent already on the ledger, and lets tests inject classified failures
// without a real transport.
func NewLoopbackSubmitter(fail func(it *intent.SignedExecutionIntent) error) *LoopbackSubmitter {
	return &LoopbackSubmitter{
		ledger: make(map[submissionKey]string),
		fail:   fail,
	}
}

func (s *LoopbackSubmitter) Submit(ctx context.Context, it *intent.SignedExecutionIntent) (string, error) {
	key := submissionKey{disbursementID: it.DisbursementID, nonce: it.Nonce}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		if err := s.fail(it); err != nil {
			return "", err
		}
	}

	if existing, ok := s.ledger[key]; ok {
		return existing, nil
	}

	txHash := deriveTxHash(it)
	s.ledger[key] = txHash
	return txHash, nil
}

// Count reports how many distinct intents have been recorded, for tests
// asserting no double-submission occurred.
func (s *LoopbackSubmitter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

// Lookup implements ReconcileSource: it reports whether (disbursementID,
// nonce) already has a recorded tx_hash, independent of the error a
// concurrent Submit call for the same key may have returned.
func (s *LoopbackSubmitter) Lookup(disbursementID, nonce uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txHash, ok := s.ledger[submissionKey{disbursementID: disbursementID, nonce: nonce}]
	return txHash, ok
}

// Seed records a tx_hash out of band, as if the real ledger had already
// accepted the submission through a channel the local Submit call never
// observed (e.g. the process crashed after the ledger wrote it but before
// the response reached this submitter). Used by tests to reproduce the
// "crash-returned without confirming" scenario (§9 design notes).
func (s *LoopbackSubmitter) Seed(disbursementID, nonce uint64, txHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[submissionKey{disbursementID: disbursementID, nonce: nonce}] = txHash
}

func deriveTxHash(it *intent.SignedExecutionIntent) string {
	h := sha256.New()
	h.Write(it.Payload)
	h.Write(it.Signature)
	sum := h.Sum(nil)
	return fmt.Sprintf("0x%s", hex.EncodeToString(sum))
}
