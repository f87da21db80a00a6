package signer

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/errclass"
	"github.com/lumenchain/treasury-executor/intent"
)

// NonceFloorReader is the minimal read surface ECDSASigner needs to
// consult the shared nonce floor before signing (§4.4 "Nonce discipline":
// "the signer is responsible for consulting the shared nonce_floor").
// store.Store satisfies this structurally.
type NonceFloorReader interface {
	LoadNonceFloor(identity string) (uint64, error)
}

// ECDSASigner is the reference implementation of the Signer contract
// (§6.2) over secp256k1. It treats the curve arithmetic and hash function
// as opaque capabilities per §1's non-goals: it never implements them, only
// calls into decred/dcrd and golang.org/x/crypto/sha3.
type ECDSASigner struct {
	identity   string
	key        *secp256k1.PrivateKey
	nonceFloor NonceFloorReader
}

// NewECDSASigner constructs a signer for identity, signing with key and
// consulting nonceFloor for the next nonce.
func NewECDSASigner(identity string, key *secp256k1.PrivateKey, nonceFloor NonceFloorReader) *ECDSASigner {
	return &ECDSASigner{identity: identity, key: key, nonceFloor: nonceFloor}
}

// ErrMissingKeyMaterial is a Storage-class signer error: without key
// material the signer cannot make progress, and per §4.4 step 7b this must
// bubble up as fatal to the tick caller without touching the circuit
// breaker.
var ErrMissingKeyMaterial = errclass.New(errclass.Storage, "signer: missing key material")

func (s *ECDSASigner) Sign(d *disbursement.Disbursement) (*intent.SignedExecutionIntent, error) {
	if s.key == nil {
		return nil, ErrMissingKeyMaterial
	}
	floor, err := s.nonceFloor.LoadNonceFloor(s.identity)
	if err != nil {
		return nil, errclass.New(errclass.Storage, fmt.Sprintf("signer: load nonce floor: %v", err))
	}
	nonce := floor + 1

	payload, err := encodePayload(d, nonce)
	if err != nil {
		return nil, errclass.New(errclass.Storage, fmt.Sprintf("signer: encode payload: %v", err))
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write(payload)
	digest := hash.Sum(nil)

	sig := ecdsa.Sign(s.key, digest)

	return &intent.SignedExecutionIntent{
		DisbursementID: d.ID,
		Nonce:          nonce,
		Payload:        payload,
		Signature:      sig.Serialize(),
	}, nil
}

// encodePayload builds the ledger-specific transaction payload: a flat,
// length-prefixed field concatenation rather than a packed binary format,
// favoring debuggability over size (the teacher's rawdb schema makes the
// same tradeoff for non-consensus-critical records). Amount is carried as
// a fixed-width uint256 so the wire shape matches the ledger's native
// numeric type even though the in-memory model keeps amount as uint64.
//
// This is the submission boundary §3 names for memo truncation: the stored
// record keeps the memo verbatim, but the signed/submitted payload carries
// at most MaxMemoBytes of it.
func encodePayload(d *disbursement.Disbursement, nonce uint64) ([]byte, error) {
	amount := uint256.NewInt(d.Amount)

	memo := d.Memo
	if len(memo) > disbursement.MaxMemoBytes {
		memo = memo[:disbursement.MaxMemoBytes]
	}

	buf := make([]byte, 0, 64+len(d.Destination)+len(memo))
	buf = appendUint64(buf, d.ID)
	buf = appendUint64(buf, nonce)
	buf = appendUint64(buf, d.ScheduledEpoch)
	buf = appendLenPrefixed(buf, []byte(d.Destination))
	amountBytes := amount.Bytes32()
	buf = append(buf, amountBytes[:]...)
	buf = appendLenPrefixed(buf, memo)
	return buf, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendLenPrefixed(buf, data []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(data)))
	buf = append(buf, tmp[:]...)
	return append(buf, data...)
}
