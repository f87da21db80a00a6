package signer

import (
	"errors"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/errclass"
)

var errStoreDown = errors.New("store unavailable")

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

type fakeNonceFloor struct {
	floor uint64
	err   error
}

func (f *fakeNonceFloor) LoadNonceFloor(identity string) (uint64, error) {
	return f.floor, f.err
}

func testDisbursement() *disbursement.Disbursement {
	return &disbursement.Disbursement{
		ID:             7,
		Destination:    "treasury.dest.001",
		Amount:         42_000,
		Memo:           []byte("q3 grant"),
		ScheduledEpoch: 100,
		Status:         disbursement.StatusQueued,
		CreatedAt:      time.Unix(0, 0).UTC(),
		UpdatedAt:      time.Unix(0, 0).UTC(),
	}
}

func mustKey(t *testing.T) *secp256k1.PrivateKey {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

func TestECDSASigner_SignsWithNonceFloorPlusOne(t *testing.T) {
	key := mustKey(t)
	floor := &fakeNonceFloor{floor: 9}
	s := NewECDSASigner("treasurer-1", key, floor)

	it, err := s.Sign(testDisbursement())
	require.NoError(t, err)
	require.Equal(t, uint64(10), it.Nonce)
	require.Equal(t, uint64(7), it.DisbursementID)
	require.NotEmpty(t, it.Signature)
	require.NotEmpty(t, it.Payload)
}

func TestECDSASigner_SignatureVerifiesAgainstPayloadHash(t *testing.T) {
	key := mustKey(t)
	floor := &fakeNonceFloor{floor: 0}
	s := NewECDSASigner("treasurer-1", key, floor)

	it, err := s.Sign(testDisbursement())
	require.NoError(t, err)

	sig, err := ecdsa.ParseDERSignature(it.Signature)
	require.NoError(t, err)

	digest := keccak(it.Payload)
	require.True(t, sig.Verify(digest, key.PubKey()))
}

func TestECDSASigner_DifferentDisbursementsProduceDifferentPayloads(t *testing.T) {
	key := mustKey(t)
	s := NewECDSASigner("treasurer-1", key, &fakeNonceFloor{floor: 0})

	a, err := s.Sign(testDisbursement())
	require.NoError(t, err)

	other := testDisbursement()
	other.ID = 8
	b, err := s.Sign(other)
	require.NoError(t, err)

	require.NotEqual(t, a.Payload, b.Payload)
	require.NotEqual(t, a.Signature, b.Signature)
}

func TestECDSASigner_MissingKeyMaterialIsStorageClass(t *testing.T) {
	s := NewECDSASigner("treasurer-1", nil, &fakeNonceFloor{floor: 0})

	_, err := s.Sign(testDisbursement())
	require.Error(t, err)

	var classified errclass.Classified
	require.ErrorAs(t, err, &classified)
	require.Equal(t, errclass.Storage, classified.Class())
}

func TestECDSASigner_PayloadTruncatesOversizeMemo(t *testing.T) {
	key := mustKey(t)
	s := NewECDSASigner("treasurer-1", key, &fakeNonceFloor{floor: 0})

	d := testDisbursement()
	d.Memo = make([]byte, disbursement.MaxMemoBytes+256)
	for i := range d.Memo {
		d.Memo[i] = 'm'
	}

	it, err := s.Sign(d)
	require.NoError(t, err)

	// The stored record's memo is untouched by signing.
	require.Len(t, d.Memo, disbursement.MaxMemoBytes+256)

	short := testDisbursement()
	short.Memo = d.Memo[:disbursement.MaxMemoBytes]
	truncated, err := s.Sign(short)
	require.NoError(t, err)
	require.Equal(t, truncated.Payload, it.Payload)
}

func TestECDSASigner_NonceFloorReadFailureIsStorageClass(t *testing.T) {
	key := mustKey(t)
	s := NewECDSASigner("treasurer-1", key, &fakeNonceFloor{err: errStoreDown})

	_, err := s.Sign(testDisbursement())
	require.Error(t, err)

	var classified errclass.Classified
	require.ErrorAs(t, err, &classified)
	require.Equal(t, errclass.Storage, classified.Class())
}
