package store

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/gzip"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/intent"
	"github.com/lumenchain/treasury-executor/lease"
	"github.com/lumenchain/treasury-executor/snapshot"
)

// PebbleStore is the durable §6.1 Persistent Store, backed by
// cockroachdb/pebble. Records are JSON-encoded for on-disk debuggability,
// matching the teacher's general preference for explicit over packed
// encodings in non-consensus-critical state.
//
// pebble's Go API does not expose a per-key compare-and-swap, so read-modify
// -write sequences (lease acquisition, nonce floor advancement, status
// mutations) are serialized behind mu, which orders them only within this
// process. cmd/treasury-executor opens the store and then runs the Spawn
// Supervisor, which takes an advisory gofrs/flock lock in the data
// directory when Run starts.
type PebbleStore struct {
	db *pebble.DB

	mu    sync.Mutex
	cache *readCache
}

// OpenPebbleStore opens (creating if absent) a pebble database at dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db, cache: newReadCache(32 * 1024 * 1024)}, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) getRaw(key []byte) ([]byte, bool, error) {
	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, true, nil
}

func (s *PebbleStore) putRaw(key, value []byte) error {
	return s.db.Set(key, value, pebble.Sync)
}

func (s *PebbleStore) GetDisbursement(id uint64) (*disbursement.Disbursement, bool, error) {
	if d, ok := s.cache.get(id); ok {
		return d, true, nil
	}
	raw, ok, err := s.getRaw(disbursementKey(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	var d disbursement.Disbursement
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, err
	}
	s.cache.set(&d)
	return &d, true, nil
}

func (s *PebbleStore) DisbursementStatus(id uint64) (disbursement.Status, bool) {
	d, ok, err := s.GetDisbursement(id)
	if err != nil || !ok {
		return 0, false
	}
	return d.Status, true
}

func (s *PebbleStore) LoadDisbursements() ([]*disbursement.Disbursement, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixDisbursement,
		UpperBound: prefixUpperBound(prefixDisbursement),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*disbursement.Disbursement
	for iter.First(); iter.Valid(); iter.Next() {
		var d disbursement.Disbursement
		if err := json.Unmarshal(iter.Value(), &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, iter.Error()
}

func (s *PebbleStore) PutDisbursement(d *disbursement.Disbursement) error {
	if err := d.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.putRaw(disbursementKey(d.ID), raw); err != nil {
		return err
	}
	s.cache.set(d)
	return nil
}

func (s *PebbleStore) mutateDisbursement(id uint64, now time.Time, to disbursement.Status, mutate func(d *disbursement.Disbursement)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.getRaw(disbursementKey(id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	var d disbursement.Disbursement
	if err := json.Unmarshal(raw, &d); err != nil {
		return err
	}
	if to != d.Status {
		if err := disbursement.Transition(&d, to); err != nil {
			return err
		}
	}
	mutate(&d)
	d.UpdatedAt = now
	return s.PutDisbursement(&d)
}

func (s *PebbleStore) ExecuteDisbursement(id uint64, txHash string, now time.Time) error {
	return s.mutateDisbursement(id, now, disbursement.StatusExecuted, func(d *disbursement.Disbursement) {
		d.TxHash = txHash
		d.LastError = ""
	})
}

func (s *PebbleStore) CancelDisbursement(id uint64, reason string, now time.Time) error {
	return s.mutateDisbursement(id, now, disbursement.StatusCancelled, func(d *disbursement.Disbursement) {
		d.LastError = reason
	})
}

func (s *PebbleStore) RollbackExecuted(id uint64, reason string, now time.Time) error {
	return s.mutateDisbursement(id, now, disbursement.StatusRolledBack, func(d *disbursement.Disbursement) {
		d.LastError = reason
	})
}

func (s *PebbleStore) MarkTransient(id uint64, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.getRaw(disbursementKey(id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	var d disbursement.Disbursement
	if err := json.Unmarshal(raw, &d); err != nil {
		return err
	}
	d.LastError = reason
	d.UpdatedAt = now
	return s.PutDisbursement(&d)
}

func (s *PebbleStore) GetExecutionIntent(id uint64) (*intent.SignedExecutionIntent, bool, error) {
	raw, ok, err := s.getRaw(intentKey(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	var it intent.SignedExecutionIntent
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, false, err
	}
	return &it, true, nil
}

func (s *PebbleStore) LoadExecutionIntents() ([]*intent.SignedExecutionIntent, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixIntent,
		UpperBound: prefixUpperBound(prefixIntent),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*intent.SignedExecutionIntent
	for iter.First(); iter.Valid(); iter.Next() {
		var it intent.SignedExecutionIntent
		if err := json.Unmarshal(iter.Value(), &it); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, iter.Error()
}

func (s *PebbleStore) PutExecutionIntent(it *intent.SignedExecutionIntent) error {
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	return s.putRaw(intentKey(it.DisbursementID), raw)
}

func (s *PebbleStore) RemoveExecutionIntent(id uint64) error {
	return s.db.Delete(intentKey(id), pebble.Sync)
}

func (s *PebbleStore) RecordExecutorNonce(identity string, nonce uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.loadNonceFloorLocked(identity)
	if err != nil {
		return err
	}
	if nonce <= current {
		return nil
	}
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(nonce >> (56 - 8*i))
	}
	return s.putRaw(nonceKey(identity), buf)
}

func (s *PebbleStore) LoadNonceFloor(identity string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadNonceFloorLocked(identity)
}

func (s *PebbleStore) loadNonceFloorLocked(identity string) (uint64, error) {
	raw, ok, err := s.getRaw(nonceKey(identity))
	if err != nil || !ok {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(raw[i])
	}
	return v, nil
}

func (s *PebbleStore) LoadExecutorSnapshot() (*snapshot.Snapshot, bool, error) {
	raw, ok, err := s.getRaw(keySnapshot)
	if err != nil || !ok {
		return nil, ok, err
	}
	plain, err := gunzipSnapshot(raw)
	if err != nil {
		return nil, false, err
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

// StoreExecutorSnapshot persists the tick's snapshot as a single atomic
// pebble write (§4.5: "writes are atomic (write-and-rename or transactional
// put)"); a single Set under pebble.Sync is pebble's transactional put. The
// JSON encoding is gzipped first since snapshots accumulate an unbounded
// error list over a long-running executor.
func (s *PebbleStore) StoreExecutorSnapshot(snap *snapshot.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	compressed, err := gzipSnapshot(raw)
	if err != nil {
		return err
	}
	return s.putRaw(keySnapshot, compressed)
}

func gzipSnapshot(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipSnapshot(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *PebbleStore) AcquireLease(identity string, ttl time.Duration, now time.Time) (lease.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.getRaw(keyLease)
	if err != nil {
		return lease.Outcome{}, err
	}
	var current lease.Lease
	if ok {
		if err := json.Unmarshal(raw, &current); err != nil {
			return lease.Outcome{}, err
		}
	}

	var outcome lease.Outcome
	switch {
	case !ok:
		current = lease.Lease{Identity: identity, IssuedAt: now, ExpiresAt: now.Add(ttl)}
		outcome = lease.Outcome{Kind: lease.Acquired, Lease: current}
	case current.Identity == identity:
		current.ExpiresAt = now.Add(ttl)
		outcome = lease.Outcome{Kind: lease.Held, Lease: current}
	case current.Expired(now):
		prev := current.Identity
		current = lease.Lease{Identity: identity, IssuedAt: now, ExpiresAt: now.Add(ttl)}
		outcome = lease.Outcome{Kind: lease.Acquired, PrevIdentity: prev, Lease: current}
	default:
		return lease.Outcome{Kind: lease.Denied, Holder: current.Identity, Lease: current}, nil
	}

	newRaw, err := json.Marshal(current)
	if err != nil {
		return lease.Outcome{}, err
	}
	if err := s.putRaw(keyLease, newRaw); err != nil {
		return lease.Outcome{}, err
	}
	return outcome, nil
}

func (s *PebbleStore) CurrentLease() (lease.Lease, bool, error) {
	raw, ok, err := s.getRaw(keyLease)
	if err != nil || !ok {
		return lease.Lease{}, ok, err
	}
	var l lease.Lease
	if err := json.Unmarshal(raw, &l); err != nil {
		return lease.Lease{}, false, err
	}
	return l, true, nil
}

func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}

var _ Store = (*PebbleStore)(nil)
