package store

import (
	"sync"
	"time"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/intent"
	"github.com/lumenchain/treasury-executor/lease"
	"github.com/lumenchain/treasury-executor/snapshot"
)

// MemStore is an in-memory Store used by unit tests and by callers that do
// not need durability (e.g. short-lived local tooling). It is not a
// production backend; see PebbleStore for the durable implementation.
type MemStore struct {
	mu sync.Mutex

	disbursements map[uint64]*disbursement.Disbursement
	intents       map[uint64]*intent.SignedExecutionIntent
	nonceFloors   map[string]uint64
	snap          *snapshot.Snapshot
	activeLease   *lease.Lease
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		disbursements: make(map[uint64]*disbursement.Disbursement),
		intents:       make(map[uint64]*intent.SignedExecutionIntent),
		nonceFloors:   make(map[string]uint64),
	}
}

func (m *MemStore) LoadDisbursements() ([]*disbursement.Disbursement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*disbursement.Disbursement, 0, len(m.disbursements))
	for _, d := range m.disbursements {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (m *MemStore) GetDisbursement(id uint64) (*disbursement.Disbursement, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return nil, false, nil
	}
	return d.Clone(), true, nil
}

func (m *MemStore) DisbursementStatus(id uint64) (disbursement.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return 0, false
	}
	return d.Status, true
}

func (m *MemStore) PutDisbursement(d *disbursement.Disbursement) error {
	if err := d.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disbursements[d.ID] = d.Clone()
	return nil
}

func (m *MemStore) ExecuteDisbursement(id uint64, txHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return ErrNotFound
	}
	if err := disbursement.Transition(d, disbursement.StatusExecuted); err != nil {
		return err
	}
	d.TxHash = txHash
	d.LastError = ""
	d.UpdatedAt = now
	return nil
}

func (m *MemStore) CancelDisbursement(id uint64, reason string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return ErrNotFound
	}
	if err := disbursement.Transition(d, disbursement.StatusCancelled); err != nil {
		return err
	}
	d.LastError = reason
	d.UpdatedAt = now
	return nil
}

func (m *MemStore) RollbackExecuted(id uint64, reason string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return ErrNotFound
	}
	if err := disbursement.Transition(d, disbursement.StatusRolledBack); err != nil {
		return err
	}
	d.LastError = reason
	d.UpdatedAt = now
	return nil
}

func (m *MemStore) MarkTransient(id uint64, reason string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return ErrNotFound
	}
	d.LastError = reason
	d.UpdatedAt = now
	return nil
}

func (m *MemStore) LoadExecutionIntents() ([]*intent.SignedExecutionIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*intent.SignedExecutionIntent, 0, len(m.intents))
	for _, it := range m.intents {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) GetExecutionIntent(id uint64) (*intent.SignedExecutionIntent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.intents[id]
	if !ok {
		return nil, false, nil
	}
	cp := *it
	return &cp, true, nil
}

func (m *MemStore) PutExecutionIntent(it *intent.SignedExecutionIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *it
	m.intents[it.DisbursementID] = &cp
	return nil
}

func (m *MemStore) RemoveExecutionIntent(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.intents, id)
	return nil
}

func (m *MemStore) RecordExecutorNonce(identity string, nonce uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if nonce > m.nonceFloors[identity] {
		m.nonceFloors[identity] = nonce
	}
	return nil
}

func (m *MemStore) LoadNonceFloor(identity string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonceFloors[identity], nil
}

func (m *MemStore) LoadExecutorSnapshot() (*snapshot.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, false, nil
	}
	cp := *m.snap
	return &cp, true, nil
}

func (m *MemStore) StoreExecutorSnapshot(snap *snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	m.snap = &cp
	return nil
}

func (m *MemStore) AcquireLease(identity string, ttl time.Duration, now time.Time) (lease.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeLease == nil {
		m.activeLease = &lease.Lease{Identity: identity, IssuedAt: now, ExpiresAt: now.Add(ttl)}
		return lease.Outcome{Kind: lease.Acquired, Lease: *m.activeLease}, nil
	}
	if m.activeLease.Identity == identity {
		m.activeLease.ExpiresAt = now.Add(ttl)
		return lease.Outcome{Kind: lease.Held, Lease: *m.activeLease}, nil
	}
	if m.activeLease.Expired(now) {
		prev := m.activeLease.Identity
		m.activeLease = &lease.Lease{Identity: identity, IssuedAt: now, ExpiresAt: now.Add(ttl)}
		return lease.Outcome{Kind: lease.Acquired, PrevIdentity: prev, Lease: *m.activeLease}, nil
	}
	return lease.Outcome{Kind: lease.Denied, Holder: m.activeLease.Identity, Lease: *m.activeLease}, nil
}

func (m *MemStore) CurrentLease() (lease.Lease, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLease == nil {
		return lease.Lease{}, false, nil
	}
	return *m.activeLease, true, nil
}

func (m *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
