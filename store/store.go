// Package store defines the Persistent Store contract (§6.1) that backs
// disbursement records, execution intents, executor snapshots, leases, and
// nonce floors, plus the reference implementations over pebble and an
// in-memory map.
package store

import (
	"errors"
	"time"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/intent"
	"github.com/lumenchain/treasury-executor/lease"
	"github.com/lumenchain/treasury-executor/snapshot"
)

// ErrNotFound is returned by the single-record mutators (ExecuteDisbursement,
// CancelDisbursement, RollbackExecuted, MarkTransient) when the id is
// absent. Reads report absence through their bool result instead.
var ErrNotFound = errors.New("store: record not found")

// Reader is the read-only surface consumed by the dependency parser and the
// external read-side RPC projections (§6.5).
type Reader interface {
	// LoadDisbursements returns every disbursement, unordered; callers sort
	// as needed (the executor sorts ascending by id per §4.4 step 5).
	LoadDisbursements() ([]*disbursement.Disbursement, error)
	GetDisbursement(id uint64) (*disbursement.Disbursement, bool, error)
	// DisbursementStatus satisfies disbursement.StatusLookup for
	// dependency readiness checks without pulling the full record.
	DisbursementStatus(id uint64) (disbursement.Status, bool)
	LoadExecutionIntents() ([]*intent.SignedExecutionIntent, error)
	GetExecutionIntent(id uint64) (*intent.SignedExecutionIntent, bool, error)
	LoadExecutorSnapshot() (*snapshot.Snapshot, bool, error)
	LoadNonceFloor(identity string) (uint64, error)
}

// Store is the full Persistent Store contract (§6.1). All mutating
// operations are atomic at the record level.
type Store interface {
	Reader

	PutDisbursement(d *disbursement.Disbursement) error
	// ExecuteDisbursement atomically transitions a Queued disbursement to
	// Executed, records tx_hash, and clears last_error (§4.4 step 7e).
	ExecuteDisbursement(id uint64, txHash string, now time.Time) error
	// CancelDisbursement atomically transitions a disbursement to
	// Cancelled and records the reason (§4.4 step 7f).
	CancelDisbursement(id uint64, reason string, now time.Time) error
	// RollbackExecuted atomically transitions a disbursement from Executed
	// to RolledBack and records the reason; used by rollback.Controller,
	// never by the executor tick itself (§9 design notes).
	RollbackExecuted(id uint64, reason string, now time.Time) error
	// MarkTransient leaves status unchanged, sets last_error, and touches
	// updated_at (§4.4 step 7f transient case).
	MarkTransient(id uint64, reason string, now time.Time) error

	PutExecutionIntent(it *intent.SignedExecutionIntent) error
	RemoveExecutionIntent(id uint64) error

	RecordExecutorNonce(identity string, nonce uint64) error

	StoreExecutorSnapshot(snap *snapshot.Snapshot) error

	AcquireLease(identity string, ttl time.Duration, now time.Time) (lease.Outcome, error)
	// CurrentLease reports the lease record as last observed, for the
	// mid-tick re-verification of §4.4 step 7a.
	CurrentLease() (lease.Lease, bool, error)

	Close() error
}
