// Package disbursement defines the treasury disbursement data model and the
// state machine invariants that govern its lifecycle.
package disbursement

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Status is the lifecycle stage of a Disbursement.
type Status uint8

const (
	StatusDraft Status = iota
	StatusVoting
	StatusQueued
	StatusTimelocked
	StatusExecuted
	StatusFinalized
	StatusRolledBack
	StatusCancelled
)

// String renders the status for logs and RPC projections.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusVoting:
		return "voting"
	case StatusQueued:
		return "queued"
	case StatusTimelocked:
		return "timelocked"
	case StatusExecuted:
		return "executed"
	case StatusFinalized:
		return "finalized"
	case StatusRolledBack:
		return "rolled_back"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinalized, StatusCancelled, StatusRolledBack:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidAmount   = errors.New("disbursement: amount must be greater than zero")
	ErrUnknownID       = errors.New("disbursement: unknown id")
	ErrTxHashInvariant = errors.New("disbursement: tx_hash set/unset does not match status")
	ErrTxHashFormat    = errors.New("disbursement: tx_hash is not well-formed hex")
)

// MaxMemoBytes bounds the signed payload's memo field; the memo is
// truncated to this size only at the submission boundary
// (signer.encodePayload). The stored record itself carries the memo
// governance submitted verbatim, with no size cap (§3).
const MaxMemoBytes = 1024

// Disbursement is an atomic treasury payment record with a governance
// lifecycle (§3).
type Disbursement struct {
	ID             uint64    `json:"id"`
	Destination    string    `json:"destination"`
	Amount         uint64    `json:"amount"`
	Memo           []byte    `json:"memo"`
	ScheduledEpoch uint64    `json:"scheduled_epoch"`
	Dependencies   []uint64  `json:"dependencies"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastError      string    `json:"last_error,omitempty"`
	TxHash         string    `json:"tx_hash,omitempty"`
}

// Validate checks the static invariants of §3 that do not depend on other
// records (amount bound, tx_hash/status coherence, tx_hash hex well-
// formedness). Dependency resolution and cycle tolerance are handled by
// DependenciesReady. Both stores' PutDisbursement call this before
// committing a record.
func (d *Disbursement) Validate() error {
	if d.Amount == 0 {
		return ErrInvalidAmount
	}
	hasTxHash := d.TxHash != ""
	wantsTxHash := d.Status == StatusExecuted || d.Status == StatusFinalized || d.Status == StatusRolledBack
	if hasTxHash != wantsTxHash {
		return ErrTxHashInvariant
	}
	if hasTxHash {
		if _, err := hexutil.Decode(d.TxHash); err != nil {
			return ErrTxHashFormat
		}
	}
	return nil
}

// Clone returns a deep copy safe for independent mutation.
func (d *Disbursement) Clone() *Disbursement {
	cp := *d
	if d.Memo != nil {
		cp.Memo = append([]byte(nil), d.Memo...)
	}
	if d.Dependencies != nil {
		cp.Dependencies = append([]uint64(nil), d.Dependencies...)
	}
	return &cp
}
