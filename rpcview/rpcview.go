// Package rpcview exposes read-only projections of executor state matching
// §6.5: the executor is not itself an RPC server, but an external
// JSON-RPC façade (out of scope) mounts these functions over a
// store.Reader to answer treasury.balance / treasury.list / treasury.show
// / treasury.executor.snapshot queries. This package never writes to PS.
package rpcview

import (
	"sort"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/intent"
	"github.com/lumenchain/treasury-executor/snapshot"
	"github.com/lumenchain/treasury-executor/store"
)

// Balance is the projection backing `treasury.balance`: the treasury's
// outstanding committed amount (sum of Queued/Timelocked disbursements not
// yet executed) plus executor liveness metadata.
type Balance struct {
	PendingTotal uint64
	LastTickEpoch uint64
	LastError    string
	ActiveIdentity string
}

// GetBalance computes the projected treasury balance and liveness summary.
func GetBalance(r store.Reader) (Balance, error) {
	all, err := r.LoadDisbursements()
	if err != nil {
		return Balance{}, err
	}

	var bal Balance
	for _, d := range all {
		if d.Status == disbursement.StatusQueued || d.Status == disbursement.StatusTimelocked {
			bal.PendingTotal += d.Amount
		}
	}

	snap, ok, err := r.LoadExecutorSnapshot()
	if err != nil {
		return Balance{}, err
	}
	if ok {
		bal.LastTickEpoch = snap.TickEpoch
		bal.ActiveIdentity = snap.Identity
		if len(snap.Errors) > 0 {
			bal.LastError = snap.Errors[len(snap.Errors)-1].Reason
		}
	}
	return bal, nil
}

// ListPage is the paginated response backing `treasury.list`.
type ListPage struct {
	Items      []*disbursement.Disbursement
	NextOffset int
	HasMore    bool
}

// List returns disbursements filtered by status (or all statuses, if
// filter is nil), sorted ascending by id, paginated by offset/limit.
func List(r store.Reader, filter *disbursement.Status, offset, limit int) (ListPage, error) {
	if limit <= 0 {
		limit = 50
	}
	all, err := r.LoadDisbursements()
	if err != nil {
		return ListPage{}, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	var matched []*disbursement.Disbursement
	for _, d := range all {
		if filter != nil && d.Status != *filter {
			continue
		}
		matched = append(matched, d)
	}

	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := matched[offset:end]

	return ListPage{
		Items:      page,
		NextOffset: end,
		HasMore:    end < len(matched),
	}, nil
}

// Show is the response backing `treasury.show(id)`: a disbursement plus its
// in-flight intent, if any.
type Show struct {
	Disbursement *disbursement.Disbursement
	Intent       *intent.SignedExecutionIntent
}

// GetShow resolves a single disbursement and its staged intent.
func GetShow(r store.Reader, id uint64) (Show, bool, error) {
	d, ok, err := r.GetDisbursement(id)
	if err != nil || !ok {
		return Show{}, ok, err
	}
	it, _, err := r.GetExecutionIntent(id)
	if err != nil {
		return Show{}, false, err
	}
	return Show{Disbursement: d, Intent: it}, true, nil
}

// GetExecutorSnapshot backs `treasury.executor.snapshot`.
func GetExecutorSnapshot(r store.Reader) (*snapshot.Snapshot, bool, error) {
	return r.LoadExecutorSnapshot()
}
