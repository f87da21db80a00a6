// Package rollback implements the RollbackController (§9 design notes): a
// synchronous, caller-invoked component that performs Executed->RolledBack
// transitions and cascades to dependents, sharing the executor's
// Persistent Store and reusing disbursement.Transition for validation. It
// is explicitly not part of the executor tick loop.
package rollback

import (
	"fmt"
	"time"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/store"
)

// Controller performs rollback operations against a Store. It holds no
// state of its own; every call re-reads the current record set.
type Controller struct {
	store store.Store
	now   func() time.Time
}

// New constructs a Controller over store.
func New(s store.Store) *Controller {
	return &Controller{store: s, now: time.Now}
}

// Result summarizes one RollBack invocation's effect for callers that need
// to report it (e.g. an administrative RPC endpoint).
type Result struct {
	RolledBack uint64
	// CancelledDependents lists ids that were Cancelled because they
	// depended (directly, via the dependency list) on the rolled-back
	// disbursement.
	CancelledDependents []uint64
}

// RollBack transitions id from Executed to RolledBack, then walks every
// other disbursement whose Dependencies list includes id and applies the
// cascade policy: a dependent still Queued or Timelocked is moved to
// Cancelled (its prerequisite no longer counts as satisfied, and the spec
// gives the executor no mechanism to "unexecute" a dependent chain), since
// silently leaving it queued would let it attempt execution against a
// prerequisite that is no longer Executed/Finalized.
func (c *Controller) RollBack(id uint64, reason string) (Result, error) {
	d, ok, err := c.store.GetDisbursement(id)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, disbursement.ErrUnknownID
	}
	if d.Status != disbursement.StatusExecuted {
		return Result{}, fmt.Errorf("rollback: disbursement %d is %s, not executed", id, d.Status)
	}

	now := c.now()
	if err := c.store.RollbackExecuted(id, reason, now); err != nil {
		return Result{}, err
	}

	all, err := c.store.LoadDisbursements()
	if err != nil {
		return Result{}, err
	}

	res := Result{RolledBack: id}
	for _, other := range all {
		if other.ID == id {
			continue
		}
		if !dependsOn(other, id) {
			continue
		}
		if other.Status != disbursement.StatusQueued && other.Status != disbursement.StatusTimelocked {
			continue
		}
		cancelReason := fmt.Sprintf("dependency %d rolled back: %s", id, reason)
		if err := c.store.CancelDisbursement(other.ID, cancelReason, now); err != nil {
			return res, err
		}
		res.CancelledDependents = append(res.CancelledDependents, other.ID)
	}

	return res, nil
}

func dependsOn(d *disbursement.Disbursement, id uint64) bool {
	for _, dep := range d.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}
