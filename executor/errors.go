package executor

import (
	"errors"

	"github.com/lumenchain/treasury-executor/errclass"
)

// classify extracts the errclass.Class an error carries, if any. Errors
// that do not implement errclass.Classified (e.g. a plain store I/O error)
// are treated as Storage-class: unclassified failures are assumed fatal to
// the tick rather than silently folded into the circuit breaker (§4.4 step
// 7b/7f: storage errors abort the tick; only the submitter's own
// classification drives the breaker).
func classify(err error) errclass.Class {
	var classified errclass.Classified
	if errors.As(err, &classified) {
		return classified.Class()
	}
	return errclass.Storage
}

// ErrFatal wraps a Storage-class error that aborted a tick, so callers
// (the Spawn Supervisor) can distinguish an aborted tick from one that ran
// to completion.
type ErrFatal struct {
	Identity string
	Err      error
}

func (e *ErrFatal) Error() string {
	return "executor: fatal tick abort (" + e.Identity + "): " + e.Err.Error()
}

func (e *ErrFatal) Unwrap() error { return e.Err }

// ErrLeaseLost is returned by RunTick when the lease is detected lost
// mid-tick (§4.3, §7 class 4). No disbursement mutations occur past the
// detection point.
type ErrLeaseLost struct {
	Identity string
}

func (e *ErrLeaseLost) Error() string {
	return "executor: lease lost mid-tick for identity " + e.Identity
}
