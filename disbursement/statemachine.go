package disbursement

import "fmt"

// ErrIllegalTransition is returned when a status change violates the
// allowed-transitions table of §4.7.
type ErrIllegalTransition struct {
	From Status
	To   Status
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("disbursement: illegal transition %s -> %s", e.From, e.To)
}

// allowed enumerates the state machine edges from §4.7:
//
//	Draft       -> Voting
//	Voting      -> Queued | Cancelled
//	Queued      -> Timelocked | Cancelled | Executed
//	Timelocked  -> Queued | Cancelled | Executed
//	Executed    -> Finalized | RolledBack
//
// Timelocked->Executed is the one edge not spelled out verbatim by the
// transition table's prose ("Timelocked → Queued (on epoch reached)"): the
// Executor Tick's candidate filter admits a Timelocked disbursement whose
// scheduled_epoch has arrived directly into the execution batch rather than
// bouncing it through an intermediate Queued write, so the edge must be
// legal here too.
var allowed = map[Status]map[Status]bool{
	StatusDraft:      {StatusVoting: true},
	StatusVoting:     {StatusQueued: true, StatusCancelled: true},
	StatusQueued:     {StatusTimelocked: true, StatusCancelled: true, StatusExecuted: true},
	StatusTimelocked: {StatusQueued: true, StatusCancelled: true, StatusExecuted: true},
	StatusExecuted:   {StatusFinalized: true, StatusRolledBack: true},
	StatusFinalized:  {},
	StatusRolledBack: {},
	StatusCancelled:  {},
}

// CanTransition reports whether the move from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	edges, ok := allowed[from]
	if !ok {
		return false
	}
	return edges[to]
}

// Transition validates and applies a status change in place. It does not
// touch tx_hash or last_error; callers set those fields according to the
// transition's semantics (§4.4, §4.7) before or after calling Transition.
func Transition(d *Disbursement, to Status) error {
	if !CanTransition(d.Status, to) {
		return &ErrIllegalTransition{From: d.Status, To: to}
	}
	d.Status = to
	return nil
}
