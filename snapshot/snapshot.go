// Package snapshot defines the per-tick audit record produced by the
// Executor Tick and persisted by the Snapshot Recorder (§3, §4.5).
package snapshot

// ErrorRecord is one entry in a Snapshot's error list.
type ErrorRecord struct {
	Reason      string `json:"reason"`
	StagedAfter uint64 `json:"staged_after"`
}

// Snapshot is the atomically-replaced per-tick record consumed by the
// read-side RPC façade (§6.5) and fed to the telemetry bridge (§6.4).
type Snapshot struct {
	TickEpoch       uint64        `json:"tick_epoch"`
	SuccessTotal    uint64        `json:"success_total"`
	CancelledTotal  uint64        `json:"cancelled_total"`
	StagedTotal     uint64        `json:"staged_total"`
	LastNonce       uint64        `json:"last_nonce"`
	Errors          []ErrorRecord `json:"errors"`
	CircuitState    uint8         `json:"circuit_state"`
	CircuitFailures uint64        `json:"circuit_failures"`
	CircuitSuccesses uint64       `json:"circuit_successes"`

	// LeaseDenied and LeaseLost surface the two abort conditions that stop
	// a tick before any submissions are attempted or before the batch
	// completes (§4.4 step 2, §7 class 4).
	LeaseDenied bool   `json:"lease_denied,omitempty"`
	LeaseLost   bool   `json:"lease_lost,omitempty"`
	Identity    string `json:"identity,omitempty"`
}

// New returns a fresh, zeroed snapshot for the given tick epoch (step 3 of
// §4.4: "SR initializes a fresh snapshot for this tick").
func New(tickEpoch uint64, identity string) *Snapshot {
	return &Snapshot{TickEpoch: tickEpoch, Identity: identity}
}

// RecordSuccess accounts for one Queued->Executed transition.
func (s *Snapshot) RecordSuccess() { s.SuccessTotal++ }

// RecordCancellation accounts for one Queued->Cancelled transition.
func (s *Snapshot) RecordCancellation() { s.CancelledTotal++ }

// RecordError appends a transient/fatal/gating error entry. stagedAfter is
// the number of staged (still-pending) intents observed at the time of the
// error, used by observers to gauge backlog pressure.
func (s *Snapshot) RecordError(reason string, stagedAfter uint64) {
	s.Errors = append(s.Errors, ErrorRecord{Reason: reason, StagedAfter: stagedAfter})
}
