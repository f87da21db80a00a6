// Package governance provides the minimal intake surface an external
// governance voting engine (out of scope per §1) uses to hand the executor
// a disbursement, without implementing voting itself.
package governance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lumenchain/treasury-executor/disbursement"
)

// TreasuryTransfer describes a single debit from the treasury source to a
// recipient, in base ledger units, shaped after the
// ProposalKindTreasuryDirective payload an external governance engine would
// submit.
type TreasuryTransfer struct {
	To     string
	Amount uint64
	Memo   string
}

// TreasuryDirectiveProposal is the subset of a governance proposal the
// executor cares about: a single approved transfer plus the dependency and
// scheduling metadata the disbursement carries forward. A proposal batching
// multiple transfers is expanded by the caller into one
// TreasuryDirectiveProposal per transfer before calling FromProposal.
type TreasuryDirectiveProposal struct {
	ID             uint64
	Transfer       TreasuryTransfer
	ScheduledEpoch uint64
	// RawDependencies is the dependency field exactly as submitted by
	// governance, in either serialization DPV accepts (§4.1).
	RawDependencies []byte
	SubmitTime      time.Time
}

// FromProposal maps a governance-approved treasury directive onto a
// Disbursement in Draft status, parsing and validating its dependency
// field through the same DPV path the executor's filter stage trusts.
// Voting is an external concern; callers that already have a
// quorum-passed proposal should immediately transition the result to
// Voting (and then Queued) via disbursement.Transition.
func FromProposal(p TreasuryDirectiveProposal) (*disbursement.Disbursement, error) {
	if p.Transfer.Amount == 0 {
		return nil, fmt.Errorf("governance: proposal %d: %w", p.ID, disbursement.ErrInvalidAmount)
	}

	deps, err := disbursement.ParseDependencies(p.RawDependencies)
	if err != nil {
		return nil, fmt.Errorf("governance: proposal %d: %w", p.ID, err)
	}

	// Memo is stored verbatim here; truncation to MaxMemoBytes happens only
	// at the submission boundary (signer.encodePayload), not on intake.
	memo := []byte(p.Transfer.Memo)

	now := p.SubmitTime
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &disbursement.Disbursement{
		ID:             p.ID,
		Destination:    p.Transfer.To,
		Amount:         p.Transfer.Amount,
		Memo:           memo,
		ScheduledEpoch: p.ScheduledEpoch,
		Dependencies:   deps,
		Status:         disbursement.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ParseAmountWei parses the governance example's string-encoded amount
// field ("amountWei") down to the executor's base-unit uint64. Values that
// do not fit overflow with an error rather than silently truncating.
func ParseAmountWei(amountWei string) (uint64, error) {
	v, err := strconv.ParseUint(amountWei, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("governance: invalid amountWei %q: %w", amountWei, err)
	}
	return v, nil
}
