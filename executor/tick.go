package executor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lumenchain/treasury-executor/disbursement"
	"github.com/lumenchain/treasury-executor/errclass"
	"github.com/lumenchain/treasury-executor/intent"
	"github.com/lumenchain/treasury-executor/lease"
	"github.com/lumenchain/treasury-executor/snapshot"
	"github.com/lumenchain/treasury-executor/submitter"
	"github.com/lumenchain/treasury-executor/telemetry"
)

// RunTick executes one pass of the Executor Tick procedure (§4.4). It
// returns the snapshot produced by this tick (or a partial snapshot, on
// lease loss) together with an error when the tick aborted early.
//
// A *ErrFatal return means a Storage-class error aborted the tick before
// completion; the circuit breaker was left untouched and the caller
// (ordinarily the Spawn Supervisor) should back off and retry later. A
// *ErrLeaseLost return means the lease was lost mid-batch; everything up to
// the detection point was already committed.
func RunTick(ctx context.Context, cfg *Config) (*snapshot.Snapshot, error) {
	now := cfg.now()
	epoch := cfg.EpochSource()

	outcome, err := cfg.LeaseManager().AcquireOrRenew(cfg.Identity, cfg.LeaseTTL, now)
	if err != nil {
		return nil, &ErrFatal{Identity: cfg.Identity, Err: err}
	}
	if outcome.Kind == lease.Denied {
		snap := snapshot.New(epoch, cfg.Identity)
		snap.LeaseDenied = true
		return snap, nil
	}

	snap := snapshot.New(epoch, cfg.Identity)

	if !cfg.Breaker.AllowRequest() {
		snap.RecordError(fmt.Sprintf("circuit_breaker_open state=%s", cfg.Breaker.State()), stagedCount(cfg))
		snap.StagedTotal = stagedCount(cfg)
		if err := cfg.Store.StoreExecutorSnapshot(snap); err != nil {
			return nil, &ErrFatal{Identity: cfg.Identity, Err: err}
		}
		invokeTelemetry(cfg, snap)
		return snap, nil
	}

	all, err := cfg.Store.LoadDisbursements()
	if err != nil {
		return nil, &ErrFatal{Identity: cfg.Identity, Err: err}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	candidates := selectCandidates(cfg, snap, all, epoch)

	for _, d := range candidates {
		current, ok, err := cfg.Store.CurrentLease()
		if err != nil {
			return nil, &ErrFatal{Identity: cfg.Identity, Err: err}
		}
		if !ok || current.Identity != cfg.Identity || current.Expired(now) {
			snap.LeaseLost = true
			snap.RecordError("lease_lost", stagedCount(cfg))
			snap.StagedTotal = stagedCount(cfg)
			if err := cfg.Store.StoreExecutorSnapshot(snap); err != nil {
				return snap, &ErrFatal{Identity: cfg.Identity, Err: err}
			}
			invokeTelemetry(cfg, snap)
			return snap, &ErrLeaseLost{Identity: cfg.Identity}
		}

		if abort := processCandidate(ctx, cfg, snap, d, now); abort != nil {
			return snap, abort
		}
	}

	snap.StagedTotal = stagedCount(cfg)
	if err := cfg.Store.StoreExecutorSnapshot(snap); err != nil {
		return nil, &ErrFatal{Identity: cfg.Identity, Err: err}
	}
	invokeTelemetry(cfg, snap)
	return snap, nil
}

// selectCandidates implements §4.4 step 6: scan at most MaxScan
// disbursements, keep those Queued (or Timelocked with epoch reached) and
// dependency-ready, capped at MaxBatch. With StrictDependencies set, an
// unknown dependency id is recorded as an error in snap and the
// disbursement is skipped.
func selectCandidates(cfg *Config, snap *snapshot.Snapshot, all []*disbursement.Disbursement, epoch uint64) []*disbursement.Disbursement {
	scanLimit := len(all)
	if scanLimit > MaxScan {
		scanLimit = MaxScan
	}

	out := make([]*disbursement.Disbursement, 0, MaxBatch)
	for i := 0; i < scanLimit && len(out) < MaxBatch; i++ {
		d := all[i]
		eligible := d.Status == disbursement.StatusQueued ||
			(d.Status == disbursement.StatusTimelocked && epoch >= d.ScheduledEpoch)
		if !eligible {
			continue
		}
		ready, err := disbursement.DependenciesReady(cfg.Store, d.Dependencies, cfg.StrictDependencies)
		if err != nil {
			snap.RecordError(fmt.Sprintf("disbursement %d: %v", d.ID, err), stagedCount(cfg))
			continue
		}
		if !ready {
			continue
		}
		out = append(out, d)
	}
	return out
}

// processCandidate runs §4.4 step 7 for a single candidate (lease
// re-verification already done by the caller). A non-nil return means a
// Storage-class error aborted the whole tick; it is always an *ErrFatal.
func processCandidate(ctx context.Context, cfg *Config, snap *snapshot.Snapshot, d *disbursement.Disbursement, now time.Time) error {
	it, err := cfg.Signer.Sign(d)
	if err != nil {
		if classify(err) == errclass.Storage {
			return &ErrFatal{Identity: cfg.Identity, Err: err}
		}
		// Non-storage signer errors are treated as transient (§4.4 step 7b
		// "otherwise treat as a transient error").
		if storeErr := cfg.Store.MarkTransient(d.ID, err.Error(), now); storeErr != nil {
			return &ErrFatal{Identity: cfg.Identity, Err: storeErr}
		}
		snap.RecordError(err.Error(), stagedCount(cfg))
		cfg.Breaker.RecordFailure()
		return nil
	}

	if err := cfg.Store.PutExecutionIntent(it); err != nil {
		return &ErrFatal{Identity: cfg.Identity, Err: err}
	}

	txHash, err := cfg.Submitter.Submit(ctx, it)
	if err != nil {
		switch classify(err) {
		case errclass.Storage:
			return &ErrFatal{Identity: cfg.Identity, Err: err}
		case errclass.Cancelled:
			// Before honoring the cancellation, check whether the
			// submission actually landed despite the classified error
			// (the crash-returned-without-confirming case): reconcile
			// forward to Executed rather than cancel a payment the ledger
			// already made.
			if src, ok := cfg.Submitter.(submitter.ReconcileSource); ok {
				if landedHash, found := src.Lookup(d.ID, it.Nonce); found {
					return finalizeExecuted(cfg, snap, d, it, landedHash, now)
				}
			}
			if storeErr := cfg.Store.CancelDisbursement(d.ID, err.Error(), now); storeErr != nil {
				return &ErrFatal{Identity: cfg.Identity, Err: storeErr}
			}
			if storeErr := cfg.Store.RemoveExecutionIntent(d.ID); storeErr != nil {
				return &ErrFatal{Identity: cfg.Identity, Err: storeErr}
			}
			snap.RecordCancellation()
		default: // Transient
			if storeErr := cfg.Store.MarkTransient(d.ID, err.Error(), now); storeErr != nil {
				return &ErrFatal{Identity: cfg.Identity, Err: storeErr}
			}
			snap.RecordError(err.Error(), stagedCount(cfg))
			cfg.Breaker.RecordFailure()
		}
		return nil
	}

	return finalizeExecuted(cfg, snap, d, it, txHash, now)
}

// finalizeExecuted commits a Queued->Executed transition, clears the
// staged intent, advances the nonce floor, and updates the snapshot and
// circuit breaker on a successful (or reconciled) submission.
func finalizeExecuted(cfg *Config, snap *snapshot.Snapshot, d *disbursement.Disbursement, it *intent.SignedExecutionIntent, txHash string, now time.Time) error {
	if err := cfg.Store.ExecuteDisbursement(d.ID, txHash, now); err != nil {
		return &ErrFatal{Identity: cfg.Identity, Err: err}
	}
	if err := cfg.Store.RemoveExecutionIntent(d.ID); err != nil {
		return &ErrFatal{Identity: cfg.Identity, Err: err}
	}
	if err := cfg.Store.RecordExecutorNonce(cfg.Identity, it.Nonce); err != nil {
		return &ErrFatal{Identity: cfg.Identity, Err: err}
	}
	if it.Nonce > snap.LastNonce {
		snap.LastNonce = it.Nonce
	}
	snap.RecordSuccess()
	cfg.Breaker.RecordSuccess()
	return nil
}

// stagedCount reports the current staged (pending) intent count for
// telemetry, swallowing read errors by reporting zero — this is an
// observational aid, not a correctness-critical value.
func stagedCount(cfg *Config) uint64 {
	staged, err := cfg.Store.LoadExecutionIntents()
	if err != nil {
		return 0
	}
	return uint64(len(staged))
}

func invokeTelemetry(cfg *Config, snap *snapshot.Snapshot) {
	snap.CircuitState = uint8(cfg.Breaker.State())
	snap.CircuitFailures = uint64(cfg.Breaker.FailureCount())
	snap.CircuitSuccesses = uint64(cfg.Breaker.SuccessCount())
	if cfg.Telemetry == nil {
		return
	}
	cfg.Telemetry.OnUpdate(telemetry.CircuitState(snap.CircuitState), snap.CircuitFailures, snap.CircuitSuccesses)
}
