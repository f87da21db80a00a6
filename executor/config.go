// Package executor implements the Executor Tick (§4.4): the central
// procedure that acquires the lease, loads disbursements, filters those
// ready to execute, signs and submits them in batch, updates their states,
// and records a snapshot and telemetry.
package executor

import (
	"time"

	"github.com/lumenchain/treasury-executor/breaker"
	"github.com/lumenchain/treasury-executor/lease"
	"github.com/lumenchain/treasury-executor/signer"
	"github.com/lumenchain/treasury-executor/store"
	"github.com/lumenchain/treasury-executor/submitter"
	"github.com/lumenchain/treasury-executor/telemetry"
)

// MaxBatch caps the number of candidates processed per tick (§4.4 step 6).
const MaxBatch = 100

// MaxScan caps the number of disbursements examined per tick before an
// early exit, bounding worst-case tick latency on a large backlog (§4.4
// step 6).
const MaxScan = 500

// EpochSource reports the current governance epoch, consulted to decide
// whether a Timelocked disbursement has reached its scheduled_epoch.
type EpochSource func() uint64

// Config is the injected dependency set of §4.4: "identity, poll_interval,
// lease_ttl, epoch_source, signer, submitter, dependency_check,
// nonce_floor, circuit_breaker, telemetry_callback".
type Config struct {
	Identity    string
	LeaseTTL    time.Duration
	EpochSource EpochSource

	Store     store.Store
	Signer    signer.Signer
	Submitter submitter.Submitter
	Breaker   *breaker.Breaker
	Telemetry telemetry.Callback

	// Leases issues and renews the single active executor lease (§4.4 step
	// 2's "LM.acquire_or_renew"). If nil, a Manager wrapping Store is built
	// lazily on first use.
	Leases *lease.Manager

	// StrictDependencies, if set, makes an unknown dependency id an error
	// rather than a fail-closed "not ready" (§4.1): RunTick records it in the
	// tick snapshot and skips that disbursement.
	StrictDependencies bool

	// Now is the injectable clock; defaults to time.Now when nil.
	Now func() time.Time
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// LeaseManager returns c.Leases, building and caching a Manager over
// c.Store on first use when the caller left it unset. The Spawn
// Supervisor's heartbeat loop uses this same manager, so renewal always
// goes through one path (§4.3, §4.4 step 2's "LM.acquire_or_renew").
func (c *Config) LeaseManager() *lease.Manager {
	if c.Leases == nil {
		c.Leases = lease.New(c.Store)
	}
	return c.Leases
}
