// Package supervisor implements the Spawn Supervisor (§4.6): the background
// scheduler that runs the Executor Tick at a fixed poll interval and owns
// shutdown signalling.
package supervisor

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/lumenchain/treasury-executor/executor"
)

// Config holds the Supervisor's own tunables, distinct from executor.Config
// (which it wraps and drives).
type Config struct {
	Executor *executor.Config

	PollInterval time.Duration
	// ShutdownCeiling is the deadline of the context handed to the final
	// tick that the loop runs after a shutdown signal (default: 2x
	// LeaseTTL). RunTick passes that context only to the Submitter, so the
	// ceiling bounds the final tick only as far as the Submitter honors it.
	ShutdownCeiling time.Duration

	// LockPath, if set, is an advisory gofrs/flock lock acquired over the
	// PS data directory before the loop starts, preventing a second local
	// process from double-opening the same pebble store (§9 LM design
	// note).
	LockPath string
}

func (c *Config) shutdownCeiling() time.Duration {
	if c.ShutdownCeiling > 0 {
		return c.ShutdownCeiling
	}
	return 2 * c.Executor.LeaseTTL
}

// Supervisor runs ET at a fixed poll interval on a dedicated goroutine, and
// a lease-renewal heartbeat on a second goroutine, both joined on shutdown
// (§5 expansion). No goroutine outlives Run's return.
type Supervisor struct {
	cfg  Config
	lock *flock.Flock
}

// New constructs a Supervisor. It does not start the loop; call Run.
func New(cfg Config) *Supervisor {
	s := &Supervisor{cfg: cfg}
	if cfg.LockPath != "" {
		s.lock = flock.New(cfg.LockPath)
	}
	return s
}

// Run blocks until ctx is cancelled, running the tick loop and a
// lease-renewal heartbeat concurrently via errgroup, then joins both before
// returning (§4.6, §5 expansion). A tick already running when ctx is
// cancelled finishes first; the loop then runs one more tick via
// runFinalTick before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.lock != nil {
		locked, err := s.lock.TryLock()
		if err != nil {
			return err
		}
		if !locked {
			return ErrDataDirLocked
		}
		defer s.lock.Unlock()
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.tickLoop(gctx)
	})
	group.Go(func() error {
		return s.heartbeatLoop(gctx)
	})

	return group.Wait()
}

func (s *Supervisor) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.runFinalTick()
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

// runFinalTick runs one additional tick after shutdown, under a fresh
// context that expires after the shutdown ceiling.
func (s *Supervisor) runFinalTick() error {
	deadline, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownCeiling())
	defer cancel()
	s.runTick(deadline)
	return nil
}

func (s *Supervisor) runTick(ctx context.Context) {
	snap, err := executor.RunTick(ctx, s.cfg.Executor)
	if err != nil {
		var fatal *executor.ErrFatal
		if isFatal(err, &fatal) {
			log.Error("executor tick aborted on storage error", "identity", s.cfg.Executor.Identity, "err", err)
			time.Sleep(s.cfg.PollInterval)
			return
		}
		log.Warn("executor tick ended early", "identity", s.cfg.Executor.Identity, "err", err)
		return
	}
	log.Debug("executor tick complete",
		"identity", s.cfg.Executor.Identity,
		"success_total", snap.SuccessTotal,
		"cancelled_total", snap.CancelledTotal,
		"circuit_state", snap.CircuitState,
	)
}

// heartbeatLoop renews the lease between ticks so a slow poll interval does
// not cause the lease to lapse while this identity is still alive and
// intends to keep running (§5: "parallel threads may exist... lease
// renewal heartbeat").
func (s *Supervisor) heartbeatLoop(ctx context.Context) error {
	interval := s.cfg.Executor.LeaseTTL / 2
	if interval <= 0 {
		interval = s.cfg.PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := s.cfg.Executor.LeaseManager().AcquireOrRenew(s.cfg.Executor.Identity, s.cfg.Executor.LeaseTTL, time.Now())
			if err != nil {
				log.Warn("lease heartbeat failed", "identity", s.cfg.Executor.Identity, "err", err)
			}
		}
	}
}

func isFatal(err error, target **executor.ErrFatal) bool {
	fatal, ok := err.(*executor.ErrFatal)
	if ok {
		*target = fatal
	}
	return ok
}
