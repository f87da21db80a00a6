// Package breaker implements the thread-safe three-state circuit breaker
// (§4.2) that gates the treasury executor's submission path.
package breaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is the circuit breaker's current mode.
type State uint8

const (
	Closed State = iota
	Open
	HalfOpen
)

// String matches the §6.4 telemetry encoding (0=Closed,1=Open,2=HalfOpen).
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds the tunables of §3's CircuitBreakerConfig.
type Config struct {
	FailureThreshold uint32
	SuccessThreshold uint32
	Timeout          time.Duration
	Window           time.Duration
}

// DefaultConfig matches the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
		Window:           300 * time.Second,
	}
}

// Breaker is a lock-light, atomics-backed circuit breaker. State reads and
// counter reads never block; only the Closed->Open and Half-Open->{Closed,
// Open} transitions take the narrow mutex, matching the spec's guidance
// that "the breaker itself cannot fail" and that spurious single extra
// counts during an in-flight transition are tolerable provided the state is
// eventually consistent (§4.2).
type Breaker struct {
	cfg Config
	now func() time.Time

	mu sync.Mutex

	state    atomic.Uint32
	openedAt atomic.Int64 // unix nanos

	failureCount   atomic.Uint32
	successCount   atomic.Uint32
	windowStartedAt atomic.Int64 // unix nanos, failure window anchor; reset when a failure arrives after the window elapsed
}

// New constructs a Breaker starting in the Closed state.
func New(cfg Config) *Breaker {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock is New with an injectable clock, for deterministic tests of
// P5 (window/timeout expiry).
func NewWithClock(cfg Config, now func() time.Time) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultConfig().Window
	}
	b := &Breaker{cfg: cfg, now: now}
	b.windowStartedAt.Store(now().UnixNano())
	return b
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// FailureCount returns the rolling failure counter.
func (b *Breaker) FailureCount() uint32 { return b.failureCount.Load() }

// SuccessCount returns the Half-Open success counter.
func (b *Breaker) SuccessCount() uint32 { return b.successCount.Load() }

// AllowRequest reports whether a submission attempt may proceed (§4.2).
// Closed always allows. Open allows only once the configured timeout has
// elapsed since opening, at which point it atomically transitions to
// Half-Open. Half-Open allows every request; the number of probes is not
// limited.
func (b *Breaker) AllowRequest() bool {
	switch State(b.state.Load()) {
	case Closed:
		return true
	case HalfOpen:
		return true
	case Open:
		openedAt := time.Unix(0, b.openedAt.Load())
		if b.now().Before(openedAt.Add(b.cfg.Timeout)) {
			return false
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if State(b.state.Load()) != Open {
			// Another goroutine already transitioned; re-evaluate under the
			// now-current state rather than double-transition.
			return b.AllowRequest()
		}
		b.successCount.Store(0)
		b.failureCount.Store(0)
		b.state.Store(uint32(HalfOpen))
		return true
	default:
		return false
	}
}

// RecordSuccess reports a successful submission (§4.2).
func (b *Breaker) RecordSuccess() {
	switch State(b.state.Load()) {
	case Closed:
		b.failureCount.Store(0)
	case HalfOpen:
		successes := b.successCount.Add(1)
		if successes >= b.cfg.SuccessThreshold {
			b.mu.Lock()
			if State(b.state.Load()) == HalfOpen {
				b.failureCount.Store(0)
				b.successCount.Store(0)
				b.state.Store(uint32(Closed))
				b.windowStartedAt.Store(b.now().UnixNano())
			}
			b.mu.Unlock()
		}
	}
}

// RecordFailure reports a transient submission failure (§4.2). Cancelled
// and Storage-class errors must never reach this method (§4.4/§7 P6).
func (b *Breaker) RecordFailure() {
	now := b.now()
	switch State(b.state.Load()) {
	case Closed:
		windowStart := time.Unix(0, b.windowStartedAt.Load())
		if now.Sub(windowStart) > b.cfg.Window {
			b.failureCount.Store(0)
			b.windowStartedAt.Store(now.UnixNano())
		}
		failures := b.failureCount.Add(1)
		if failures >= b.cfg.FailureThreshold {
			b.trip(now)
		}
	case HalfOpen:
		b.trip(now)
	}
}

// trip transitions Closed/Half-Open -> Open and stamps the opening time.
func (b *Breaker) trip(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if State(b.state.Load()) == Open {
		return
	}
	b.openedAt.Store(now.UnixNano())
	b.successCount.Store(0)
	b.state.Store(uint32(Open))
}
