// Package telemetry defines the Telemetry Bridge callback (§6.4): invoked
// once at the end of every executor tick with the circuit breaker's state
// and counters, so the tick procedure never depends on a specific metrics
// backend.
package telemetry

// CircuitState mirrors breaker.State as the u8 wire values §6.4 specifies,
// kept independent of the breaker package so telemetry has no import on
// executor internals beyond this narrow enum.
type CircuitState uint8

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// Callback is invoked once per tick with the circuit breaker's state and
// its failure/success counters (§6.4). Implementations must not block the
// executor for long; fan-out to slow sinks should happen asynchronously.
type Callback interface {
	OnUpdate(state CircuitState, failures, successes uint64)
}

// Func adapts a plain function to Callback, for tests and simple wiring.
type Func func(state CircuitState, failures, successes uint64)

func (f Func) OnUpdate(state CircuitState, failures, successes uint64) {
	f(state, failures, successes)
}

// Multi fans a single update out to every callback in order. A nil
// Callback entry is skipped, so an optional sink can be left in the slice
// as a nil interface value; a typed nil pointer (e.g. a nil *InfluxBridge)
// is not nil as a Callback and is called.
type Multi []Callback

func (m Multi) OnUpdate(state CircuitState, failures, successes uint64) {
	for _, cb := range m {
		if cb == nil {
			continue
		}
		cb.OnUpdate(state, failures, successes)
	}
}
