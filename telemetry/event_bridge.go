package telemetry

import "github.com/ethereum/go-ethereum/event"

// CircuitUpdate is one fan-out payload sent by EventBridge, mirroring the
// arguments of Callback.OnUpdate.
type CircuitUpdate struct {
	State     CircuitState
	Failures  uint64
	Successes uint64
}

// EventBridge fans tick telemetry out to in-process subscribers via
// event.Feed, the same fan-out primitive go-ethereum uses for chain-head
// and log-filter events. Any number of internal consumers (an admin
// console, a test harness, an ad-hoc alerting goroutine) can subscribe
// without the executor depending on what they do with the update.
type EventBridge struct {
	feed event.Feed
}

// NewEventBridge constructs an EventBridge with no subscribers.
func NewEventBridge() *EventBridge {
	return &EventBridge{}
}

func (b *EventBridge) OnUpdate(state CircuitState, failures, successes uint64) {
	b.feed.Send(CircuitUpdate{State: state, Failures: failures, Successes: successes})
}

// Subscribe registers ch to receive every future CircuitUpdate. Callers
// must drain ch promptly and call the returned Subscription's Unsubscribe
// when done, per event.Feed's contract.
func (b *EventBridge) Subscribe(ch chan<- CircuitUpdate) event.Subscription {
	return b.feed.Subscribe(ch)
}

var _ Callback = (*EventBridge)(nil)
