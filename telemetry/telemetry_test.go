package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulti_FansOutToEveryCallback(t *testing.T) {
	var calls []CircuitState
	a := Func(func(state CircuitState, failures, successes uint64) { calls = append(calls, state) })
	b := Func(func(state CircuitState, failures, successes uint64) { calls = append(calls, state) })

	m := Multi{a, b}
	m.OnUpdate(CircuitOpen, 3, 0)

	require.Equal(t, []CircuitState{CircuitOpen, CircuitOpen}, calls)
}

func TestMulti_SkipsNilEntries(t *testing.T) {
	called := false
	m := Multi{nil, Func(func(state CircuitState, failures, successes uint64) { called = true }), nil}
	require.NotPanics(t, func() { m.OnUpdate(CircuitClosed, 0, 1) })
	require.True(t, called)
}

func TestMetricsBridge_OnUpdateWithoutHostSamplingDoesNotPanic(t *testing.T) {
	b := NewMetricsBridge(false)
	require.NotPanics(t, func() { b.OnUpdate(CircuitHalfOpen, 2, 1) })
}

func TestEventBridge_DeliversUpdateToSubscriber(t *testing.T) {
	b := NewEventBridge()
	ch := make(chan CircuitUpdate, 1)
	sub := b.Subscribe(ch)
	defer sub.Unsubscribe()

	b.OnUpdate(CircuitOpen, 4, 1)

	select {
	case got := <-ch:
		require.Equal(t, CircuitUpdate{State: CircuitOpen, Failures: 4, Successes: 1}, got)
	default:
		t.Fatal("expected a buffered update, got none")
	}
}

func TestEventBridge_NoSubscribersDoesNotBlock(t *testing.T) {
	b := NewEventBridge()
	require.NotPanics(t, func() { b.OnUpdate(CircuitClosed, 0, 0) })
}
