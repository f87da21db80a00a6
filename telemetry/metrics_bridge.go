package telemetry

import (
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

var (
	circuitStateGauge = metrics.NewRegisteredGauge("executor/circuit/state", nil)
	failureCounter    = metrics.NewRegisteredCounter("executor/circuit/failures", nil)
	successCounter    = metrics.NewRegisteredCounter("executor/circuit/successes", nil)

	hostCPUGauge    = metrics.NewRegisteredGaugeFloat64("executor/host/cpu_percent", nil)
	hostMemoryGauge = metrics.NewRegisteredGaugeFloat64("executor/host/memory_percent", nil)
)

// MetricsBridge reports tick telemetry into the in-process go-ethereum
// metrics registry, the same registry miner/worker.go registers its
// transaction-conditional counters into. It also samples host CPU/memory on
// every update so the registry carries enough context to explain a circuit
// trip against a resource-starved host.
type MetricsBridge struct {
	sampleHost bool
}

// NewMetricsBridge constructs a MetricsBridge. sampleHost controls whether
// gopsutil host gauges are refreshed on every OnUpdate; disable in tests and
// on hosts where /proc sampling is unavailable.
func NewMetricsBridge(sampleHost bool) *MetricsBridge {
	return &MetricsBridge{sampleHost: sampleHost}
}

func (b *MetricsBridge) OnUpdate(state CircuitState, failures, successes uint64) {
	circuitStateGauge.Update(int64(state))
	failureCounter.Clear()
	failureCounter.Inc(int64(failures))
	successCounter.Clear()
	successCounter.Inc(int64(successes))

	if !b.sampleHost {
		return
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		hostCPUGauge.Update(pct[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hostMemoryGauge.Update(vm.UsedPercent)
	}
}

var _ Callback = (*MetricsBridge)(nil)
