package telemetry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxBridge fans tick telemetry out to an external InfluxDB instance for
// governance alerting dashboards (§2 expansion: "peripheral, consumes TB's
// callback"). It is optional and never blocks the tick: writes go through
// the non-blocking WriteAPI, and a failed write is logged and dropped
// rather than retried inline.
type InfluxBridge struct {
	client influxdb2.Client
	writer api.WriteAPI
	bucket string
}

// NewInfluxBridge connects to an InfluxDB server at addr using token, and
// writes points into org/bucket.
func NewInfluxBridge(addr, token, org, bucket string) *InfluxBridge {
	client := influxdb2.NewClient(addr, token)
	return &InfluxBridge{
		client: client,
		writer: client.WriteAPI(org, bucket),
		bucket: bucket,
	}
}

func (b *InfluxBridge) OnUpdate(state CircuitState, failures, successes uint64) {
	point := influxdb2.NewPoint(
		"executor_tick",
		map[string]string{"bucket": b.bucket},
		map[string]interface{}{
			"circuit_state": int64(state),
			"failures":      int64(failures),
			"successes":     int64(successes),
		},
		time.Now(),
	)
	b.writer.WritePoint(point)

	errs := b.writer.Errors()
	select {
	case err := <-errs:
		if err != nil {
			log.Warn("influx telemetry write failed", "err", err)
		}
	default:
	}
}

// Close flushes pending points and releases the client. Callers should
// invoke this during supervisor shutdown.
func (b *InfluxBridge) Close(ctx context.Context) {
	b.writer.Flush()
	b.client.Close()
}

var _ Callback = (*InfluxBridge)(nil)
