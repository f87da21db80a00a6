// Package flags holds CLI flag category labels shared by cmd/treasury-executor,
// mirroring the upstream go-ethereum internal/flags.RollupCategory pattern
// (cmd/utils/flags_rollup.go) for grouping related flags in --help output.
package flags

const (
	TreasuryCategory = "TREASURY EXECUTOR"
	LoggingCategory  = "LOGGING AND DEBUGGING"
	MetricsCategory  = "METRICS AND TELEMETRY"
)
