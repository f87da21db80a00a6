package main

import (
	"github.com/urfave/cli/v2"

	"github.com/lumenchain/treasury-executor/internal/flags"
)

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.TreasuryCategory,
	}
	DataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the pebble store and lock file",
		Value:    "./treasury-data",
		Category: flags.TreasuryCategory,
	}
	IdentityFlag = &cli.StringFlag{
		Name:     "identity",
		Usage:    "Executor identity used for lease ownership (random uuid if unset)",
		Category: flags.TreasuryCategory,
	}
	SignerKeyFlag = &cli.StringFlag{
		Name:     "signer.key",
		Usage:    "Hex-encoded secp256k1 private key used to sign execution intents",
		Category: flags.TreasuryCategory,
	}
	PollIntervalFlag = &cli.DurationFlag{
		Name:     "poll.interval",
		Usage:    "Interval between executor ticks",
		Value:    defaultPollInterval,
		Category: flags.TreasuryCategory,
	}
	LeaseTTLFlag = &cli.DurationFlag{
		Name:     "lease.ttl",
		Usage:    "Executor lease validity window",
		Value:    defaultLeaseTTL,
		Category: flags.TreasuryCategory,
	}
	ShutdownCeilingFlag = &cli.DurationFlag{
		Name:     "shutdown.ceiling",
		Usage:    "Context deadline for the final tick run after a shutdown signal (default: 2x lease.ttl)",
		Category: flags.TreasuryCategory,
	}
	StrictDependenciesFlag = &cli.BoolFlag{
		Name:     "dependencies.strict",
		Usage:    "Report an unresolvable dependency id as an error in the tick snapshot rather than fail-closed 'not ready'",
		Category: flags.TreasuryCategory,
	}

	BreakerFailureThresholdFlag = &cli.UintFlag{
		Name:     "breaker.failure_threshold",
		Usage:    "Consecutive transient failures before the circuit breaker opens",
		Value:    defaultBreakerFailureThreshold,
		Category: flags.TreasuryCategory,
	}
	BreakerSuccessThresholdFlag = &cli.UintFlag{
		Name:     "breaker.success_threshold",
		Usage:    "Consecutive half-open successes required to close the circuit",
		Value:    defaultBreakerSuccessThreshold,
		Category: flags.TreasuryCategory,
	}
	BreakerTimeoutFlag = &cli.DurationFlag{
		Name:     "breaker.timeout",
		Usage:    "How long the breaker stays Open before probing Half-Open",
		Value:    defaultBreakerTimeout,
		Category: flags.TreasuryCategory,
	}
	BreakerWindowFlag = &cli.DurationFlag{
		Name:     "breaker.window",
		Usage:    "Window over which breaker failures are counted; the count restarts when a failure arrives after the window has elapsed (not a sliding window)",
		Value:    defaultBreakerWindow,
		Category: flags.TreasuryCategory,
	}

	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable the go-ethereum metrics registry and host gauge sampling",
		Category: flags.MetricsCategory,
	}
	InfluxURLFlag = &cli.StringFlag{
		Name:     "metrics.influx.url",
		Usage:    "InfluxDB v2 server URL for telemetry export (disabled if unset)",
		Category: flags.MetricsCategory,
	}
	InfluxTokenFlag = &cli.StringFlag{
		Name:     "metrics.influx.token",
		Usage:    "InfluxDB v2 auth token",
		Category: flags.MetricsCategory,
	}
	InfluxOrgFlag = &cli.StringFlag{
		Name:     "metrics.influx.org",
		Usage:    "InfluxDB v2 organization",
		Category: flags.MetricsCategory,
	}
	InfluxBucketFlag = &cli.StringFlag{
		Name:     "metrics.influx.bucket",
		Usage:    "InfluxDB v2 bucket",
		Category: flags.MetricsCategory,
	}

	LogLevelFlag = &cli.StringFlag{
		Name:     "log.level",
		Usage:    "Log level: trace, debug, info, warn, error, crit",
		Value:    "info",
		Category: flags.LoggingCategory,
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:     "log.json",
		Usage:    "Format console logs as JSON instead of the TTY-aware terminal format",
		Category: flags.LoggingCategory,
	}
	LogFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write JSON logs to this file (rotated via lumberjack) instead of stderr",
		Category: flags.LoggingCategory,
	}
)

var appFlags = []cli.Flag{
	ConfigFileFlag,
	DataDirFlag,
	IdentityFlag,
	SignerKeyFlag,
	PollIntervalFlag,
	LeaseTTLFlag,
	ShutdownCeilingFlag,
	StrictDependenciesFlag,
	BreakerFailureThresholdFlag,
	BreakerSuccessThresholdFlag,
	BreakerTimeoutFlag,
	BreakerWindowFlag,
	MetricsEnabledFlag,
	InfluxURLFlag,
	InfluxTokenFlag,
	InfluxOrgFlag,
	InfluxBucketFlag,
	LogLevelFlag,
	LogJSONFlag,
	LogFileFlag,
}
