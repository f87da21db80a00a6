package main

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultPollInterval           = 10 * time.Second
	defaultLeaseTTL               = 30 * time.Second
	defaultBreakerFailureThreshold = 5
	defaultBreakerSuccessThreshold = 2
	defaultBreakerTimeout          = 60 * time.Second
	defaultBreakerWindow           = 300 * time.Second
)

// fileConfig mirrors the flag set for operators who prefer a checked-in
// TOML file over a long command line (--config). Flags explicitly set on
// the command line take precedence over the same field loaded from file,
// except for the boolean settings, which are on when either the flag or the
// file turns them on.
type fileConfig struct {
	DataDir            string
	Identity            string
	SignerKey           string
	PollInterval        time.Duration
	LeaseTTL            time.Duration
	ShutdownCeiling     time.Duration
	StrictDependencies  bool

	BreakerFailureThreshold uint
	BreakerSuccessThreshold uint
	BreakerTimeout          time.Duration
	BreakerWindow           time.Duration

	Metrics       bool
	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string

	LogLevel string
	LogJSON  bool
	LogFile  string
}

// loadFileConfig parses a TOML configuration file. A missing path is not
// an error: callers fall back entirely to flag defaults.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if _, err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
