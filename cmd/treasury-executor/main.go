// Command treasury-executor runs the Spawn Supervisor as a standalone
// process: it loads an executor identity and signing key, opens the
// pebble-backed persistent store, and drives the Executor Tick on a fixed
// poll interval until terminated.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/lumenchain/treasury-executor/breaker"
	"github.com/lumenchain/treasury-executor/executor"
	"github.com/lumenchain/treasury-executor/lease"
	"github.com/lumenchain/treasury-executor/signer"
	"github.com/lumenchain/treasury-executor/store"
	"github.com/lumenchain/treasury-executor/submitter"
	"github.com/lumenchain/treasury-executor/supervisor"
	"github.com/lumenchain/treasury-executor/telemetry"
)

func main() {
	app := cli.NewApp()
	app.Name = "treasury-executor"
	app.Usage = "treasury disbursement executor"
	app.Flags = appFlags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	fileCfg, err := loadFileConfig(ctx.String(ConfigFileFlag.Name))
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	setupLogging(ctx, fileCfg)

	undoMaxProcs, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		log.Debug(fmt.Sprintf(format, a...))
	}))
	if err != nil {
		log.Warn("failed to set GOMAXPROCS", "err", err)
	} else {
		defer undoMaxProcs()
	}

	identity := stringFlagOr(ctx, IdentityFlag.Name, fileCfg.Identity)
	if identity == "" {
		identity = uuid.NewString()
		log.Info("no --identity supplied, generated random executor identity", "identity", identity)
	}

	dataDir := stringFlagOr(ctx, DataDirFlag.Name, fileCfg.DataDir)
	if dataDir == "" {
		dataDir = "./treasury-data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.OpenPebbleStore(filepath.Join(dataDir, "pebble"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	keyHex := stringFlagOr(ctx, SignerKeyFlag.Name, fileCfg.SignerKey)
	if keyHex == "" {
		return fmt.Errorf("signer.key is required")
	}
	keyBytes, err := hex.DecodeString(trimHexPrefix(keyHex))
	if err != nil {
		return fmt.Errorf("decoding signer.key: %w", err)
	}
	key := secp256k1.PrivKeyFromBytes(keyBytes)
	sig := signer.NewECDSASigner(identity, key, st)

	sub := submitter.NewLoopbackSubmitter(nil)

	breakerCfg := breaker.Config{
		FailureThreshold: uint32(uintFlagOr(ctx, BreakerFailureThresholdFlag.Name, fileCfg.BreakerFailureThreshold)),
		SuccessThreshold: uint32(uintFlagOr(ctx, BreakerSuccessThresholdFlag.Name, fileCfg.BreakerSuccessThreshold)),
		Timeout:          durationFlagOr(ctx, BreakerTimeoutFlag.Name, fileCfg.BreakerTimeout, defaultBreakerTimeout),
		Window:           durationFlagOr(ctx, BreakerWindowFlag.Name, fileCfg.BreakerWindow, defaultBreakerWindow),
	}
	cb := breaker.New(breakerCfg)

	// events fans every tick's circuit update out via event.Feed so an
	// in-process consumer (e.g. an admin console wired in later) can
	// subscribe without the executor depending on what it does with it.
	events := telemetry.NewEventBridge()
	telem := telemetry.Multi{events}
	if ctx.Bool(MetricsEnabledFlag.Name) || fileCfg.Metrics {
		telem = append(telem, telemetry.NewMetricsBridge(true))
	}
	influxURL := stringFlagOr(ctx, InfluxURLFlag.Name, fileCfg.InfluxURL)
	if influxURL != "" {
		bridge := telemetry.NewInfluxBridge(
			influxURL,
			stringFlagOr(ctx, InfluxTokenFlag.Name, fileCfg.InfluxToken),
			stringFlagOr(ctx, InfluxOrgFlag.Name, fileCfg.InfluxOrg),
			stringFlagOr(ctx, InfluxBucketFlag.Name, fileCfg.InfluxBucket),
		)
		defer bridge.Close(context.Background())
		telem = append(telem, bridge)
	}

	execCfg := &executor.Config{
		Identity:           identity,
		LeaseTTL:           durationFlagOr(ctx, LeaseTTLFlag.Name, fileCfg.LeaseTTL, defaultLeaseTTL),
		EpochSource:        wallClockEpoch,
		Store:              st,
		Signer:             sig,
		Submitter:          sub,
		Breaker:            cb,
		Leases:             lease.New(st),
		Telemetry:          telem,
		StrictDependencies: ctx.Bool(StrictDependenciesFlag.Name) || fileCfg.StrictDependencies,
	}

	superCfg := supervisor.Config{
		Executor:        execCfg,
		PollInterval:    durationFlagOr(ctx, PollIntervalFlag.Name, fileCfg.PollInterval, defaultPollInterval),
		ShutdownCeiling: durationFlagOr(ctx, ShutdownCeilingFlag.Name, fileCfg.ShutdownCeiling, 0),
		LockPath:        filepath.Join(dataDir, "treasury-executor.lock"),
	}
	super := supervisor.New(superCfg)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting treasury executor", "identity", identity, "datadir", dataDir, "poll_interval", superCfg.PollInterval)
	if err := super.Run(sigCtx); err != nil {
		return fmt.Errorf("supervisor exited: %w", err)
	}
	log.Info("treasury executor shut down cleanly")
	return nil
}

// wallClockEpoch is the default EpochSource for standalone operation: the
// executor treats each poll as its own epoch counter, ticking off Unix
// time. Deployments with an external governance epoch feed replace this
// via executor.Config.EpochSource.
func wallClockEpoch() uint64 {
	return uint64(time.Now().Unix())
}

// setupLogging builds the root logger the way cmd/geth does: a TTY-aware
// colored terminal handler by default, JSON on request, and a rotating
// file sink (lumberjack) when --log.file is set instead of the console.
func setupLogging(ctx *cli.Context, fileCfg fileConfig) {
	level := stringFlagOr(ctx, LogLevelFlag.Name, fileCfg.LogLevel)
	lvl := log.FromLegacyLevel(levelFromString(level))

	logFile := stringFlagOr(ctx, LogFileFlag.Name, fileCfg.LogFile)
	useJSON := ctx.Bool(LogJSONFlag.Name) || fileCfg.LogJSON

	var handler slog.Handler
	switch {
	case logFile != "":
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
		}
		handler = log.JSONHandlerWithLevel(rotator, lvl)
	case useJSON:
		handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	default:
		isTTY := isatty.IsTerminal(os.Stderr.Fd())
		if !isTTY {
			color.NoColor = true
		}
		handler = log.NewTerminalHandlerWithLevel(colorable.NewColorableStderr(), lvl, isTTY)
	}

	log.SetDefault(log.NewLogger(handler))
}

func levelFromString(s string) int {
	switch s {
	case "trace":
		return 5
	case "debug":
		return 4
	case "warn":
		return 2
	case "error":
		return 1
	case "crit":
		return 0
	default:
		return 3 // info
	}
}

func stringFlagOr(ctx *cli.Context, name, fallback string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return fallback
}

// durationFlagOr resolves a duration flag: explicit CLI flag first, then
// the TOML file value (if nonzero), then def.
func durationFlagOr(ctx *cli.Context, name string, fileVal, def time.Duration) time.Duration {
	if ctx.IsSet(name) {
		return ctx.Duration(name)
	}
	if fileVal > 0 {
		return fileVal
	}
	if v := ctx.Duration(name); v > 0 {
		return v
	}
	return def
}

// uintFlagOr resolves a uint flag the same way durationFlagOr does.
func uintFlagOr(ctx *cli.Context, name string, fileVal uint) uint {
	if ctx.IsSet(name) {
		return ctx.Uint(name)
	}
	if fileVal > 0 {
		return fileVal
	}
	return ctx.Uint(name)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
