package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/internal/session"
	"github.com/ajitpratap0/colpir/pkg/config"
	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/logger"
	"github.com/ajitpratap0/colpir/pkg/metrics"
	"github.com/ajitpratap0/colpir/pkg/observability"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/profiling"
	"github.com/ajitpratap0/colpir/pkg/simplepir"
)

// runFlags are the command line overrides of the run command.
type runFlags struct {
	configPath    string
	bits          uint
	index         uint64
	column        string
	noHeader      bool
	maxRows       uint64
	prove         bool
	fakeHint      bool
	repeat        int
	synthetic     uint64
	seed          uint64
	lweDim        int
	plaintextBits uint
	output        string
	metricsFile   string
	logLevel      string
	trace         bool
	cpuProfile    string
	memProfile    string
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Load a column and retrieve one entry privately",
		Long: `Load a numeric column, build a d-bit database and run a PIR session that
retrieves the entry at --index. The recovered value is compared with the
database and the outcome is reported with sizes and timings.

The source format is chosen by the file suffix (.csv or .parquet). CSV files
may be compressed (.csv.gz, .csv.zst, .csv.lz4, .csv.sz). Use --synthetic N
instead of a path to query N random entries.

Example:
  colpir run data.csv --bits 8 --index 3
  colpir run prices.parquet --column price --bits 32 --prove
  colpir run --synthetic 1048576 --bits 16 --repeat 10 --output json`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Source.Path = args[0]
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := checkOutput(f.output); err != nil {
				return err
			}
			if cfg.Source.Path == "" && f.synthetic == 0 {
				return pirerrors.New(pirerrors.ErrorTypeConfig, "no source").
					WithDetail("hint", "pass a path or --synthetic N")
			}
			if cfg.Source.Path != "" && f.synthetic > 0 {
				return pirerrors.New(pirerrors.ErrorTypeConfig, "a path and --synthetic are mutually exclusive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return execRun(ctx, cmd, cfg, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "Path to YAML configuration file")
	flags.UintVarP(&f.bits, "bits", "d", config.DefaultBitWidth, "Bit width d of database entries (1-64)")
	flags.Uint64VarP(&f.index, "index", "i", 0, "Database index to retrieve")
	flags.StringVar(&f.column, "column", "", "Parquet column name (default: first column)")
	flags.BoolVar(&f.noHeader, "no-header", false, "The CSV file has no header row")
	flags.Uint64Var(&f.maxRows, "max-rows", 0, "Load at most this many rows, 0 for all")
	flags.BoolVar(&f.prove, "prove", false, "Prove and verify the server answer")
	flags.BoolVar(&f.fakeHint, "fake-hint", false, "Use a zero hint to time the offline phase only")
	flags.IntVar(&f.repeat, "repeat", config.DefaultRepetitions, "Extra timed queries for latency statistics")
	flags.Uint64Var(&f.synthetic, "synthetic", 0, "Query N random entries instead of a file")
	flags.Uint64Var(&f.seed, "seed", 0, "Seed for engine randomness and synthetic data, 0 for random")
	flags.IntVar(&f.lweDim, "lwe-dim", config.DefaultLWEDimension, "LWE secret dimension")
	flags.UintVar(&f.plaintextBits, "plaintext-bits", config.DefaultPlaintextBits, "Bits per plaintext digit (1-10)")
	flags.StringVarP(&f.output, "output", "o", "text", "Report format (text, json)")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.BoolVar(&f.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	flags.StringVar(&f.cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	flags.StringVar(&f.memProfile, "memprofile", "", "Write a heap profile to this file on exit")

	return cmd
}

// apply overrides cfg with every flag set on the command line.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("bits") {
		cfg.Protocol.BitWidth = f.bits
	}
	if changed("column") {
		cfg.Source.Column = f.column
	}
	if changed("no-header") {
		cfg.Source.HasHeader = !f.noHeader
	}
	if changed("max-rows") {
		cfg.Source.MaxRows = f.maxRows
	}
	if changed("prove") {
		cfg.Protocol.Prove = f.prove
	}
	if changed("fake-hint") {
		cfg.Protocol.FakeHint = f.fakeHint
	}
	if changed("repeat") {
		cfg.Benchmark.Repetitions = f.repeat
	}
	if changed("seed") {
		cfg.Protocol.Seed = f.seed
	}
	if changed("lwe-dim") {
		cfg.Protocol.LWEDimension = f.lweDim
	}
	if changed("plaintext-bits") {
		cfg.Protocol.PlaintextBits = f.plaintextBits
	}
	if changed("metrics-file") {
		cfg.Observability.MetricsFile = f.metricsFile
	}
	if changed("log-level") {
		cfg.Observability.LogLevel = f.logLevel
	}
	if changed("trace") {
		cfg.Observability.EnableTracing = f.trace
	}
}

func execRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, f *runFlags) (err error) {
	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Development: cfg.Observability.Development,
		Encoding:    cfg.Observability.LogFormat,
	}); err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeConfig, "invalid logger configuration")
	}
	source := cfg.Source.Path
	if f.synthetic > 0 {
		source = "synthetic"
	}
	ctx = logger.NewContext(ctx, logger.SourceKey, source)
	log := logger.WithContext(ctx).With(zap.String("component", "colpir-cli"))

	if cfg.Observability.EnableTracing {
		tc := observability.DefaultConfig(version)
		tc.SamplingRate = cfg.Observability.TraceSampleRate
		tc.Writer = cmd.ErrOrStderr()
		if err := observability.Initialize(ctx, tc); err != nil {
			return err
		}
		defer func() {
			if serr := observability.Shutdown(context.Background()); serr != nil {
				log.Warn("failed to flush traces", zap.Error(serr))
			}
		}()
	}
	prof := profiling.NewProfiler(profiling.Config{CPUFile: f.cpuProfile, MemoryFile: f.memProfile}, log)
	if err := prof.Start(); err != nil {
		return err
	}
	defer func() {
		if perr := prof.Stop(); perr != nil {
			err = errors.Join(err, perr)
		}
	}()
	if path := cfg.Observability.MetricsFile; path != "" {
		defer func() {
			if werr := metrics.WriteTextfile(path); werr != nil {
				err = errors.Join(err, pirerrors.Wrap(werr, pirerrors.ErrorTypeInternal, "failed to write metrics").
					WithDetail("path", path))
			}
		}()
	}

	width := ingest.BitWidth(cfg.Protocol.BitWidth)
	rep := &runReport{}

	var db *ingest.Database
	if f.synthetic > 0 {
		db, err = syntheticDatabase(f.synthetic, width, cfg, log)
		rep.Source = sourceInfo{Path: "synthetic", Format: "synthetic", Synthetic: true}
	} else {
		desc := ingest.NewDescriptor(cfg.Source.Path, cfg.Source.HasHeader, cfg.Source.Column)
		pipeline := ingest.NewPipeline(ingest.PipelineConfig{
			MaxRows:     cfg.Source.MaxRows,
			MaxWarnings: cfg.Ingest.MaxWarnings,
			MemoryGuard: cfg.Ingest.MemoryGuard,
		}, log)
		db, rep.Load, err = pipeline.Build(ctx, desc, width)
		rep.Source = sourceInfo{Path: filepath.Base(desc.Path), Format: desc.Format.String()}
	}
	if err != nil {
		return err
	}
	rep.Source.Rows = db.Len()
	rep.Source.BitWidth = uint(db.Width())
	rep.DatabaseMiB = db.SizeBytes() / (1 << 20)

	engine, err := simplepir.New(simplepir.Config{
		LWEDimension:  cfg.Protocol.LWEDimension,
		PlaintextBits: cfg.Protocol.PlaintextBits,
		ChallengeRows: cfg.Protocol.ChallengeRows,
		Seed:          cfg.Protocol.Seed,
	})
	if err != nil {
		return err
	}

	sess := session.New(engine, db, session.Config{FakeHint: cfg.Protocol.FakeHint}, log)
	res, runErr := sess.Run(ctx, f.index, session.RunOptions{
		Prove:       cfg.Protocol.Prove,
		Repetitions: cfg.Benchmark.Repetitions,
	})
	if res == nil {
		return runErr
	}
	rep.Result = res
	rep.Telemetry = sess.Telemetry()
	if runErr != nil {
		rep.Error = runErr.Error()
	}

	if err := renderRun(cmd.OutOrStdout(), rep, f.output); err != nil {
		return errors.Join(runErr, fmt.Errorf("render report: %w", err))
	}
	return runErr
}

func syntheticDatabase(n uint64, width ingest.BitWidth, cfg *config.Config, log *zap.Logger) (*ingest.Database, error) {
	var probe ingest.MemoryProbe
	if cfg.Ingest.MemoryGuard {
		probe = ingest.SystemMemory
	}
	if err := ingest.CheckAllocation(n, probe, log); err != nil {
		return nil, err
	}
	db := ingest.Synthetic(n, width, cfg.Protocol.Seed)
	log.Info("synthetic database generated", zap.Uint64("entries", n), zap.Uint("bit_width", uint(width)))
	return db, nil
}

func checkOutput(output string) error {
	switch output {
	case "text", "json":
		return nil
	default:
		return pirerrors.New(pirerrors.ErrorTypeConfig, "unknown output format").
			WithDetail("output", output)
	}
}

// maxArgs is cobra.MaximumNArgs with a config error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return pirerrors.Newf(pirerrors.ErrorTypeConfig, "accepts at most %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}

// exactArgs is cobra.ExactArgs with a config error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return pirerrors.Newf(pirerrors.ErrorTypeConfig, "accepts %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}
