package ingest

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/metrics"
	"github.com/ajitpratap0/colpir/pkg/observability"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// PipelineConfig configures Build.
type PipelineConfig struct {
	MaxRows     uint64
	MaxWarnings int
	MemoryGuard bool
}

// Pipeline runs detect, open, count, validate, memory check and load in
// that order. Validation cannot be skipped.
type Pipeline struct {
	config    PipelineConfig
	logger    *zap.Logger
	validator *Validator
	loader    *Loader
	probe     MemoryProbe
}

// NewPipeline creates a pipeline. With MemoryGuard set the available system
// memory is checked before the buffer is allocated.
func NewPipeline(config PipelineConfig, logger *zap.Logger) *Pipeline {
	p := &Pipeline{
		config:    config,
		logger:    logger,
		validator: NewValidator(logger),
		loader:    NewLoader(LoaderConfig{MaxRows: config.MaxRows, MaxWarnings: config.MaxWarnings}, logger),
	}
	if config.MemoryGuard {
		p.probe = SystemMemory
	}
	return p
}

// WithMemoryProbe replaces the memory probe used by the guard.
func (p *Pipeline) WithMemoryProbe(probe MemoryProbe) *Pipeline {
	p.probe = probe
	return p
}

// Build produces a database of exactly N entries from desc.
func (p *Pipeline) Build(ctx context.Context, desc Descriptor, width BitWidth) (*Database, *LoadReport, error) {
	if err := width.Validate(); err != nil {
		return nil, nil, err
	}
	logger := p.logger.With(zap.String("path", desc.Path), zap.Stringer("format", desc.Format))

	src, err := Open(desc)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Debug("failed to close source", zap.Error(cerr))
		}
	}()

	n, err := p.count(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, pirerrors.New(pirerrors.ErrorTypeStructural, "empty dataset").
			WithDetail("path", desc.Path)
	}
	logger.Info("rows counted", zap.Uint64("n", n))

	if err := p.validate(ctx, src, width); err != nil {
		return nil, nil, err
	}

	if err := CheckAllocation(n, p.probe, logger); err != nil {
		return nil, nil, err
	}

	db, report, err := p.load(ctx, src, n, width)
	if err != nil {
		return nil, nil, err
	}
	metrics.DatabaseEntries.Set(float64(db.Len()))
	logger.Info("database loaded",
		zap.Uint64("n", db.Len()),
		zap.Uint("bit_width", uint(width)),
		zap.Uint64("clamped", report.Clamped),
		zap.Uint64("zeroed", report.Zeroed()),
		zap.Bool("short", report.Short))
	return db, report, nil
}

func (p *Pipeline) count(ctx context.Context, src Source) (uint64, error) {
	ctx, end := observability.StartPhase(ctx, "count", attribute.String("format", src.Descriptor().Format.String()))
	timer := metrics.NewTimer("count")

	n, err := src.CountRows(ctx)
	timer.ObserveDuration()
	end(err)
	if err == nil {
		metrics.RowsScanned.WithLabelValues(src.Descriptor().Format.String(), "count").Add(float64(n))
	}
	return n, err
}

func (p *Pipeline) validate(ctx context.Context, src Source, width BitWidth) error {
	ctx, end := observability.StartPhase(ctx, "validate", attribute.Int("bit_width", int(width)))
	timer := metrics.NewTimer("validate")

	err := p.validator.Validate(ctx, src, width)
	timer.ObserveDuration()
	end(err)
	return err
}

func (p *Pipeline) load(ctx context.Context, src Source, n uint64, width BitWidth) (*Database, *LoadReport, error) {
	ctx, end := observability.StartPhase(ctx, "load", attribute.Int64("rows", int64(n)))
	timer := metrics.NewTimer("load")

	db, report, err := p.loader.Load(ctx, src, n, width)
	timer.ObserveDuration()
	end(err)
	return db, report, err
}
