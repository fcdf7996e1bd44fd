package ingest

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/metrics"
	"github.com/ajitpratap0/colpir/pkg/observability"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// LoaderConfig tunes the quantizing loader.
type LoaderConfig struct {
	// MaxRows caps the number of rows consumed; 0 means N
	MaxRows uint64
	// MaxWarnings caps per-cell warnings; the rest are summarized
	MaxWarnings int
}

// LoadReport summarizes how a load went. Anomalies never fail a load, they
// are counted here and logged.
type LoadReport struct {
	Rows       uint64 `json:"rows"`     // N, the database length
	Consumed   uint64 `json:"consumed"` // rows read from the source
	Clamped    uint64 `json:"clamped"`
	Unparsable uint64 `json:"unparsable"`
	Absent     uint64 `json:"absent"`
	Negative   uint64 `json:"negative"`
	Short      bool   `json:"short"`
	Suppressed int    `json:"suppressed_warnings"`
}

// Zeroed returns the number of cells stored as 0 because they had no usable
// value.
func (r *LoadReport) Zeroed() uint64 {
	return r.Unparsable + r.Absent + r.Negative
}

// Loader fills a database from a source without enforcing validation.
type Loader struct {
	config LoaderConfig
	logger *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(config LoaderConfig, logger *zap.Logger) *Loader {
	return &Loader{config: config, logger: logger}
}

// Load allocates a zeroed buffer of exactly n entries and fills it from src:
//
//   - a value in range is stored mod 2^d
//   - a value out of range is clamped to 2^d - 1
//   - unparsable, absent and negative cells are stored as 0
//
// Each repair is logged as a warning. If fewer than n rows are consumed the
// database keeps its trailing zeros and the report is marked short.
func (l *Loader) Load(ctx context.Context, src Source, n uint64, width BitWidth) (*Database, *LoadReport, error) {
	if err := width.Validate(); err != nil {
		return nil, nil, err
	}
	desc := src.Descriptor()
	if n == 0 {
		return nil, nil, pirerrors.New(pirerrors.ErrorTypeStructural, "empty dataset").
			WithDetail("path", desc.Path)
	}

	limit := n
	if l.config.MaxRows > 0 && l.config.MaxRows < n {
		limit = l.config.MaxRows
	}

	entries := make([]uint64, n)
	report := &LoadReport{Rows: n}
	max := width.Max()
	w := &warner{ctx: ctx, logger: l.logger.With(zap.String("path", desc.Path)), limit: l.config.MaxWarnings}

	err := src.Scan(ctx, func(c Cell) error {
		if report.Consumed >= limit {
			return ErrStop
		}
		idx := report.Consumed
		report.Consumed++

		switch c.Kind {
		case CellValue:
			if c.Value > max {
				entries[idx] = max
				report.Clamped++
				w.warn("value too large, clamped", c, zap.Uint64("stored", max))
				return nil
			}
			entries[idx] = width.Reduce(c.Value)
		case CellOverflow:
			entries[idx] = max
			report.Clamped++
			w.warn("value too large, clamped", c, zap.Uint64("stored", max))
		case CellNegative:
			report.Negative++
			w.warn("negative value, stored 0", c)
		case CellAbsent:
			report.Absent++
			w.warn("missing value, stored 0", c)
		default:
			report.Unparsable++
			w.warn("non-numeric value, stored 0", c)
		}
		return nil
	})
	metrics.RowsScanned.WithLabelValues(desc.Format.String(), "load").Add(float64(report.Consumed))
	if err != nil && !errors.Is(err, ErrStop) {
		return nil, nil, err
	}

	if report.Consumed < n {
		report.Short = true
		l.logger.Warn("fewer rows loaded than expected",
			zap.String("path", desc.Path),
			zap.Uint64("loaded", report.Consumed),
			zap.Uint64("expected", n))
		metrics.LoadAnomalies.WithLabelValues("short").Inc()
	}
	if w.suppressed > 0 {
		l.logger.Warn("further load warnings suppressed",
			zap.String("path", desc.Path),
			zap.Int("suppressed", w.suppressed))
	}
	report.Suppressed = w.suppressed

	metrics.LoadAnomalies.WithLabelValues("clamped").Add(float64(report.Clamped))
	metrics.LoadAnomalies.WithLabelValues("unparsable").Add(float64(report.Unparsable))
	metrics.LoadAnomalies.WithLabelValues("absent").Add(float64(report.Absent))
	metrics.LoadAnomalies.WithLabelValues("negative").Add(float64(report.Negative))

	return &Database{entries: entries, width: width}, report, nil
}

// warner rate-limits per-cell warnings. Emitted warnings are also recorded
// as events on the span in ctx.
type warner struct {
	ctx        context.Context
	logger     *zap.Logger
	limit      int
	emitted    int
	suppressed int
}

func (w *warner) warn(msg string, c Cell, fields ...zap.Field) {
	if w.emitted >= w.limit {
		w.suppressed++
		return
	}
	w.emitted++
	observability.AddEvent(w.ctx, "row_repaired",
		attribute.Int64("row", int64(c.Row)),
		attribute.String("repair", msg))
	w.logger.Warn(msg, append([]zap.Field{
		zap.Uint64("row", c.Row),
		zap.String("text", c.Raw),
	}, fields...)...)
}
