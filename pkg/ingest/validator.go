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

// Validator makes a strict, fail-fast pass over a source. It allocates
// nothing proportional to the number of rows.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate succeeds only if every present value of the column is a
// non-negative integer in [0, 2^d - 1]. Absent cells are skipped. The first
// violation is returned as a validation error naming the row and the text.
func (v *Validator) Validate(ctx context.Context, src Source, width BitWidth) error {
	if err := width.Validate(); err != nil {
		return err
	}

	desc := src.Descriptor()
	var scanned uint64
	defer func() {
		metrics.RowsScanned.WithLabelValues(desc.Format.String(), "validate").Add(float64(scanned))
	}()

	err := src.Scan(ctx, func(c Cell) error {
		scanned++
		switch c.Kind {
		case CellAbsent:
			return nil
		case CellValue:
			if width.Fits(c.Value) {
				return nil
			}
			return v.reject(ctx, desc, c, width, "value exceeds maximum")
		case CellOverflow:
			return v.reject(ctx, desc, c, width, "value exceeds maximum")
		case CellNegative:
			return v.reject(ctx, desc, c, width, "negative value")
		default:
			return v.reject(ctx, desc, c, width, "non-numeric value")
		}
	})
	if err != nil {
		if pirerrors.IsType(err, pirerrors.ErrorTypeValidation) {
			metrics.ValidationFailures.WithLabelValues(desc.Format.String(), reasonOf(err)).Inc()
		}
		return err
	}

	v.logger.Debug("column validated",
		zap.String("path", desc.Path),
		zap.Uint64("rows", scanned),
		zap.Uint("bit_width", uint(width)))
	return nil
}

func (v *Validator) reject(ctx context.Context, desc Descriptor, c Cell, width BitWidth, msg string) error {
	observability.AddEvent(ctx, "row_rejected",
		attribute.Int64("row", int64(c.Row)),
		attribute.String("reason", msg))

	err := pirerrors.New(pirerrors.ErrorTypeValidation, msg).
		WithDetail("path", desc.Path).
		WithDetail("row", c.Row).
		WithDetail("text", c.Raw).
		WithDetail("max", width.Max()).
		WithDetail("bit_width", uint(width))
	if desc.Format == FormatTypedColumnar {
		err.WithDetail("column", columnLabel(desc))
	}
	return err
}

// columnLabel names the typed-columnar column a cell came from.
func columnLabel(desc Descriptor) string {
	if desc.Column == "" {
		return "#0"
	}
	return desc.Column
}

func reasonOf(err error) string {
	var e *pirerrors.Error
	if errors.As(err, &e) {
		switch e.Message {
		case "value exceeds maximum":
			return "out_of_range"
		case "negative value":
			return "negative"
		case "non-numeric value":
			return "non_numeric"
		}
	}
	return "column_type"
}
