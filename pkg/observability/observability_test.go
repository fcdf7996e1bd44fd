package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartPhase_NoopBeforeInitialize(t *testing.T) {
	ctx, end := StartPhase(context.Background(), "count")
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() { end(errors.New("boom")) })
}

func TestInitialize_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig("test")
	cfg.Writer = &buf

	ctx := context.Background()
	require.NoError(t, Initialize(ctx, cfg))

	phaseCtx, end := StartPhase(ctx, "validate", attribute.String("format", "csv"))
	AddEvent(phaseCtx, "row_rejected", attribute.Int("row", 2))
	end(nil)

	require.NoError(t, Shutdown(ctx))
	assert.Contains(t, buf.String(), `"Name":"validate"`)
	assert.Contains(t, buf.String(), "row_rejected")

	// a second shutdown is a no-op
	assert.NoError(t, Shutdown(ctx))
}

func TestRecordPhase_GlobalMeter(t *testing.T) {
	require.NotNil(t, Meter())
	assert.NotPanics(t, func() {
		recordPhase(context.Background(), "answer", 0, nil)
		recordPhase(context.Background(), "answer", 1, errors.New("boom"))
	})
}
