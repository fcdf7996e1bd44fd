// Package ingest turns a numeric column stored in a file into a quantized,
// fixed bit-width database that a PIR session can serve.
//
// # Overview
//
// Ingestion makes three passes over the same source, in a fixed order:
//
//   - Count: the format adapter reports the number of usable rows (N).
//   - Validate: every value is checked against [0, 2^d - 1]; the first
//     violation aborts with row and text context.
//   - Load: a zeroed buffer of exactly N entries is allocated and filled,
//     clamping or zeroing anomalies with a warning.
//
// No allocation proportional to N happens before validation succeeds, so a
// malformed input is rejected before the expensive part of the work.
//
// # Formats
//
// The format is chosen from the file suffix alone (see DetectFormat). Format
// adapters register themselves with Register from their init functions:
//
//	import (
//	    _ "github.com/ajitpratap0/colpir/pkg/ingest/sources/csv"
//	    _ "github.com/ajitpratap0/colpir/pkg/ingest/sources/parquet"
//	)
//
// A format whose adapter is not linked into the binary is reported as an
// unsupported-format input error, the same way an unknown suffix is.
//
// # Basic Usage
//
//	p := ingest.NewPipeline(ingest.PipelineConfig{MaxWarnings: 100}, logger)
//	db, report, err := p.Build(ctx, ingest.NewDescriptor("prices.csv", true, ""), ingest.BitWidth(8))
//	if err != nil {
//	    return err
//	}
//	v, _ := db.At(3)
package ingest
