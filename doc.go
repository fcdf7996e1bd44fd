// Package colpir loads one numeric column from a CSV or Parquet file into a
// d-bit database and runs a single-server private information retrieval
// (PIR) session over it. The server answers a query for one index without
// learning which index was asked for.
//
// # Architecture
//
// A run goes through two stages.
//
// 1. Ingestion (pkg/ingest): the file suffix selects a registered reader,
// rows are counted, every value is validated against the bit width, the
// available memory is checked, and the quantizing loader fills a database of
// exactly N entries. Validation always completes before loading starts.
//
// 2. Session (internal/session): a state machine drives the engine through
// Init, PackDatabase, GenerateHint and Commit once, then Query, Answer, an
// optional Prove and Verify, and Recover for each index. Any out-of-order
// call or out-of-range index aborts the session before the engine is
// touched.
//
// # Quick Start
//
//	pipeline := ingest.NewPipeline(ingest.PipelineConfig{MemoryGuard: true}, logger)
//	db, _, err := pipeline.Build(ctx, ingest.NewDescriptor("data.csv", true, ""), 8)
//
//	engine, _ := simplepir.New(simplepir.DefaultConfig())
//	sess := session.New(engine, db, session.Config{}, logger)
//	res, err := sess.Run(ctx, 3, session.RunOptions{Prove: true})
//
// # Key Packages
//
//	pkg/ingest        - Format detection, validation, loading, statistics
//	pkg/ingest/sources - CSV and Parquet readers and writers
//	pkg/simplepir     - LWE-based PIR engine with answer proofs
//	pkg/compression   - Compressed CSV streams
//	pkg/config        - YAML and environment configuration
//	pkg/pirerrors     - Error taxonomy and exit codes
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus metrics and textfile export
//	pkg/observability - OpenTelemetry spans per phase
//
// # Errors
//
// Every fatal condition is a *pirerrors.Error whose type selects the exit
// code of the colpir command: input 2, validation 3, structural 4, protocol
// 5, verification 6, mismatch 7, config 8, anything else 1. Load-time
// repairs (clamped, negative or missing values) are logged as warnings and
// never fail a run.
//
// # Development
//
//	go test ./...
//	go run ./cmd/colpir generate data.csv --rows 100000 --bits 16
//	go run ./cmd/colpir run data.csv --bits 16 --index 42 --prove
package colpir
