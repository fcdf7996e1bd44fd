package config

import (
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Defaults.
const (
	DefaultBitWidth        = 8
	DefaultLWEDimension    = 512
	DefaultPlaintextBits   = 8
	DefaultChallengeRows   = 32
	DefaultRepetitions     = 0
	DefaultMaxWarnings     = 100
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultTraceSampleRate = 1.0
)

// Config is the complete colpir configuration.
type Config struct {
	Source        SourceConfig        `mapstructure:"source" yaml:"source"`
	Protocol      ProtocolConfig      `mapstructure:"protocol" yaml:"protocol"`
	Benchmark     BenchmarkConfig     `mapstructure:"benchmark" yaml:"benchmark"`
	Ingest        IngestConfig        `mapstructure:"ingest" yaml:"ingest"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// SourceConfig identifies the column to ingest.
type SourceConfig struct {
	// Path of the source file; the suffix selects the format
	Path string `mapstructure:"path" yaml:"path"`
	// HasHeader discards the first CSV record
	HasHeader bool `mapstructure:"has_header" yaml:"has_header"`
	// Column names the Parquet column; empty selects the first one
	Column string `mapstructure:"column" yaml:"column"`
	// MaxRows caps the rows consumed by the loader, 0 means unlimited
	MaxRows uint64 `mapstructure:"max_rows" yaml:"max_rows"`
}

// ProtocolConfig holds PIR session parameters.
type ProtocolConfig struct {
	BitWidth      uint   `mapstructure:"bit_width" yaml:"bit_width"`
	LWEDimension  int    `mapstructure:"lwe_dimension" yaml:"lwe_dimension"`
	PlaintextBits uint   `mapstructure:"plaintext_bits" yaml:"plaintext_bits"`
	ChallengeRows int    `mapstructure:"challenge_rows" yaml:"challenge_rows"`
	Prove         bool   `mapstructure:"prove" yaml:"prove"`
	FakeHint      bool   `mapstructure:"fake_hint" yaml:"fake_hint"`
	Seed          uint64 `mapstructure:"seed" yaml:"seed"` // 0 draws a random seed
}

// BenchmarkConfig controls repeated query timing.
type BenchmarkConfig struct {
	// Repetitions is the number of extra timed queries, each with its own
	// throw-away query and secret
	Repetitions int `mapstructure:"repetitions" yaml:"repetitions"`
}

// IngestConfig tunes the loader and the pipeline.
type IngestConfig struct {
	MaxWarnings int  `mapstructure:"max_warnings" yaml:"max_warnings"`
	MemoryGuard bool `mapstructure:"memory_guard" yaml:"memory_guard"`
}

// ObservabilityConfig configures logging, tracing and metrics export.
type ObservabilityConfig struct {
	LogLevel        string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string  `mapstructure:"log_format" yaml:"log_format"`
	Development     bool    `mapstructure:"development" yaml:"development"`
	EnableTracing   bool    `mapstructure:"enable_tracing" yaml:"enable_tracing"`
	TraceSampleRate float64 `mapstructure:"trace_sample_rate" yaml:"trace_sample_rate"`
	MetricsFile     string  `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			HasHeader: true,
		},
		Protocol: ProtocolConfig{
			BitWidth:      DefaultBitWidth,
			LWEDimension:  DefaultLWEDimension,
			PlaintextBits: DefaultPlaintextBits,
			ChallengeRows: DefaultChallengeRows,
		},
		Benchmark: BenchmarkConfig{
			Repetitions: DefaultRepetitions,
		},
		Ingest: IngestConfig{
			MaxWarnings: DefaultMaxWarnings,
			MemoryGuard: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:        DefaultLogLevel,
			LogFormat:       DefaultLogFormat,
			TraceSampleRate: DefaultTraceSampleRate,
		},
	}
}

// Validate checks ranges and enumerations. The source path is not required
// because synthetic runs have none.
func (c *Config) Validate() error {
	if c.Protocol.BitWidth < 1 || c.Protocol.BitWidth > 64 {
		return invalid("protocol.bit_width", c.Protocol.BitWidth, "must be in [1, 64]")
	}
	if c.Protocol.PlaintextBits < 1 || c.Protocol.PlaintextBits > 10 {
		return invalid("protocol.plaintext_bits", c.Protocol.PlaintextBits, "must be in [1, 10]")
	}
	if c.Protocol.LWEDimension < 1 {
		return invalid("protocol.lwe_dimension", c.Protocol.LWEDimension, "must be positive")
	}
	if c.Protocol.ChallengeRows < 1 {
		return invalid("protocol.challenge_rows", c.Protocol.ChallengeRows, "must be positive")
	}
	if c.Benchmark.Repetitions < 0 {
		return invalid("benchmark.repetitions", c.Benchmark.Repetitions, "must not be negative")
	}
	if c.Protocol.FakeHint && c.Protocol.Prove {
		return invalid("protocol.prove", c.Protocol.Prove, "cannot be combined with protocol.fake_hint")
	}
	if c.Ingest.MaxWarnings < 0 {
		return invalid("ingest.max_warnings", c.Ingest.MaxWarnings, "must not be negative")
	}
	switch c.Observability.LogFormat {
	case "console", "json":
	default:
		return invalid("observability.log_format", c.Observability.LogFormat, "must be console or json")
	}
	if c.Observability.TraceSampleRate < 0 || c.Observability.TraceSampleRate > 1 {
		return invalid("observability.trace_sample_rate", c.Observability.TraceSampleRate, "must be in [0, 1]")
	}
	return nil
}

func invalid(key string, value interface{}, reason string) error {
	return pirerrors.New(pirerrors.ErrorTypeConfig, "invalid configuration").
		WithDetail("key", key).
		WithDetail("value", value).
		WithDetail("reason", reason)
}
