package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

const (
	configName      = ".colpir"
	configType      = "yaml"
	envPrefix       = "COLPIR"
	envKeySeparator = "_"
)

// Load loads configuration from defaults, a YAML file and COLPIR_ env vars.
// If configPath is empty the file is searched in CWD and $HOME; a missing
// file is not an error.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, pirerrors.Wrap(err, pirerrors.ErrorTypeConfig, "read config").
				WithDetail("path", configPath)
		}
	}

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, pirerrors.Wrap(err, pirerrors.ErrorTypeConfig, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	d := Default()

	viperCfg.SetDefault("source.path", d.Source.Path)
	viperCfg.SetDefault("source.has_header", d.Source.HasHeader)
	viperCfg.SetDefault("source.column", d.Source.Column)
	viperCfg.SetDefault("source.max_rows", d.Source.MaxRows)

	viperCfg.SetDefault("protocol.bit_width", d.Protocol.BitWidth)
	viperCfg.SetDefault("protocol.lwe_dimension", d.Protocol.LWEDimension)
	viperCfg.SetDefault("protocol.plaintext_bits", d.Protocol.PlaintextBits)
	viperCfg.SetDefault("protocol.challenge_rows", d.Protocol.ChallengeRows)
	viperCfg.SetDefault("protocol.prove", d.Protocol.Prove)
	viperCfg.SetDefault("protocol.fake_hint", d.Protocol.FakeHint)
	viperCfg.SetDefault("protocol.seed", d.Protocol.Seed)

	viperCfg.SetDefault("benchmark.repetitions", d.Benchmark.Repetitions)

	viperCfg.SetDefault("ingest.max_warnings", d.Ingest.MaxWarnings)
	viperCfg.SetDefault("ingest.memory_guard", d.Ingest.MemoryGuard)

	viperCfg.SetDefault("observability.log_level", d.Observability.LogLevel)
	viperCfg.SetDefault("observability.log_format", d.Observability.LogFormat)
	viperCfg.SetDefault("observability.development", d.Observability.Development)
	viperCfg.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	viperCfg.SetDefault("observability.trace_sample_rate", d.Observability.TraceSampleRate)
	viperCfg.SetDefault("observability.metrics_file", d.Observability.MetricsFile)
}

// Save writes cfg to filePath as YAML.
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return pirerrors.Wrap(err, pirerrors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", filePath)
	}
	return nil
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
