// Package config provides the configuration system for colpir.
//
// A Config is assembled from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A YAML file, either given explicitly or found as .colpir.yaml in the
//     working directory or $HOME
//  3. COLPIR_ environment variables, with nested keys joined by underscores
//     (COLPIR_PROTOCOL_BIT_WIDTH=16)
//
// Command-line flags are applied on top by the CLI.
//
// Example configuration file:
//
//	source:
//	  path: prices.parquet
//	  column: price
//	protocol:
//	  bit_width: 16
//	  prove: true
//	benchmark:
//	  repetitions: 10
//	observability:
//	  log_level: debug
//
// Example usage:
//
//	cfg, err := config.Load("colpir.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg.Protocol.BitWidth = 12
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
