// Package config loads schedstats settings from an optional YAML file and
// SCHEDSTATS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/amirkhaki/schedstats/pkg/trace"
)

// Config holds all schedstats configuration.
type Config struct {
	// PrintEvery is the timeline quantum in instructions.
	PrintEvery uint64 `yaml:"print_every"`
	// Verbose is the diagnostic level (0 quiet, 2 switches, 4 every record).
	Verbose int `yaml:"verbose"`
	// ShardBy is "core" or "thread". Only "core" is analyzable.
	ShardBy string `yaml:"shard_by"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PrintEvery: 5000,
		Verbose:    0,
		ShardBy:    "core",
		LogFormat:  "console",
	}
}

// Load starts from Default, applies the YAML file at path (if path is not
// empty), then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides c from the environment. Unparsable numbers are errors.
func (c *Config) applyEnv() error {
	var errs []error
	var err error
	if c.PrintEvery, err = envUint("SCHEDSTATS_PRINT_EVERY", c.PrintEvery); err != nil {
		errs = append(errs, err)
	}
	if c.Verbose, err = envInt("SCHEDSTATS_VERBOSE", c.Verbose); err != nil {
		errs = append(errs, err)
	}
	c.ShardBy = envStr("SCHEDSTATS_SHARD_BY", c.ShardBy)
	c.LogFormat = envStr("SCHEDSTATS_LOG_FORMAT", c.LogFormat)
	return errors.Join(errs...)
}

// Validate checks every field.
func (c Config) Validate() error {
	var errs []error
	if c.Verbose < 0 {
		errs = append(errs, fmt.Errorf("verbose must not be negative, got %d", c.Verbose))
	}
	if _, ok := trace.ParseShardType(c.ShardBy); !ok {
		errs = append(errs, fmt.Errorf("unknown shard_by %q (want core or thread)", c.ShardBy))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q (want console or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ShardType returns the parsed ShardBy. It is ShardByCore for an invalid
// value; call Validate first.
func (c Config) ShardType() trace.ShardType {
	st, ok := trace.ParseShardType(c.ShardBy)
	if !ok {
		return trace.ShardByCore
	}
	return st
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: want an integer", key, v)
	}
	return n, nil
}

func envUint(key string, defaultVal uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: want a non-negative integer", key, v)
	}
	return n, nil
}
