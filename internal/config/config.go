// Package config loads schema-atlas settings from an optional YAML file and
// SCHEMA_ATLAS_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"schema-atlas/internal/logging"
	"schema-atlas/internal/relate"
	"schema-atlas/internal/schema"
	"schema-atlas/internal/similarity"
	"schema-atlas/internal/taxonomy"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCHEMA_ATLAS_"

// Config holds all schema-atlas configuration.
type Config struct {
	Similarity similarity.Config `yaml:"similarity"`
	Analysis   AnalysisConfig    `yaml:"analysis"`
	Normalize  NormalizeConfig   `yaml:"normalize"`
	Taxonomy   taxonomy.Config   `yaml:"taxonomy"`
	Log        LogConfig         `yaml:"log"`
	Store      StoreConfig       `yaml:"store"`
}

// AnalysisConfig holds relationship analysis settings.
type AnalysisConfig struct {
	Workers            int           `yaml:"workers"`
	Timeout            time.Duration `yaml:"timeout"`
	EmitSecondaryKinds bool          `yaml:"emit_secondary_kinds"`
	MostConnected      int           `yaml:"most_connected"`
	CommonFields       int           `yaml:"common_fields"`
}

// NormalizeConfig holds schema normalization settings.
type NormalizeConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Similarity: similarity.DefaultConfig(),
		Analysis: AnalysisConfig{
			Timeout:            5 * time.Minute,
			EmitSecondaryKinds: true,
			MostConnected:      10,
			CommonFields:       20,
		},
		Normalize: NormalizeConfig{MaxDepth: schema.DefaultMaxDepth},
		Taxonomy:  taxonomy.DefaultConfig(),
		Log:       LogConfig{Level: "info", Format: logging.FormatText},
	}
}

// LoadFile reads a YAML config file, then applies environment overrides.
// An empty path loads the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Load(data)
}

// Load parses YAML data over the defaults, applies environment overrides
// and validates the result.
func Load(data []byte) (*Config, error) {
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse parses YAML data over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills values that were explicitly blanked.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if cfg.Normalize.MaxDepth == 0 {
		cfg.Normalize.MaxDepth = def.Normalize.MaxDepth
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Similarity.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("similarity: %w", err))
	}

	if err := c.Taxonomy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("taxonomy: %w", err))
	}

	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis: workers cannot be negative (got %d)", c.Analysis.Workers))
	}

	if c.Analysis.Timeout < 0 {
		errs = append(errs, fmt.Errorf("analysis: timeout cannot be negative (got %s)", c.Analysis.Timeout))
	}

	if c.Normalize.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("normalize: max_depth must be at least 1 (got %d)", c.Normalize.MaxDepth))
	}

	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log: unknown level %q", c.Log.Level))
	}

	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("log: format must be %q or %q (got %q)",
			logging.FormatText, logging.FormatJSON, c.Log.Format))
	}

	return errors.Join(errs...)
}

// Relate returns the analysis run configuration.
func (c *Config) Relate(logger *slog.Logger) relate.Config {
	return relate.Config{
		Workers:            c.Analysis.Workers,
		EmitSecondaryKinds: c.Analysis.EmitSecondaryKinds,
		MaxDepth:           c.Normalize.MaxDepth,
		MostConnected:      c.Analysis.MostConnected,
		CommonFields:       c.Analysis.CommonFields,
		Similarity:         c.Similarity,
		Logger:             logger,
	}
}

// Level returns the parsed log level.
func (c *Config) Level() slog.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Marshal serializes a Config to YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteFile writes a Config to the given path.
func WriteFile(cfg *Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnv overrides cfg from SCHEMA_ATLAS_* variables read through getenv.
func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	integer := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err))
				return
			}

			*dst = n
		}
	}

	float := func(key string, dst *float64) {
		if v := getenv(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err))
				return
			}

			*dst = f
		}
	}

	boolean := func(key string, dst *bool) {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err))
				return
			}

			*dst = b
		}
	}

	duration := func(key string, dst *time.Duration) {
		if v := getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err))
				return
			}

			*dst = d
		}
	}

	float("JACCARD_WEIGHT", &cfg.Similarity.JaccardWeight)
	float("STRUCTURAL_WEIGHT", &cfg.Similarity.StructuralWeight)
	float("SIMILAR_THRESHOLD", &cfg.Similarity.SimilarThreshold)
	integer("COMMON_FIELDS_LIMIT", &cfg.Similarity.CommonFieldsLimit)
	float("MIN_COMMON_SCORE", &cfg.Similarity.MinCommonScore)

	integer("WORKERS", &cfg.Analysis.Workers)
	duration("TIMEOUT", &cfg.Analysis.Timeout)
	boolean("EMIT_SECONDARY_KINDS", &cfg.Analysis.EmitSecondaryKinds)

	integer("MAX_DEPTH", &cfg.Normalize.MaxDepth)

	float("BASE_CONFIDENCE", &cfg.Taxonomy.BaseConfidence)
	float("FALLBACK_PENALTY", &cfg.Taxonomy.FallbackPenalty)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("DB", &cfg.Store.Path)

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	return errors.Join(errs...)
}
