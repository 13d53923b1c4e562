package relate

import (
	"fmt"
	"log/slog"
	"runtime"

	"schema-atlas/internal/similarity"
)

// Config controls an analysis run.
type Config struct {
	// Workers bounds concurrent pair scoring. Zero uses GOMAXPROCS.
	Workers int
	// EmitSecondaryKinds also emits data_flow and crud_pair for pairs whose
	// primary kind is a body-similarity kind.
	EmitSecondaryKinds bool
	// MaxDepth bounds schema nesting during normalization. Zero uses the default.
	MaxDepth int
	// MostConnected is the number of owners listed in Stats.MostConnected.
	MostConnected int
	// CommonFields is the number of signatures listed in Report.CommonFields.
	// Zero lists all shared signatures.
	CommonFields int

	Similarity similarity.Config
	Logger     *slog.Logger
}

const defaultMostConnected = 10

// DefaultConfig returns the default run configuration.
func DefaultConfig() Config {
	return Config{
		EmitSecondaryKinds: true,
		MostConnected:      defaultMostConnected,
		Similarity:         similarity.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative (got %d)", c.Workers)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative (got %d)", c.MaxDepth)
	}

	if err := c.Similarity.Validate(); err != nil {
		return fmt.Errorf("similarity: %w", err)
	}

	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return runtime.GOMAXPROCS(0)
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.DiscardHandler)
}
