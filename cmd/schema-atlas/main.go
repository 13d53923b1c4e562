// Package main provides the schema-atlas CLI.
//
// schema-atlas reads OpenAPI documents or input manifests and:
//   - relates endpoints and models whose request/response bodies share fields
//   - suggests where each data model belongs in a taxonomy tree
//   - lists the field signatures shared across services
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schema-atlas/internal/config"
	"schema-atlas/internal/export"
	"schema-atlas/internal/logging"
	"schema-atlas/internal/store"
)

var (
	configPath string
	formatName string
	dbPath     string
	timeout    time.Duration
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
	format export.Format
)

var rootCmd = &cobra.Command{
	Use:   "schema-atlas",
	Short: "Relate and categorize API schemas across services",
	Long: `schema-atlas analyzes the request and response bodies of API endpoints
and the data models of one or more services.

Inputs are OpenAPI 3.x documents (JSON or YAML) or schema-atlas input
manifests. Settings come from --config and SCHEMA_ATLAS_* environment
variables; flags win over both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()

		if flags.Changed("db") {
			loaded.Store.Path = dbPath
		}

		if flags.Changed("timeout") {
			loaded.Analysis.Timeout = timeout
		}

		if flags.Changed("log-level") {
			loaded.Log.Level = logLevel
		}

		if flags.Changed("log-format") {
			loaded.Log.Format = logFormat
		}

		if err := loaded.Validate(); err != nil {
			return err
		}

		format, err = export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		cfg = loaded
		logger = logging.Init(os.Stderr, cfg.Log.Format, cfg.Level())

		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&formatName, "format", "f", "text", "output format: text, yaml or json")
	flags.StringVar(&dbPath, "db", "", "SQLite database to save results into")
	flags.DurationVar(&timeout, "timeout", 0, "analysis timeout (0 disables)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// openStore opens the configured database, or returns nil when none is set.
func openStore() (*store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}

	s, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.Store.Path, err)
	}

	return s, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()

		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}
