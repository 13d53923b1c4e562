package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schema-atlas/internal/export"
	"schema-atlas/internal/jobs"
	"schema-atlas/internal/relate"
)

var analyzeSource sourceOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze <openapi|manifest>...",
	Short: "Find related endpoints and models",
	Long: `Normalize every request, response and component schema, then score and
classify each pair that shares at least one field signature.

Examples:
  # Relate the endpoints of two services
  schema-atlas analyze users.yaml billing.yaml

  # Save the results into SQLite and print JSON
  schema-atlas analyze --db atlas.db --format json petstore.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, diags, err := loadInputs(ctx, args, analyzeSource, logger)
		if err != nil {
			return err
		}

		builder, err := relate.NewBuilder(cfg.Relate(logger))
		if err != nil {
			return err
		}

		opts := jobs.Options{Timeout: cfg.Analysis.Timeout, Logger: logger}

		s, err := openStore()
		if err != nil {
			return err
		}

		if s != nil {
			defer s.Close()
			opts.Saver = s
		}

		runner := jobs.NewRunner(builder, opts)
		defer runner.Close()

		id, err := runner.Submit(in)
		if err != nil {
			return err
		}

		st, err := runner.Wait(ctx, id)
		if err != nil {
			// Interrupted: stop the run and keep what was scored.
			_ = runner.Cancel(id)

			if st, err = runner.Wait(context.Background(), id); err != nil {
				return err
			}
		}

		if st.Report == nil {
			return fmt.Errorf("analysis %s %s: %s", id, st.State, st.Error)
		}

		st.Report.Diagnostics.Merge(diags)

		if err := export.WriteReport(os.Stdout, format, st.Report); err != nil {
			return err
		}

		printRunSummary(st)

		if st.State != jobs.StateDone {
			return errors.New(st.Error)
		}

		return nil
	},
}

func printRunSummary(st jobs.Status) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	r := st.Report

	mark := green("✓")
	if st.State != jobs.StateDone {
		mark = yellow("!")
	}

	fmt.Fprintf(os.Stderr, "%s run %s: %d relationships, %d skipped, %s\n",
		mark, r.RunID, len(r.Results), len(r.Skipped), st.FinishedAt.Sub(st.StartedAt).Round(time.Millisecond))

	if r.Truncated {
		fmt.Fprintf(os.Stderr, "%s scored %d of %d candidate pairs before the run stopped\n",
			yellow("!"), r.Stats.Scored, r.Stats.Candidates)
	}

	if cfg.Store.Path != "" && st.State != jobs.StateFailed {
		fmt.Fprintf(os.Stderr, "%s saved to %s\n", green("✓"), cfg.Store.Path)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSource.service, "service", "", "service name for OpenAPI inputs (default: document title)")
	analyzeCmd.Flags().BoolVar(&analyzeSource.skipComponents, "skip-components", false, "ignore OpenAPI component schemas")
	analyzeCmd.Flags().BoolVar(&analyzeSource.validate, "validate", false, "validate OpenAPI documents before importing")

	rootCmd.AddCommand(analyzeCmd)
}
