package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/export"
	"schema-atlas/internal/relate"
	"schema-atlas/internal/schema"
	"schema-atlas/internal/taxonomy"
)

var (
	categorizeSource sourceOptions
	commitPaths      bool
	showTree         bool
	modelsOnly       bool
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize <openapi|manifest>...",
	Short: "Suggest taxonomy paths for data models",
	Long: `Suggest a taxonomy path for every schema: a role bucket ("Request Models",
"Response Models", "Component Models") followed by the resource the owner
refers to. The taxonomy is read from --db when set; it is only changed with
--commit.

Examples:
  # Preview suggestions against an empty taxonomy
  schema-atlas categorize petstore.yaml

  # Create the suggested nodes and print the resulting tree
  schema-atlas categorize --db atlas.db --commit --tree petstore.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if commitPaths && cfg.Store.Path == "" {
			return errors.New("--commit needs a database (--db or store.path)")
		}

		in, _, err := loadInputs(ctx, args, categorizeSource, logger)
		if err != nil {
			return err
		}

		builder, err := relate.NewBuilder(cfg.Relate(logger))
		if err != nil {
			return err
		}

		models, skipped := builder.Normalize(in)
		for _, s := range skipped {
			logger.Warn("skipping schema", slog.String("schema", s.Ref.String()), slog.String("reason", s.Reason))
		}

		if modelsOnly {
			models = componentModels(models)
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		tree, err := taxonomy.NewTree(nil)
		if err != nil {
			return err
		}

		if s != nil {
			defer s.Close()

			if tree, err = s.LoadTree(ctx); err != nil {
				return err
			}
		}

		categorizer, err := taxonomy.NewCategorizer(cfg.Taxonomy, logger)
		if err != nil {
			return err
		}

		suggestions, err := categorizer.CategorizeAll(models, tree)
		if err != nil {
			var invalid *taxonomy.InvalidStateError
			if errors.As(err, &invalid) {
				return fmt.Errorf("stored taxonomy is corrupt: %s", invalid.Diagnostic())
			}

			return err
		}

		diags := taxonomy.Diagnose(suggestions)
		for _, d := range diags.Warnings {
			logger.Warn(d.Message, slog.String("code", d.Code), slog.String("model", d.Subject), slog.String("path", d.Path))
		}

		logger.Debug("categorized models",
			slog.Int("suggestions", len(suggestions)),
			slog.Int("fallbacks", len(diags.ByCode(diagnostic.CodeTaxonomyFallback))))

		if err := export.WriteSuggestions(os.Stdout, format, suggestions); err != nil {
			return err
		}

		if commitPaths {
			created := 0

			for _, sg := range suggestions {
				_, nodes, err := tree.Commit(sg.Path)
				if err != nil {
					return fmt.Errorf("failed to commit %s: %w", sg.Model, err)
				}

				created += len(nodes)
			}

			if err := s.SaveTree(ctx, tree); err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s committed %d suggestions, %d new nodes\n", green("✓"), len(suggestions), created)
		}

		if showTree {
			fmt.Fprintln(os.Stdout)
			return export.WriteTree(os.Stdout, format, tree)
		}

		return nil
	},
}

// componentModels keeps the schemas owned by data models.
func componentModels(schemas []schema.NormalizedSchema) []schema.NormalizedSchema {
	var out []schema.NormalizedSchema

	for _, s := range schemas {
		if s.Owner.Kind == schema.OwnerModel {
			out = append(out, s)
		}
	}

	return out
}

func init() {
	flags := categorizeCmd.Flags()
	flags.StringVar(&categorizeSource.service, "service", "", "service name for OpenAPI inputs (default: document title)")
	flags.BoolVar(&categorizeSource.skipComponents, "skip-components", false, "ignore OpenAPI component schemas")
	flags.BoolVar(&commitPaths, "commit", false, "create the suggested nodes in the stored taxonomy")
	flags.BoolVar(&showTree, "tree", false, "print the taxonomy after categorizing")
	flags.BoolVar(&modelsOnly, "models-only", false, "only categorize component models")

	rootCmd.AddCommand(categorizeCmd)
}
