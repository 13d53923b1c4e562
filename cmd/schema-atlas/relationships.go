package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"schema-atlas/internal/export"
	"schema-atlas/internal/similarity"
	"schema-atlas/internal/store"
)

var (
	queryOwner    string
	queryKinds    []string
	queryMinScore float64
	queryLimit    int
)

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Query relationships saved by earlier runs",
	Long: `Read relationships from the database written by "analyze --db".

Examples:
  schema-atlas relationships --db atlas.db --owner "petstore:GET /pets"
  schema-atlas relationships --db atlas.db --kind crud_pair --kind data_flow`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}

		if s == nil {
			return errors.New("no database configured (--db or store.path)")
		}
		defer s.Close()

		filter := store.Filter{Owner: queryOwner, MinScore: queryMinScore, Limit: queryLimit}

		for _, name := range queryKinds {
			kind, err := similarity.ParseKind(name)
			if err != nil {
				return err
			}

			filter.Kinds = append(filter.Kinds, kind)
		}

		results, err := s.Relationships(cmd.Context(), filter)
		if err != nil {
			return err
		}

		return export.WriteRelationships(os.Stdout, format, results)
	},
}

func init() {
	flags := relationshipsCmd.Flags()
	flags.StringVar(&queryOwner, "owner", "", "only relationships involving this owner id")
	flags.StringSliceVar(&queryKinds, "kind", nil, "only these kinds (similar_schema, common_fields, data_flow, crud_pair)")
	flags.Float64Var(&queryMinScore, "min-score", 0, "minimum score")
	flags.IntVarP(&queryLimit, "limit", "n", 0, "maximum rows (0 for all)")

	rootCmd.AddCommand(relationshipsCmd)
}
