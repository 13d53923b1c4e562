package main

import (
	"os"

	"github.com/spf13/cobra"

	"schema-atlas/internal/export"
	"schema-atlas/internal/fingerprint"
	"schema-atlas/internal/relate"
)

var (
	fieldsSource sourceOptions
	fieldsLimit  int
	crossOnly    bool
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <openapi|manifest>...",
	Short: "List the field signatures shared by several schemas",
	Long: `List field signatures (leaf name and type, e.g. "id:integer") ordered by
how many owners use them, with the services each appears in.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _, err := loadInputs(cmd.Context(), args, fieldsSource, logger)
		if err != nil {
			return err
		}

		builder, err := relate.NewBuilder(cfg.Relate(logger))
		if err != nil {
			return err
		}

		schemas, _ := builder.Normalize(in)
		usages := fingerprint.Build(schemas).CommonFields(fieldsLimit)

		if crossOnly {
			kept := usages[:0]
			for _, u := range usages {
				if u.CrossService() {
					kept = append(kept, u)
				}
			}

			usages = kept
		}

		return export.WriteFieldUsage(os.Stdout, format, usages)
	},
}

func init() {
	flags := fieldsCmd.Flags()
	flags.StringVar(&fieldsSource.service, "service", "", "service name for OpenAPI inputs (default: document title)")
	flags.IntVarP(&fieldsLimit, "limit", "n", 20, "maximum signatures to list (0 for all)")
	flags.BoolVar(&crossOnly, "cross-service", false, "only list signatures used by more than one service")

	rootCmd.AddCommand(fieldsCmd)
}
