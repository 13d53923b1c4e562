package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schema-atlas/internal/inputs"
	"schema-atlas/internal/openapi"
)

var (
	importOptions openapi.Options
	importOutput  string
)

var importCmd = &cobra.Command{
	Use:   "import <openapi>",
	Short: "Convert an OpenAPI document into an input manifest",
	Long: `Extract the request, response and component schemas of an OpenAPI 3.x
document and write them as a schema-atlas input manifest. $ref targets are
inlined; recursive references are cut with a $ref marker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := importOptions
		opts.Logger = logger

		res, err := openapi.ImportFile(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		for _, d := range res.Diagnostics.Warnings {
			logger.Warn(d.Message, "code", d.Code, "subject", d.Subject)
		}

		m, err := inputs.FromInputs(res.Service, res.Inputs)
		if err != nil {
			return err
		}

		if importOutput != "" {
			if err := inputs.WriteFile(m, importOutput); err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s wrote %d inputs (%d endpoints, %d models) to %s\n",
				green("✓"), len(m.Inputs), res.Endpoints, res.Models, importOutput)

			return nil
		}

		data, err := inputs.Marshal(m)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(data)

		return err
	},
}

func init() {
	flags := importCmd.Flags()
	flags.StringVar(&importOptions.Service, "service", "", "service name (default: document title)")
	flags.BoolVar(&importOptions.SkipComponents, "skip-components", false, "leave component schemas out")
	flags.BoolVar(&importOptions.Validate, "validate", false, "validate the document first")
	flags.StringVarP(&importOutput, "output", "o", "", "write the manifest to a file instead of stdout")

	rootCmd.AddCommand(importCmd)
}
