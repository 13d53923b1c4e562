package main

import (
	"os"

	"github.com/spf13/cobra"

	"schema-atlas/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after applying --config, SCHEMA_ATLAS_* environment
variables and flags. The output is a valid config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(data)

		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
