package main

import (
	"fmt"

	"github.com/spf13/cobra"

	kschema "github.com/ormasoftchile/specref/pkg/kernel/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Export the specref/v0 document JSON Schema to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := kschema.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
