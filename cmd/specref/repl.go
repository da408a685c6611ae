package main

import (
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/specref/pkg/debugger"
)

var replCmd = &cobra.Command{
	Use:   "repl [document.yaml]",
	Short: "Interactively resolve specifications against a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, cleanup, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		d := debugger.New(s, useColor())
		d.SetOutput(cmd.OutOrStdout())
		return d.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
