package main

import (
	"fmt"

	"github.com/aretw0/dispatch"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dispatch",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dispatch version %s\n", dispatch.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
