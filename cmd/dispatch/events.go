package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the event kinds that can be dispatched",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "EVENT\tTARGETS")
		for _, k := range domain.AllEvents() {
			applies := "classes, functions"
			if domain.ClassOnlyEvents.Has(k) {
				applies = "classes"
			}
			fmt.Fprintf(tw, "%s\t%s\n", k, applies)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
