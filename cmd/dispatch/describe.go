package main

import (
	"fmt"

	"github.com/aretw0/dispatch/internal/presentation/tui"
	"github.com/aretw0/dispatch/internal/sample"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [plan.yaml]",
	Short: "Render a weaving plan as a readable report",
	Long: `Describes what weaving a plan against the demo catalog would do: the slots
that get wrapped, the methods observed and the handlers notified. Without an
argument the built-in plan is described.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		plan, err := loadPlan(path)
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		render := tui.NewRenderer(plain)
		out, err := render(tui.DescribePlan(plan, sample.NewCatalog(nil, nil).Targets()))
		if err != nil {
			return fmt.Errorf("render plan: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	describeCmd.Flags().Bool("plain", false, "Print raw markdown")
	rootCmd.AddCommand(describeCmd)
}
