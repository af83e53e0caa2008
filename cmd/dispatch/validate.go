package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/dispatch/internal/sample"
	"github.com/aretw0/dispatch/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan.yaml>",
	Short: "Check a weaving plan for consistency",
	Long: `Decodes the plan, rejects unknown event kinds and duplicate targets, and with
--sample checks it against the demo catalog. With --watch the plan is checked
again after every change until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useSample, _ := cmd.Flags().GetBool("sample")
		check := func(plan *config.Plan, err error) error {
			if err == nil && useSample {
				err = plan.Check(sample.NewCatalog(nil, nil).Targets())
			}
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan is valid: %d target(s)\n", len(plan.Targets))
			return nil
		}

		err := check(config.Load(args[0]))
		if watch, _ := cmd.Flags().GetBool("watch"); !watch {
			return err
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", args[0])
		return config.Watch(ctx, args[0], 200*time.Millisecond, func(plan *config.Plan, err error) {
			if err := check(plan, err); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("sample", false, "Also check target names against the demo catalog")
	validateCmd.Flags().Bool("watch", false, "Re-validate whenever the plan file changes")
}
