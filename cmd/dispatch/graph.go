package main

import (
	"fmt"
	"io"

	"github.com/aretw0/dispatch/internal/presentation/graph"
	"github.com/aretw0/dispatch/internal/sample"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the woven demo catalog as a Mermaid class diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := demoOptionsFrom(cmd)
		if err != nil {
			return err
		}
		out := opts.out
		opts.out = io.Discard
		env, err := newDemoEnv(opts)
		if err != nil {
			return err
		}
		defer env.Close()

		var overlay *graph.GraphOverlay
		if observed, _ := cmd.Flags().GetBool("observed"); observed {
			if err := sample.RunScenario(cmd.Context(), env.catalog, io.Discard); err != nil {
				return err
			}
			overlay = &graph.GraphOverlay{}
			for _, ev := range env.recorder.Events() {
				overlay.Observed = append(overlay.Observed, ev.TargetName())
			}
		}

		fmt.Fprint(out, graph.GenerateMermaid(env.dispatcher.Registry(), overlay))
		return nil
	},
}

func init() {
	addDemoFlags(graphCmd)
	graphCmd.Flags().Bool("observed", false, "Run the demo scenario and highlight targets that produced events")
	rootCmd.AddCommand(graphCmd)
}
