package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/dispatch"
	"github.com/aretw0/dispatch/internal/presentation/tui"
	httpAdapter "github.com/aretw0/dispatch/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo and expose the registry over HTTP",
	Long: `Weaves the sample catalog, runs the scenario once and serves /targets,
/events and /metrics until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := demoOptionsFrom(cmd)
		if err != nil {
			return err
		}
		tui.PrintBanner(opts.out, dispatch.Version, opts.color)
		env, err := newDemoEnv(opts)
		if err != nil {
			return err
		}
		defer env.Close()
		if err := runDemo(context.Background(), env, opts.out); err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(env.dispatcher.Registry(),
				httpAdapter.WithRecorder(env.recorder),
				httpAdapter.WithMetrics(promhttp.HandlerFor(env.metrics, promhttp.HandlerOpts{})),
				httpAdapter.WithLogger(opts.logger),
			),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(opts.out, "Serving introspection on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-shutdown:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	addDemoFlags(serveCmd)
	serveCmd.Flags().String("addr", ":2112", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
