package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dispatch"
	"github.com/aretw0/dispatch/internal/sample"
	redisAdapter "github.com/aretw0/dispatch/pkg/adapters/redis"
	"github.com/aretw0/dispatch/pkg/config"
	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/observability"
	"github.com/aretw0/dispatch/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

//go:embed plan.yaml
var defaultPlan []byte

// demoEnv is a woven sample catalog with every built-in handler attached.
type demoEnv struct {
	dispatcher *dispatch.Dispatcher
	catalog    *sample.Catalog
	recorder   *observability.Recorder
	metrics    *prometheus.Registry
	sink       *redisAdapter.StreamSink
}

type demoOptions struct {
	planPath  string
	redisAddr string
	color     bool
	out       io.Writer
	logger    *slog.Logger
}

func newDemoEnv(opts demoOptions) (*demoEnv, error) {
	plan, err := loadPlan(opts.planPath)
	if err != nil {
		return nil, err
	}

	env := &demoEnv{
		dispatcher: dispatch.New(dispatch.WithRegistry(registry.NewRegistry()), dispatch.WithLogger(opts.logger)),
		recorder:   observability.NewRecorder(256),
		metrics:    prometheus.NewRegistry(),
	}

	audit := observability.SlogHandler(opts.logger, slog.LevelInfo)
	env.catalog = sample.NewCatalog(audit, audit)

	m, err := observability.NewMetrics(env.metrics)
	if err != nil {
		return nil, err
	}
	extra := []domain.Handler{
		observability.NewConsole(opts.out, opts.color).Handler(),
		m.Handler(),
		env.recorder.Handle,
	}
	if opts.redisAddr != "" {
		env.sink = redisAdapter.New(opts.redisAddr, "", 0)
		extra = append(extra, env.sink.Handle)
	}

	if err := plan.Apply(env.dispatcher, env.catalog.Targets(), extra...); err != nil {
		env.Close()
		return nil, fmt.Errorf("apply plan: %w", err)
	}
	return env, nil
}

// Close releases the redis client, if any.
func (e *demoEnv) Close() error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Close()
}

func loadPlan(path string) (*config.Plan, error) {
	if path == "" {
		return config.Parse(defaultPlan)
	}
	return config.Load(path)
}

func demoOptionsFrom(cmd *cobra.Command) (demoOptions, error) {
	logger, err := loggerFor(cmd)
	if err != nil {
		return demoOptions{}, err
	}
	planPath, _ := cmd.Flags().GetString("plan")
	redisAddr, _ := cmd.Flags().GetString("redis")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return demoOptions{
		planPath:  planPath,
		redisAddr: redisAddr,
		color:     !noColor,
		out:       cmd.OutOrStdout(),
		logger:    logger,
	}, nil
}

func addDemoFlags(cmd *cobra.Command) {
	cmd.Flags().String("plan", "", "Weaving plan (defaults to the built-in plan)")
	cmd.Flags().String("redis", "", "Redis address; when set, events are appended to a stream")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Weave the sample catalog and run a scripted scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := demoOptionsFrom(cmd)
		if err != nil {
			return err
		}
		env, err := newDemoEnv(opts)
		if err != nil {
			return err
		}
		defer env.Close()
		return runDemo(cmd.Context(), env, opts.out)
	},
}

func runDemo(ctx context.Context, env *demoEnv, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := sample.RunScenario(ctx, env.catalog, out); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d event(s) dispatched\n", len(env.recorder.Events()))
	if env.sink != nil {
		n, err := env.sink.Len(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d event(s) in redis stream %s\n", n, redisAdapter.DefaultStream)
	}
	return nil
}

func init() {
	addDemoFlags(demoCmd)
	rootCmd.AddCommand(demoCmd)
}
