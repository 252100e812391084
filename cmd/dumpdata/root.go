package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scieloorg/journal-analytics/pkg/config"
	"github.com/scieloorg/journal-analytics/pkg/health"
	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/metrics"
	"github.com/scieloorg/journal-analytics/pkg/resilience"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// app carries the state shared by every subcommand: loaded configuration,
// optional metric collectors, and the metrics server shutdown hook.
type app struct {
	cfg         *config.Config
	metrics     *metrics.Metrics
	stopMetrics func(context.Context) error

	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "dumpdata",
		Short:         "Export and analyze SciELO journal data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVarP(&a.logLevel, "log-level", "l", "", "log level (debug, info, warning, error)")
	cmd.PersistentFlags().StringVarP(&a.logFile, "log-file", "o", "", "log file (stderr when empty)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a.stopMetrics != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.stopMetrics(ctx)
		}
	}

	cmd.AddCommand(
		newAccessesCmd(a),
		newCountsCmd(a),
		newLicensesCmd(a),
		newDatesCmd(a),
		newReportCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	if err := logger.Setup(level, cfg.Logging.Format, a.logFile); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(nil)
		a.stopMetrics = metrics.StartServer(cfg.Metrics.Port)
	}
	return nil
}

// factory builds the channel factory for one backend endpoint.
func (a *app) factory(ep config.Endpoint) rpc.Factory {
	opts := []rpc.DialOption{}
	if a.metrics != nil {
		opts = append(opts, rpc.WithMetrics(a.metrics))
	}
	return rpc.NewFactory(ep.Addr(), a.cfg.RPC, opts...)
}

// exportFactory builds the channel factory used by bulk exports: the same
// transport as factory, plus a circuit breaker so a run over thousands of
// documents fails fast when a backend stays down.
func (a *app) exportFactory(name string, ep config.Endpoint) rpc.Factory {
	breaker := resilience.NewBreaker(name, 5, 30*time.Second)
	return rpc.WithBreaker(a.factory(ep), breaker)
}

// preflight dials every required service once and refuses to proceed when
// one is down.
func (a *app) preflight(ctx context.Context, services map[string]config.Endpoint) error {
	checker := health.NewChecker()
	for name, ep := range services {
		checker.Register(name, health.EndpointCheck(ep.Addr(), a.cfg.RPC.DialTimeout))
	}
	return checker.Run(ctx).Err()
}

// openOutput opens the output file, or stdout when path is empty. The
// returned closer is a no-op for stdout.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
