package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"yarnpull/internal/config"
	"yarnpull/internal/infrastructure"
	"yarnpull/internal/metrics"
	"yarnpull/internal/services"
)

// app is the state shared by the subcommands of one invocation
type app struct {
	configPath string
	logLevel   string
	outDir     string

	cfg      *config.Config
	logger   *slog.Logger
	tracing  *infrastructure.TracingProvider
	recorder *metrics.Recorder
	service  *services.AnalysisService
}

// Execute runs the CLI with the process arguments
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	if err := run(ctx, root, a); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// run executes root and always flushes tracing and metrics afterwards, also when the
// command failed
func run(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); err == nil {
		err = terr
	}
	return err
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "pullout",
		Short:         "Analyze yarn pull-out test recordings",
		Long:          "Computes peak force, modulus and work of yarn pull-out recordings and writes Excel, CSV and chart reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./"+config.ConfigFileName+" or ./configs/"+config.ConfigFileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&a.outDir, "out", "o", "", "output directory for reports")

	root.AddCommand(seriesCmd(a), batchCmd(a), watchCmd(a), versionCmd())
	return root, a
}

// setup loads the configuration and builds the logger, tracing, metrics and service
func (a *app) setup(cmd *cobra.Command) error {
	a.recorder = metrics.NewRecorder()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Dir = a.outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := infrastructure.EnsureTraceID(cmd.Context())
	cmd.SetContext(ctx)
	a.logger = logger.With(slog.String("run_id", infrastructure.GetTraceID(ctx)))
	a.cfg = cfg

	a.tracing, err = infrastructure.InitializeTracing(cfg.Tracing, a.logger)
	return err
}

// newService builds the analysis service after subcommand flags were applied
func (a *app) newService() (*services.AnalysisService, error) {
	if a.service != nil {
		return a.service, nil
	}
	svc, err := services.NewAnalysisService(a.cfg, a.logger, services.WithRecorder(a.recorder))
	if err != nil {
		return nil, err
	}
	a.service = svc
	return svc, nil
}

// teardown flushes spans and writes the metrics file
func (a *app) teardown() error {
	if a.cfg == nil {
		return nil
	}
	defer infrastructure.CloseLogFile()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracing.Shutdown(ctx); err != nil {
		return err
	}
	return a.writeMetrics()
}

func (a *app) writeMetrics() error {
	if a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Error("Failed to write metrics", slog.String("error", err.Error()))
		return err
	}
	return nil
}
