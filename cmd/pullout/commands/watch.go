package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"yarnpull/internal/services"
)

func watchCmd(a *app) *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "watch <parent>",
		Short: "Re-run the batch analysis whenever new recordings arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				a.cfg.Batch.Workers = workers
			}
			svc, err := a.newService()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			onRun := func(result *services.RunResult, err error) {
				if err == nil {
					printResult(out, result)
				}
				if werr := a.writeMetrics(); werr != nil {
					a.logger.Warn("Metrics not updated", slog.String("error", werr.Error()))
				}
			}

			if initial {
				onRun(svc.RunBatch(cmd.Context(), args[0]))
			}
			return svc.Watch(cmd.Context(), args[0], debounce, onRun)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", services.DefaultWatchDebounce, "quiet period before a run starts")
	cmd.Flags().BoolVar(&initial, "initial", true, "run once before waiting for changes")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "series analyzed in parallel")
	return cmd
}
