package commands

import (
	"github.com/spf13/cobra"
)

func batchCmd(a *app) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch <parent>",
		Short: "Analyze every series below a parent folder",
		Long: "Analyzes each series folder below parent. Charts are written into each series'\n" +
			"plots folder and collected in <parent>/plots_gesamt; one workbook summarizes all series.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				a.cfg.Batch.Workers = workers
			}
			svc, err := a.newService()
			if err != nil {
				return err
			}
			result, err := svc.RunBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "series analyzed in parallel")
	return cmd
}
