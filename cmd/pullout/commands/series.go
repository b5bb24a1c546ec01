package commands

import (
	"github.com/spf13/cobra"
)

func seriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series <dir>",
		Short: "Analyze one measurement series",
		Long: "Analyzes the measurement folders of one series and writes the summary and detailed\n" +
			"workbooks, the CSV files and the series chart into the output directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			result, err := svc.RunSingle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	return cmd
}
