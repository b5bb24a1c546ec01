package commands

import (
	"fmt"
	"io"

	"yarnpull/internal/plotting"
	"yarnpull/internal/services"
)

// printResult writes a short human readable run summary
func printResult(w io.Writer, result *services.RunResult) {
	for _, report := range result.Reports {
		fmt.Fprintf(w, "%s: %d recordings", report.Name, report.Analyzer.Len())
		if n := len(report.Failures); n > 0 {
			fmt.Fprintf(w, ", %d failed", n)
		}
		fmt.Fprintln(w)
		for _, line := range plotting.StatLines(report.Summary) {
			fmt.Fprintf(w, "  %s\n", line)
		}
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  skipped %s: %v\n", f.Name, f.Err)
		}
	}
	for _, name := range result.Failed {
		fmt.Fprintf(w, "%s: no usable recordings\n", name)
	}
	if len(result.Artifacts) > 0 {
		fmt.Fprintln(w, "Written:")
		for _, path := range result.Artifacts {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
}
