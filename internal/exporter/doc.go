// Package exporter writes analysis results as Excel workbooks and CSV files.
//
// Workbook: accumulates one summary row per measurement series and saves them as the
// "Hauptergebnisse" sheet. Statistics without data are written as empty cells.
//
// WriteDetailedReport: the full report of one series with the main results, the
// per-recording force and work tables, their statistics, and the normalized raw data
// of every recording on its own sheet.
//
// CSVWriter: CSV output with a UTF-8 BOM for Excel compatibility, an optional decimal
// comma, and a streaming writer for the per-recording results.
//
// Example usage:
//
//	wb := exporter.NewWorkbook(cfg.DistanceLimit, logger)
//	wb.AddSeries("Serie_A", analyzer.Statistics())
//	err := wb.Save(filepath.Join(outDir, exporter.ReportFileName(time.Now())), time.Now())
//
//	csvWriter := exporter.NewCSVWriter(outDir, logger, exporter.WithSeparator(';', true))
//	err = csvWriter.WriteSummaryCSV("summary.csv", cfg.DistanceLimit, wb.Rows())
package exporter
