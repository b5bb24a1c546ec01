package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"yarnpull/internal/config"
	"yarnpull/internal/pullout"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir      string
	comma        rune
	decimalComma bool
	logger       *slog.Logger
}

// CSVOption configures a CSVWriter
type CSVOption func(*CSVWriter)

// WithSeparator sets the field separator and whether numbers use a decimal comma.
// A decimal comma requires a separator other than ','.
func WithSeparator(comma rune, decimalComma bool) CSVOption {
	return func(w *CSVWriter) {
		w.comma = comma
		w.decimalComma = decimalComma && comma != ','
	}
}

// NewCSVWriter creates a new CSV writer. Relative paths are resolved against baseDir.
func NewCSVWriter(baseDir string, logger *slog.Logger, opts ...CSVOption) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	w := &CSVWriter{
		baseDir: baseDir,
		comma:   ',',
		logger:  logger.With(slog.String("component", "csv_exporter")),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := w.newWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSimpleCSV writes a simple CSV file with headers and records
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// SummaryCSVFileName returns the summary CSV name for an analysis run started at t
func SummaryCSVFileName(t time.Time) string {
	return config.ReportFilePrefix + t.Format(config.ReportTimestamp) + ".csv"
}

// ResultsCSVFileName returns the per-recording CSV name of one series
func ResultsCSVFileName(series string, t time.Time) string {
	return config.ReportFilePrefix + series + "_Messungen_" + t.Format(config.ReportTimestamp) + ".csv"
}

// WriteSummaryCSV writes the series summary table. Unset statistics are empty fields.
func (w *CSVWriter) WriteSummaryCSV(filePath string, distanceLimit float64, rows []SeriesRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		s := r.Summary
		records = append(records, []string{
			r.Name,
			formatInt(int64(s.Recordings)),
			w.formatStat(s.PeakForce, meanOf), w.formatStat(s.PeakForce, stdOf),
			w.formatStat(s.Work, meanOf), w.formatStat(s.Work, stdOf),
			w.formatStat(s.Modulus, meanOf), w.formatStat(s.Modulus, stdOf),
		})
	}
	return w.WriteSimpleCSV(filePath, SummaryHeaders(distanceLimit), records)
}

// ResultHeaders are the columns of the per-recording results file
var ResultHeaders = []string{
	"Messung", "Quelle", "Maximalkraft [kN]",
	"Kraft-Modul [kN/mm]", "Hinweis Modul",
	"Arbeit [Nm]", "Hinweis Arbeit",
}

// WriteResultsCSV streams one row per recording with its derived values and the
// reasons for missing ones.
func (w *CSVWriter) WriteResultsCSV(filePath string, results []pullout.Result) error {
	stream, err := w.CreateStreamWriter(filePath, ResultHeaders)
	if err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			formatInt(int64(r.Index + 1)),
			r.Source,
			localize(formatPeak(r.PeakForce), w.decimalComma),
			w.formatOutcome(r.Modulus), string(r.Modulus.Reason),
			w.formatOutcome(r.Work), string(r.Work.Reason),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write recording %d: %w", r.Index, err)
		}
	}
	return stream.Close()
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := w.newWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func (w *CSVWriter) newWriter(file *os.File) *csv.Writer {
	writer := csv.NewWriter(file)
	writer.Comma = w.comma
	return writer
}

// resolvePath resolves a relative path against the base directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}

func (w *CSVWriter) formatDecimal(f float64) string {
	return localize(formatFloat(f), w.decimalComma)
}

func (w *CSVWriter) formatOutcome(o pullout.Outcome) string {
	if !o.Valid {
		return ""
	}
	return w.formatDecimal(o.Value)
}

func (w *CSVWriter) formatStat(s *pullout.Stat, pick func(*pullout.Stat) float64) string {
	if s == nil {
		return ""
	}
	return w.formatDecimal(pick(s))
}

func meanOf(s *pullout.Stat) float64 { return s.Mean }
func stdOf(s *pullout.Stat) float64  { return s.StdDev }
