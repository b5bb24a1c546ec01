package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"yarnpull/internal/config"
	apperrors "yarnpull/internal/errors"
	"yarnpull/internal/pullout"
)

// Sheet names used by the workbooks
const (
	SheetMainResults = "Hauptergebnisse"
	SheetForce       = "Kraft-Analyse"
	SheetWork        = "Arbeits-Analyse"
	RawSheetPrefix   = "Rohdaten_Messung_"
)

const (
	columnWidth     = 15
	lastStyledCol   = 26 // A:Z
	timestampLayout = "2006-01-02 15:04:05"
)

// ReportFileName returns the workbook name for an analysis run started at t
func ReportFileName(t time.Time) string {
	return config.ReportFilePrefix + t.Format(config.ReportTimestamp) + ".xlsx"
}

// DetailedReportFileName returns the detailed workbook name of one series
func DetailedReportFileName(series string, t time.Time) string {
	return config.ReportFilePrefix + series + "_" + t.Format(config.ReportTimestamp) + ".xlsx"
}

// WorkLabel is the work column caption for a distance limit, e.g. "Arbeit bis 2.5mm [Nm]"
func WorkLabel(distanceLimit float64) string {
	return fmt.Sprintf("Arbeit bis %smm [Nm]", strconv.FormatFloat(distanceLimit, 'f', -1, 64))
}

// SummaryHeaders returns the column headers of the series summary table
func SummaryHeaders(distanceLimit float64) []string {
	return []string{
		"Messreihe",
		"Anzahl Messungen",
		"Maximalkraft [kN]",
		"Standardabweichung Kraft [kN]",
		WorkLabel(distanceLimit),
		"Standardabweichung Arbeit [Nm]",
		"Kraft-Modul [kN/mm]",
		"Standardabweichung Kraft-Modul [kN/mm]",
	}
}

// SeriesRow is one line of the summary table
type SeriesRow struct {
	Name    string
	Summary pullout.Summary
}

func (r SeriesRow) cells() []interface{} {
	return []interface{}{
		r.Name,
		r.Summary.Recordings,
		statMean(r.Summary.PeakForce), statStd(r.Summary.PeakForce),
		statMean(r.Summary.Work), statStd(r.Summary.Work),
		statMean(r.Summary.Modulus), statStd(r.Summary.Modulus),
	}
}

// Workbook collects the summaries of one or more series and writes them as a single
// summary table. Unset statistics become empty cells.
type Workbook struct {
	distanceLimit float64
	rows          []SeriesRow
	logger        *slog.Logger
}

// NewWorkbook creates an empty summary workbook
func NewWorkbook(distanceLimit float64, logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{
		distanceLimit: distanceLimit,
		logger:        logger.With(slog.String("component", "workbook_exporter")),
	}
}

// AddSeries appends the summary of one series
func (w *Workbook) AddSeries(name string, summary pullout.Summary) {
	w.rows = append(w.rows, SeriesRow{Name: name, Summary: summary})
}

// Len returns the number of series rows
func (w *Workbook) Len() int {
	return len(w.rows)
}

// Rows returns a copy of the series rows
func (w *Workbook) Rows() []SeriesRow {
	out := make([]SeriesRow, len(w.rows))
	copy(out, w.rows)
	return out
}

// Save writes the summary table to path, creating parent directories as needed
func (w *Workbook) Save(path string, analyzedAt time.Time) error {
	if len(w.rows) == 0 {
		return apperrors.NewAppValidationError("workbook has no series").WithContext("path", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", SheetMainResults); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	sw, err := newSheetWriter(f, SheetMainResults, header)
	if err != nil {
		return err
	}
	sw.header(toCells(SummaryHeaders(w.distanceLimit))...)
	for _, row := range w.rows {
		sw.row(row.cells()...)
	}
	sw.skip()
	sw.header("Information", "Wert")
	sw.row("Analysezeitpunkt", analyzedAt.Format(timestampLayout))
	sw.row("Anzahl Messreihen", len(w.rows))
	if err := sw.flush(); err != nil {
		return err
	}

	if err := saveFile(f, path); err != nil {
		return err
	}
	w.logger.Info("Summary workbook written",
		slog.String("path", path),
		slog.Int("series", len(w.rows)))
	return nil
}

// WriteDetailedReport writes the full analysis of one series: the main results, the
// per-recording force and work tables with their statistics, and one raw data sheet
// per normalized recording.
func WriteDetailedReport(path, series string, analyzer *pullout.Analyzer, analyzedAt time.Time) error {
	if analyzer == nil || analyzer.Len() == 0 {
		return apperrors.NewAppValidationError("series has no recordings").
			WithContext("series", series)
	}

	cfg := analyzer.Config()
	summary := analyzer.Statistics()
	results := analyzer.Results()

	f := excelize.NewFile()
	defer f.Close()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", SheetMainResults); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	// Hauptergebnisse
	sw, err := newSheetWriter(f, SheetMainResults, header)
	if err != nil {
		return err
	}
	sw.row("Messreihe", series)
	sw.header("Parameter", "Wert")
	sw.row("Maximalkraft [kN]", statMean(summary.PeakForce))
	sw.row("Standardabweichung Kraft [kN]", statStd(summary.PeakForce))
	sw.row(WorkLabel(cfg.DistanceLimit), statMean(summary.Work))
	sw.row("Standardabweichung Arbeit [Nm]", statStd(summary.Work))
	sw.row("Kraft-Modul [kN/mm]", statMean(summary.Modulus))
	sw.row("Standardabweichung Kraft-Modul [kN/mm]", statStd(summary.Modulus))
	sw.skip()
	sw.header("Information", "Wert")
	sw.row("Analysezeitpunkt", analyzedAt.Format(timestampLayout))
	sw.row("Anzahl Messungen", len(results))
	if err := sw.flush(); err != nil {
		return err
	}

	// Kraft-Analyse
	if sw, err = newSheet(f, SheetForce, header); err != nil {
		return err
	}
	sw.skip()
	sw.header("Messung", "Maximalkraft [kN]", "Kraft-Modul [kN/mm]", "Hinweis")
	peaks := make([]float64, 0, len(results))
	moduli := make([]float64, 0, len(results))
	for _, r := range results {
		peaks = append(peaks, r.PeakForce)
		modulus, ok := modulusCell(r.Modulus, cfg.ZeroFillFailedModulus)
		if ok {
			moduli = append(moduli, modulus.(float64))
		}
		sw.row(r.Index+1, r.PeakForce, modulus, reasonCell(r.Modulus))
	}
	sw.skip()
	sw.header("Statistik", "Maximalkraft [kN]", "Kraft-Modul [kN/mm]")
	writeStatBlock(sw, peaks, moduli)
	if err := sw.flush(); err != nil {
		return err
	}

	// Arbeits-Analyse
	if sw, err = newSheet(f, SheetWork, header); err != nil {
		return err
	}
	sw.skip()
	sw.header("Messung", WorkLabel(cfg.DistanceLimit))
	work := analyzer.Work()
	values := make([]float64, len(work))
	for i, w := range work {
		values[i] = w.Value
		sw.row(w.Index+1, w.Value)
	}
	sw.skip()
	sw.header("Statistik", "Wert [Nm]")
	writeStatBlock(sw, values)
	if err := sw.flush(); err != nil {
		return err
	}

	// Rohdaten
	for _, r := range results {
		if sw, err = newSheet(f, fmt.Sprintf("%s%d", RawSheetPrefix, r.Index+1), header); err != nil {
			return err
		}
		sw.header("Weg [mm]", "Kraft [kN]")
		for _, s := range r.Recording.Samples() {
			sw.row(s.Displacement, s.Force)
		}
		if err := sw.flush(); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return saveFile(f, path)
}

// writeStatBlock writes mean, standard deviation, min, max and median rows with one
// column per value set. Empty sets leave their column blank.
func writeStatBlock(sw *sheetWriter, sets ...[]float64) {
	stats := make([]*pullout.Stat, len(sets))
	extents := make([]*pullout.Extent, len(sets))
	for i, set := range sets {
		stats[i] = pullout.Describe(set)
		extents[i] = pullout.DescribeExtent(set)
	}

	rows := []struct {
		label string
		pick  func(i int) interface{}
	}{
		{"Mittelwert", func(i int) interface{} { return statMean(stats[i]) }},
		{"Standardabweichung", func(i int) interface{} { return statStd(stats[i]) }},
		{"Minimum", func(i int) interface{} { return extentValue(extents[i], func(e *pullout.Extent) float64 { return e.Min }) }},
		{"Maximum", func(i int) interface{} { return extentValue(extents[i], func(e *pullout.Extent) float64 { return e.Max }) }},
		{"Median", func(i int) interface{} { return extentValue(extents[i], func(e *pullout.Extent) float64 { return e.Median }) }},
	}
	for _, r := range rows {
		cells := []interface{}{r.label}
		for i := range sets {
			cells = append(cells, r.pick(i))
		}
		sw.row(cells...)
	}
}

// modulusCell returns the value shown for a modulus outcome and whether it enters the
// statistics.
func modulusCell(o pullout.Outcome, zeroFill bool) (interface{}, bool) {
	switch {
	case o.Valid:
		return o.Value, true
	case zeroFill && o.Computed():
		return 0.0, true
	default:
		return nil, false
	}
}

func reasonCell(o pullout.Outcome) interface{} {
	if o.Reason == "" {
		return nil
	}
	return string(o.Reason)
}

func statMean(s *pullout.Stat) interface{} {
	if s == nil {
		return nil
	}
	return s.Mean
}

func statStd(s *pullout.Stat) interface{} {
	if s == nil {
		return nil
	}
	return s.StdDev
}

func extentValue(e *pullout.Extent, pick func(*pullout.Extent) float64) interface{} {
	if e == nil {
		return nil
	}
	return pick(e)
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// sheetWriter wraps an excelize stream writer with a row cursor. The first error is
// kept and returned by flush.
type sheetWriter struct {
	sheet  string
	sw     *excelize.StreamWriter
	style  int
	cursor int
	err    error
}

func newSheet(f *excelize.File, sheet string, headerStyle int) (*sheetWriter, error) {
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return newSheetWriter(f, sheet, headerStyle)
}

func newSheetWriter(f *excelize.File, sheet string, headerStyle int) (*sheetWriter, error) {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet %s: %w", sheet, err)
	}
	if err := sw.SetColWidth(1, lastStyledCol, columnWidth); err != nil {
		return nil, fmt.Errorf("failed to set column width on %s: %w", sheet, err)
	}
	return &sheetWriter{sheet: sheet, sw: sw, style: headerStyle, cursor: 1}, nil
}

func (s *sheetWriter) row(values ...interface{}) {
	s.write(values, excelize.RowOpts{})
}

// header writes a styled table header; the style covers the written cells only
func (s *sheetWriter) header(values ...interface{}) {
	styled := make([]interface{}, len(values))
	for i, v := range values {
		styled[i] = excelize.Cell{StyleID: s.style, Value: v}
	}
	s.write(styled, excelize.RowOpts{Height: 20})
}

func (s *sheetWriter) skip() {
	s.cursor++
}

func (s *sheetWriter) write(values []interface{}, opts excelize.RowOpts) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, s.cursor)
	if err == nil {
		err = s.sw.SetRow(cell, values, opts)
	}
	if err != nil {
		s.err = fmt.Errorf("failed to write row %d of %s: %w", s.cursor, s.sheet, err)
	}
	s.cursor++
}

func (s *sheetWriter) flush() error {
	if s.err != nil {
		return s.err
	}
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", s.sheet, err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	border := func(side string) excelize.Border {
		return excelize.Border{Type: side, Color: "000000", Style: 1}
	}
	id, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#CCCCCC"}},
		Border: []excelize.Border{
			border("left"), border("top"), border("right"), border("bottom"),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return id, nil
}

func saveFile(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create report directory", err).WithContext("path", path)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	return nil
}
