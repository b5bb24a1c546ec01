package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"yarnpull/internal/config"
	apperrors "yarnpull/internal/errors"
	"yarnpull/internal/pullout"
)

// ParseOptions describes the column layout of a rig export.
type ParseOptions struct {
	Separator          rune
	DecimalComma       bool
	DisplacementColumn int // zero-based
	ForceColumn        int // zero-based
}

// DefaultParseOptions returns the layout written by the test rig: semicolon separated,
// decimal comma, displacement in column 7 and force in column 8.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Separator:          ';',
		DecimalComma:       true,
		DisplacementColumn: config.DefaultDisplacementColumn,
		ForceColumn:        config.DefaultForceColumn,
	}
}

// ParseOptionsFromConfig maps the input section of the configuration
func ParseOptionsFromConfig(cfg config.InputConfig) ParseOptions {
	opts := ParseOptions{
		Separator:          ';',
		DecimalComma:       cfg.DecimalComma,
		DisplacementColumn: cfg.DisplacementColumn,
		ForceColumn:        cfg.ForceColumn,
	}
	if r := []rune(cfg.Separator); len(r) == 1 {
		opts.Separator = r[0]
	}
	return opts
}

func (o ParseOptions) minColumns() int {
	return max(o.DisplacementColumn, o.ForceColumn) + 1
}

// ParseRecordingFile reads one measurement file. Files ending in .xlsx are read with
// ParseWorkbook, everything else as delimited text.
func ParseRecordingFile(ctx context.Context, path string, opts ParseOptions) ([]pullout.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ParseWorkbook(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("recording file").WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("failed to open recording file", err).WithContext("path", path)
	}
	defer f.Close()

	samples, err := ParseRecording(f, opts)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("path", path)
		}
		return nil, err
	}
	return samples, nil
}

// ParseRecording reads delimited text with a header row and returns the displacement
// and force columns. Blank rows are skipped.
func ParseRecording(r io.Reader, opts ParseOptions) ([]pullout.Sample, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewDataFormatError("recording file is empty", nil)
		}
		return nil, apperrors.NewParsingError("failed to read header row", err)
	}

	var samples []pullout.Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read row", err)
		}

		line, _ := reader.FieldPos(0)
		sample, skip, rowErr := parseRow(record, opts, opts.DecimalComma)
		if rowErr != nil {
			return nil, withRow(rowErr, line)
		}
		if !skip {
			samples = append(samples, sample)
		}
	}

	if len(samples) == 0 {
		return nil, apperrors.NewDataFormatError("recording file contains no data rows", nil)
	}
	return samples, nil
}

// ParseWorkbook reads the same layout from the first sheet of an .xlsx file.
func ParseWorkbook(path string, opts ParseOptions) ([]pullout.Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("recording workbook").WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewDataFormatError("recording workbook contains no data rows", nil).
			WithContext("path", path)
	}

	samples := make([]pullout.Sample, 0, len(rows)-1)
	for i, row := range rows[1:] {
		// raw cell values always use a decimal point
		sample, skip, rowErr := parseRow(row, opts, false)
		if rowErr != nil {
			return nil, withRow(rowErr, i+2).WithContext("path", path)
		}
		if !skip {
			samples = append(samples, sample)
		}
	}

	if len(samples) == 0 {
		return nil, apperrors.NewDataFormatError("recording workbook contains no data rows", nil).
			WithContext("path", path)
	}
	return samples, nil
}

// parseRow extracts one sample. skip is true for rows without any content.
func parseRow(record []string, opts ParseOptions, decimalComma bool) (pullout.Sample, bool, *apperrors.AppError) {
	if isBlank(record) {
		return pullout.Sample{}, true, nil
	}
	if len(record) < opts.minColumns() {
		return pullout.Sample{}, false, apperrors.NewDataFormatError(
			fmt.Sprintf("row has %d columns, need at least %d", len(record), opts.minColumns()), nil)
	}

	x, err := parseNumber(cell(record, opts.DisplacementColumn), decimalComma)
	if err != nil {
		return pullout.Sample{}, false, apperrors.NewDataFormatError("displacement is not a number", err).
			WithContext("column", opts.DisplacementColumn)
	}
	y, err := parseNumber(cell(record, opts.ForceColumn), decimalComma)
	if err != nil {
		return pullout.Sample{}, false, apperrors.NewDataFormatError("force is not a number", err).
			WithContext("column", opts.ForceColumn)
	}
	return pullout.Sample{Displacement: x, Force: y}, false, nil
}

func withRow(err *apperrors.AppError, row int) *apperrors.AppError {
	err.Message = fmt.Sprintf("row %d: %s", row, err.Message)
	return err.WithContext("row", row)
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber parses a rig number. With decimalComma, "1,25" reads as 1.25.
func parseNumber(s string, decimalComma bool) (float64, error) {
	if decimalComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}
