package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yarnpull/internal/pullout"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestNewCSVWriter(t *testing.T) {
	writer := NewCSVWriter("/reports", nil)
	assert.Equal(t, ',', writer.comma)
	assert.False(t, writer.decimalComma)

	writer = NewCSVWriter("/reports", nil, WithSeparator(';', true))
	assert.Equal(t, ';', writer.comma)
	assert.True(t, writer.decimalComma)

	// a decimal comma would collide with the separator
	writer = NewCSVWriter("/reports", nil, WithSeparator(',', true))
	assert.False(t, writer.decimalComma)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		validate func(t *testing.T, path string)
	}{
		{
			name: "basic write with headers",
			options: WriteOptions{
				Headers: []string{"Messreihe", "Anzahl"},
				Records: [][]string{{"Serie_A", "3"}, {"Serie_B", "5"}},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, []string{"Messreihe,Anzahl", "Serie_A,3", "Serie_B,5"}, readLines(t, path))
			},
		},
		{
			name: "write with BOM prefix",
			options: WriteOptions{
				Headers:   []string{"Messreihe"},
				Records:   [][]string{{"Serie_Ä"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, path string) {
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
				assert.Equal(t, []string{"Messreihe", "Serie_Ä"}, readLines(t, path))
			},
		},
		{
			name: "empty records",
			options: WriteOptions{
				Headers: []string{"Col1", "Col2"},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, []string{"Col1,Col2"}, readLines(t, path))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writer := NewCSVWriter(dir, nil)
			require.NoError(t, writer.WriteCSV("out/test.csv", tt.options))
			tt.validate(t, filepath.Join(dir, "out", "test.csv"))
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	require.NoError(t, writer.WriteSimpleCSV("append.csv", []string{"Col1", "Col2"}, [][]string{{"a", "b"}}))
	require.NoError(t, writer.WriteCSV("append.csv", WriteOptions{Records: [][]string{{"c", "d"}}, Append: true}))

	assert.Equal(t, []string{"Col1,Col2", "a,b", "c,d"}, readLines(t, filepath.Join(dir, "append.csv")))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "file.csv")
	assert.Equal(t, abs, NewCSVWriter("/base", nil).resolvePath(abs))
	assert.Equal(t, filepath.Join("/base", "file.csv"), NewCSVWriter("/base", nil).resolvePath("file.csv"))
	assert.Equal(t, "file.csv", NewCSVWriter("", nil).resolvePath("file.csv"))
}

func TestCSVWriter_WriteSummaryCSV(t *testing.T) {
	rows := []SeriesRow{
		{Name: "Serie_A", Summary: pullout.Summary{
			PeakForce:  &pullout.Stat{Mean: 3.4, StdDev: 0.25},
			Work:       &pullout.Stat{Mean: 5.5, StdDev: 0},
			Modulus:    &pullout.Stat{Mean: 2.5, StdDev: 0.13},
			Recordings: 2,
		}},
		{Name: "Serie_B", Summary: pullout.Summary{
			PeakForce:  &pullout.Stat{Mean: 1, StdDev: 0},
			Recordings: 1,
		}},
	}

	t.Run("default separator", func(t *testing.T) {
		dir := t.TempDir()
		writer := NewCSVWriter(dir, nil)
		require.NoError(t, writer.WriteSummaryCSV("summary.csv", 2.5, rows))

		file, err := os.Open(filepath.Join(dir, "summary.csv"))
		require.NoError(t, err)
		defer file.Close()
		_, err = file.Read(make([]byte, len(utf8BOM)))
		require.NoError(t, err)

		records, err := csv.NewReader(file).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, SummaryHeaders(2.5), records[0])
		assert.Equal(t, "Arbeit bis 2.5mm [Nm]", records[0][4])
		assert.Equal(t, []string{"Serie_A", "2", "3.40", "0.25", "5.50", "0.00", "2.50", "0.13"}, records[1])
		assert.Equal(t, []string{"Serie_B", "1", "1.00", "0.00", "", "", "", ""}, records[2])
	})

	t.Run("semicolon with decimal comma", func(t *testing.T) {
		dir := t.TempDir()
		writer := NewCSVWriter(dir, nil, WithSeparator(';', true))
		require.NoError(t, writer.WriteSummaryCSV("summary.csv", 2.5, rows[:1]))

		lines := readLines(t, filepath.Join(dir, "summary.csv"))
		require.Len(t, lines, 2)
		assert.Equal(t, "Serie_A;2;3,40;0,25;5,50;0,00;2,50;0,13", lines[1])
	})
}

func TestCSVWriter_WriteResultsCSV(t *testing.T) {
	results := []pullout.Result{
		{
			Index: 0, Source: "M01", PeakForce: 10.1234,
			Modulus: pullout.Outcome{Value: 5, Valid: true},
			Work:    pullout.Outcome{Value: 5.5, Valid: true},
		},
		{
			Index: 1, Source: "M02", PeakForce: 2,
			Modulus: pullout.Outcome{Reason: pullout.ReasonThresholdNotCrossed},
			Work:    pullout.Outcome{Reason: pullout.ReasonInsufficientSamples},
		},
	}

	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil, WithSeparator(';', false))
	require.NoError(t, writer.WriteResultsCSV("results.csv", results))

	lines := readLines(t, filepath.Join(dir, "results.csv"))
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ResultHeaders, ";"), lines[0])
	assert.Equal(t, "1;M01;10.1234;5.00;;5.50;", lines[1])
	assert.Equal(t, "2;M02;2.0000;;threshold_not_crossed;;insufficient_samples", lines[2])

	comma := NewCSVWriter(dir, nil, WithSeparator(';', true))
	require.NoError(t, comma.WriteResultsCSV("results_de.csv", results[:1]))
	assert.Equal(t, "1;M01;10,1234;5,00;;5,50;", readLines(t, filepath.Join(dir, "results_de.csv"))[1])
}

func TestCSVWriter_CreateStreamWriter_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewCSVWriter(dir, nil).CreateStreamWriter("file/results.csv", ResultHeaders)
	assert.Error(t, err)
}

func TestCSVFileNames(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "YarnPullout_Analyse_20240305_140709.csv", SummaryCSVFileName(at))
	assert.Equal(t, "YarnPullout_Analyse_Serie A_Messungen_20240305_140709.csv", ResultsCSVFileName("Serie A", at))
}
