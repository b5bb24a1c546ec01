package services

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yarnpull/internal/config"
)

const rigHeader = "Zeit;Schritt;Zyklus;Status;T1;T2;T3;Weg [mm];Kraft [kN];Bemerkung\n"

var fixedTime = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

// points are (displacement, force) pairs
type points [][2]float64

var (
	ramp    = points{{0, 0}, {1, 2}, {2, 7}, {3, 10}}
	twoStep = points{{0, 0}, {5, 1}}
)

func decimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

// rigExport renders points the way the test rig writes them
func rigExport(pts points) string {
	var b strings.Builder
	b.WriteString(rigHeader)
	for _, p := range pts {
		b.WriteString("0,1;1;1;ok;0;0;0;" + decimal(p[0]) + ";" + decimal(p[1]) + ";\n")
	}
	return b.String()
}

// writeMeasurement creates <series>/<name>/<name><suffix> with the given content
func writeMeasurement(t *testing.T, seriesDir, name, content string) string {
	t.Helper()
	dir := filepath.Join(seriesDir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name+config.DefaultFileSuffix)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newSeries creates a series folder below parent with one measurement per entry
func newSeries(t *testing.T, parent, name string, recordings map[string]points) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for recName, pts := range recordings {
		writeMeasurement(t, dir, recName, rigExport(pts))
	}
	return dir
}

// testConfig writes everything into out with small plots
func testConfig(out string) *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = out
	cfg.Output.PlotDPI = 20
	cfg.Batch.Workers = 2
	return cfg
}
