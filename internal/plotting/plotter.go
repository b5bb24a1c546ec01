package plotting

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	apperrors "yarnpull/internal/errors"
	"yarnpull/internal/pullout"
)

const (
	DefaultMaxDisplacement = 4.0 // mm
	DefaultMaxForce        = 5.0 // kN
	DefaultDPI             = 300
)

// Options controls the chart layout
type Options struct {
	Width           vg.Length
	Height          vg.Length
	DPI             int
	MaxDisplacement float64
	MaxForce        float64
	ShowTitle       bool
}

// DefaultOptions returns a 10x7 inch chart covering 0-4 mm and 0-5 kN
func DefaultOptions() Options {
	return Options{
		Width:           10 * vg.Inch,
		Height:          7 * vg.Inch,
		DPI:             DefaultDPI,
		MaxDisplacement: DefaultMaxDisplacement,
		MaxForce:        DefaultMaxForce,
	}
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return apperrors.NewConfigError("plot size must be positive", nil)
	}
	if o.DPI <= 0 {
		return apperrors.NewConfigError(fmt.Sprintf("plot DPI must be positive, got %d", o.DPI), nil)
	}
	if o.MaxDisplacement <= 0 || o.MaxForce <= 0 {
		return apperrors.NewConfigError("plot axis limits must be positive", nil)
	}
	return nil
}

// Plotter draws displacement/force charts of a series
type Plotter struct {
	opts   Options
	logger *slog.Logger
}

// NewPlotter creates a plotter with validated options
func NewPlotter(opts Options, logger *slog.Logger) (*Plotter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Plotter{
		opts:   opts,
		logger: logger.With(slog.String("component", "plotter")),
	}, nil
}

// Build lays out the chart: one curve per recording up to the displacement limit,
// a marker on each peak, and the series statistics in the upper left corner.
func (p *Plotter) Build(title string, recordings []pullout.Recording, summary pullout.Summary) (*plot.Plot, error) {
	pl := plot.New()
	if p.opts.ShowTitle {
		pl.Title.Text = title
	}
	pl.X.Label.Text = "Displacement [mm]"
	pl.Y.Label.Text = "Force [kN]"
	pl.X.Label.TextStyle.Font.Size = vg.Points(16)
	pl.Y.Label.TextStyle.Font.Size = vg.Points(16)
	pl.X.Tick.Label.Font.Size = vg.Points(14)
	pl.Y.Tick.Label.Font.Size = vg.Points(14)
	pl.X.Width = vg.Points(2)
	pl.Y.Width = vg.Points(2)
	pl.X.Tick.Marker = unitTicks(p.opts.MaxDisplacement)
	pl.Y.Tick.Marker = unitTicks(p.opts.MaxForce)

	pl.Add(plotter.NewGrid())

	colors := moreland.SmoothBlueRed()
	colors.SetMin(0)
	colors.SetMax(1)

	for i, rec := range recordings {
		c, err := colors.At(float64(i) / float64(len(recordings)))
		if err != nil {
			return nil, fmt.Errorf("failed to pick color for recording %d: %w", i, err)
		}

		if xys := clip(rec, p.opts.MaxDisplacement); len(xys) > 1 {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return nil, fmt.Errorf("failed to build curve for recording %d: %w", i, err)
			}
			line.Color = c
			line.Width = vg.Points(2)
			pl.Add(line)
		}

		if rec.Len() > 0 {
			peak := rec.Peak()
			marker, err := plotter.NewScatter(plotter.XYs{{X: peak.Displacement, Y: peak.Force}})
			if err != nil {
				return nil, fmt.Errorf("failed to build peak marker for recording %d: %w", i, err)
			}
			marker.Color = c
			marker.Radius = vg.Points(4)
			marker.Shape = draw.CircleGlyph{}
			pl.Add(marker)
		}
	}

	labels, err := p.statsLabels(summary)
	if err != nil {
		return nil, err
	}
	pl.Add(labels)

	// fixed axes regardless of the data ranges added above
	pl.X.Min, pl.X.Max = 0, p.opts.MaxDisplacement
	pl.Y.Min, pl.Y.Max = 0, p.opts.MaxForce
	return pl, nil
}

// Render draws the chart as PNG into w
func (p *Plotter) Render(w io.Writer, title string, recordings []pullout.Recording, summary pullout.Summary) error {
	pl, err := p.Build(title, recordings, summary)
	if err != nil {
		return err
	}

	canvas := vgimg.NewWith(vgimg.UseWH(p.opts.Width, p.opts.Height), vgimg.UseDPI(p.opts.DPI))
	pl.Draw(draw.New(canvas))

	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG renders the chart to path, creating the parent directory
func (p *Plotter) SavePNG(path, title string, recordings []pullout.Recording, summary pullout.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create plot directory", err).WithContext("path", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create plot file", err).WithContext("path", path)
	}

	if err := p.Render(f, title, recordings, summary); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError("failed to write plot file", err).WithContext("path", path)
	}

	p.logger.Info("Plot saved",
		slog.String("path", path),
		slog.Int("recordings", len(recordings)))
	return nil
}

// statsLabels places the mean ± std lines near the top left of the data area
func (p *Plotter) statsLabels(summary pullout.Summary) (*plotter.Labels, error) {
	texts := StatLines(summary)
	x := 0.05 * p.opts.MaxDisplacement
	xys := make(plotter.XYs, len(texts))
	for i := range texts {
		xys[i].X = x
		xys[i].Y = p.opts.MaxForce * (0.93 - 0.07*float64(i))
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(14)
		labels.TextStyle[i].Color = color.Black
	}
	return labels, nil
}

// StatLines formats the series statistics shown on the chart
func StatLines(summary pullout.Summary) []string {
	return []string{
		fmt.Sprintf("Max. force: %s kN", summary.PeakForce),
		fmt.Sprintf("Work: %s Nm", summary.Work),
		fmt.Sprintf("Modulus: %s kN/mm", summary.Modulus),
	}
}

// clip returns the samples whose displacement does not exceed maxX, in recording order
func clip(rec pullout.Recording, maxX float64) plotter.XYs {
	xys := make(plotter.XYs, 0, rec.Len())
	for i := 0; i < rec.Len(); i++ {
		s := rec.At(i)
		if s.Displacement <= maxX {
			xys = append(xys, plotter.XY{X: s.Displacement, Y: s.Force})
		}
	}
	return xys
}

func unitTicks(limit float64) plot.ConstantTicks {
	var ticks plot.ConstantTicks
	for v := 0.0; v <= limit; v++ {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%g", v)})
	}
	return ticks
}
