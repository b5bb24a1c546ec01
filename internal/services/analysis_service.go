package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"yarnpull/internal/config"
	"yarnpull/internal/dataprocessing"
	apperrors "yarnpull/internal/errors"
	"yarnpull/internal/exporter"
	"yarnpull/internal/files"
	"yarnpull/internal/infrastructure"
	"yarnpull/internal/metrics"
	"yarnpull/internal/plotting"
	"yarnpull/internal/pullout"
	"yarnpull/internal/validation"
)

// RecordingFailure is a recording that could not be added to its series
type RecordingFailure struct {
	Name string
	Path string
	Err  error
}

// SeriesReport is the outcome of analyzing one series folder
type SeriesReport struct {
	Name     string
	Dir      string
	Analyzer *pullout.Analyzer
	Summary  pullout.Summary
	Failures []RecordingFailure
	Skipped  []string // folders without a data file
	Plot     string   // written chart, empty when plots are disabled
	Duration time.Duration
}

// RunResult lists what a run produced
type RunResult struct {
	Reports   []*SeriesReport
	Failed    []string // series without any usable recording
	Artifacts []string
}

// AnalysisServiceOption configures an AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithRecorder counts analysis events on r
func WithRecorder(r *metrics.Recorder) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.recorder = r
	}
}

// WithClock replaces time.Now for report timestamps
func WithClock(now func() time.Time) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.now = now
	}
}

// AnalysisService runs the single-series and multi-series workflows: discovery,
// parsing, analysis and export.
type AnalysisService struct {
	cfg       *config.Config
	parseOpts dataprocessing.ParseOptions
	discovery *files.Discovery
	files     *files.Manager
	validator *validation.FileValidator
	csv       *exporter.CSVWriter
	plotter   *plotting.Plotter
	recorder  *metrics.Recorder
	now       func() time.Time
	logger    *slog.Logger
}

// NewAnalysisService creates the service. The analysis parameters are validated here so
// that a bad configuration fails before any file is read.
func NewAnalysisService(cfg *config.Config, logger *slog.Logger, opts ...AnalysisServiceOption) (*AnalysisService, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if err := cfg.Analysis.Pullout().Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	plotOpts := plotting.DefaultOptions()
	plotOpts.DPI = cfg.Output.PlotDPI
	plotter, err := plotting.NewPlotter(plotOpts, logger)
	if err != nil {
		return nil, err
	}

	parseOpts := dataprocessing.ParseOptionsFromConfig(cfg.Input)
	s := &AnalysisService{
		cfg:       cfg,
		parseOpts: parseOpts,
		discovery: files.NewDiscovery(""),
		files:     files.NewManager("", logger),
		validator: validation.NewFileValidator(logger),
		csv:       exporter.NewCSVWriter(cfg.Output.Dir, logger, exporter.WithSeparator(parseOpts.Separator, parseOpts.DecimalComma)),
		plotter:   plotter,
		now:       time.Now,
		logger:    infrastructure.WithComponent(logger, "analysis_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AnalyzeSeries loads every recording of a series folder and derives modulus, work
// and statistics. Recordings that fail to parse or normalize are collected in
// Failures; the series fails only when none of them could be loaded.
func (s *AnalysisService) AnalyzeSeries(ctx context.Context, dir string) (*SeriesReport, error) {
	name := filepath.Base(filepath.Clean(dir))
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.AnalyzeSeries",
		attribute.String("series", name))
	defer span.End()

	logger := infrastructure.LoggerWithContext(ctx, s.logger).With(slog.String("series", name))
	start := time.Now()

	if err := s.validator.ValidateInputDirectory(dir); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	measurements, skipped, err := s.discovery.FindMeasurements(dir, s.cfg.Input.FileSuffix)
	if err != nil {
		err = apperrors.NewStorageError("failed to list measurements", err).WithContext("series", name)
		infrastructure.RecordError(span, err)
		return nil, err
	}
	for _, folder := range skipped {
		logger.Warn("Measurement folder without data file",
			slog.String("folder", folder),
			slog.String("suffix", s.cfg.Input.FileSuffix))
	}

	var analyzerOpts []pullout.Option
	if s.recorder != nil {
		analyzerOpts = append(analyzerOpts, pullout.WithObserver(s.recorder))
	}
	analyzer, err := pullout.NewAnalyzer(s.cfg.Analysis.Pullout(), logger, analyzerOpts...)
	if err != nil {
		return nil, err
	}

	report := &SeriesReport{
		Name:     name,
		Dir:      dir,
		Analyzer: analyzer,
		Skipped:  skipped,
	}

	for _, m := range measurements {
		if err := ctx.Err(); err != nil {
			infrastructure.RecordError(span, err)
			return nil, err
		}

		samples, err := s.readRecording(ctx, m.File.Path)
		if err != nil {
			logger.Error("Failed to read recording",
				slog.String("recording", m.Name),
				slog.String("path", m.File.Path),
				slog.String("error", err.Error()))
			if s.recorder != nil {
				s.recorder.RecordingRejected()
			}
			report.Failures = append(report.Failures, RecordingFailure{Name: m.Name, Path: m.File.Path, Err: err})
			continue
		}

		if _, err := analyzer.LoadNamed(m.Name, samples); err != nil {
			report.Failures = append(report.Failures, RecordingFailure{Name: m.Name, Path: m.File.Path, Err: err})
		}
	}

	span.SetAttributes(
		attribute.Int("recordings.found", len(measurements)),
		attribute.Int("recordings.loaded", analyzer.Len()),
		attribute.Int("recordings.failed", len(report.Failures)))

	if analyzer.Len() == 0 {
		if s.recorder != nil {
			s.recorder.SeriesFailed()
		}
		err := apperrors.NewDataFormatError("series has no usable recordings", pullout.ErrEmptySeries).
			WithContext("series", name).
			WithContext("found", len(measurements)).
			WithContext("failed", len(report.Failures))
		infrastructure.RecordError(span, err)
		return report, err
	}

	if err := analyzer.ComputeModulus(); err != nil {
		err = apperrors.NewComputationError("failed to compute moduli", err).WithContext("series", name)
		infrastructure.RecordError(span, err)
		return report, err
	}
	if err := analyzer.ComputeWork(); err != nil {
		err = apperrors.NewComputationError("failed to compute work", err).WithContext("series", name)
		infrastructure.RecordError(span, err)
		return report, err
	}
	report.Summary = analyzer.ComputeStatistics()
	report.Duration = time.Since(start)

	if s.recorder != nil {
		s.recorder.SeriesAnalyzed(report.Duration)
	}

	logger.Info("Series analyzed",
		slog.Int("recordings", analyzer.Len()),
		slog.Int("failed", len(report.Failures)),
		slog.String("peak_force", report.Summary.PeakForce.String()),
		slog.String("work", report.Summary.Work.String()),
		slog.String("modulus", report.Summary.Modulus.String()),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (s *AnalysisService) readRecording(ctx context.Context, path string) ([]pullout.Sample, error) {
	if err := s.validator.ValidateRecordingFile(path); err != nil {
		return nil, err
	}
	return dataprocessing.ParseRecordingFile(ctx, path, s.parseOpts)
}

// RunSingle analyzes one series and writes its reports into the output directory
// and its chart into <out>/plots.
func (s *AnalysisService) RunSingle(ctx context.Context, dir string) (*RunResult, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.RunSingle")
	defer span.End()

	if err := s.validator.ValidateOutputDirectory(s.cfg.Output.Dir); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	report, err := s.AnalyzeSeries(ctx, dir)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}
	result := &RunResult{Reports: []*SeriesReport{report}}
	analyzedAt := s.now()

	if s.cfg.Output.Plots {
		plotDir, err := s.files.EnsureDirectory(filepath.Join(s.cfg.Output.Dir, config.PlotsDirName))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to create plot directory", err)
		}
		if err := s.savePlot(report, plotDir); err != nil {
			infrastructure.RecordError(span, err)
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, report.Plot)
	}

	if err := s.writeReports(result, analyzedAt); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// RunBatch analyzes every series folder below parent. Charts go into each series'
// plots folder and are copied into <parent>/plots_gesamt; one combined workbook
// summarizes all series. A failing series is logged and left out; the run fails
// only when no series produced results.
func (s *AnalysisService) RunBatch(ctx context.Context, parent string) (*RunResult, error) {
	ctx, span := infrastructure.StartSpan(ctx, "AnalysisService.RunBatch",
		attribute.String("parent", parent))
	defer span.End()

	if err := s.validator.ValidateInputDirectory(parent); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}
	if err := s.validator.ValidateOutputDirectory(s.cfg.Output.Dir); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	series, err := s.discovery.FindSeries(parent)
	if err != nil {
		err = apperrors.NewStorageError("failed to list series", err).WithContext("path", parent)
		infrastructure.RecordError(span, err)
		return nil, err
	}
	if len(series) == 0 {
		err := apperrors.NewNotFoundError("series folders in " + parent)
		infrastructure.RecordError(span, err)
		return nil, err
	}

	var combinedDir string
	if s.cfg.Output.Plots {
		combinedDir, err = s.files.EnsureDirectory(filepath.Join(parent, config.CombinedPlotsDirName))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to create combined plot directory", err)
		}
	}

	s.logger.Info("Starting batch analysis",
		slog.String("parent", parent),
		slog.Int("series", len(series)),
		slog.Int("workers", s.cfg.Batch.Workers))

	// each worker owns one slot, so no locking is needed
	reports := make([]*SeriesReport, len(series))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Batch.Workers, 1))

	for i, dir := range series {
		i, dir := i, dir
		g.Go(func() error {
			report, err := s.AnalyzeSeries(gctx, dir.Path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger := infrastructure.WithError(s.logger.With(slog.String("series", dir.Name)), err)
				if apperrors.IsType(err, apperrors.ErrTypeDataFormat) {
					logger.Warn("Skipping series without usable recordings")
				} else {
					logger.Error("Skipping series")
				}
				return nil
			}

			if s.cfg.Output.Plots {
				if err := s.savePlot(report, filepath.Join(dir.Path, config.PlotsDirName)); err != nil {
					return err
				}
				if err := s.files.CopyFile(report.Plot, filepath.Join(combinedDir, filepath.Base(report.Plot))); err != nil {
					return apperrors.NewStorageError("failed to copy plot", err).WithContext("series", dir.Name)
				}
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	result := &RunResult{}
	for i, report := range reports {
		if report == nil {
			result.Failed = append(result.Failed, series[i].Name)
			continue
		}
		result.Reports = append(result.Reports, report)
		if report.Plot != "" {
			result.Artifacts = append(result.Artifacts, report.Plot,
				filepath.Join(combinedDir, filepath.Base(report.Plot)))
		}
	}
	span.SetAttributes(
		attribute.Int("series.analyzed", len(result.Reports)),
		attribute.Int("series.failed", len(result.Failed)))

	if len(result.Reports) == 0 {
		err := apperrors.NewDataFormatError("no series produced results", pullout.ErrEmptySeries).
			WithContext("path", parent).
			WithContext("series", len(series))
		infrastructure.RecordError(span, err)
		return result, err
	}

	if err := s.writeReports(result, s.now()); err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Batch analysis completed",
		slog.Int("analyzed", len(result.Reports)),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *AnalysisService) savePlot(report *SeriesReport, dir string) error {
	path := filepath.Join(dir, report.Name+config.PlotFileSuffix)
	if err := s.plotter.SavePNG(path, report.Name, report.Analyzer.Recordings(), report.Summary); err != nil {
		return err
	}
	report.Plot = path
	return nil
}

// writeReports writes the summary workbook and, as configured, the detailed
// workbooks and CSV files of every report in result
func (s *AnalysisService) writeReports(result *RunResult, analyzedAt time.Time) error {
	out := s.cfg.Output.Dir
	limit := s.cfg.Analysis.DistanceLimit

	wb := exporter.NewWorkbook(limit, s.logger)
	for _, report := range result.Reports {
		wb.AddSeries(report.Name, report.Summary)
	}
	summaryPath := filepath.Join(out, exporter.ReportFileName(analyzedAt))
	if err := wb.Save(summaryPath, analyzedAt); err != nil {
		return fmt.Errorf("failed to write summary workbook: %w", err)
	}
	result.Artifacts = append(result.Artifacts, summaryPath)

	if s.cfg.Output.SummaryCSV {
		name := exporter.SummaryCSVFileName(analyzedAt)
		if err := s.csv.WriteSummaryCSV(name, limit, wb.Rows()); err != nil {
			return fmt.Errorf("failed to write summary csv: %w", err)
		}
		result.Artifacts = append(result.Artifacts, filepath.Join(out, name))
	}

	for _, report := range result.Reports {
		if s.cfg.Output.DetailedReport {
			path := filepath.Join(out, exporter.DetailedReportFileName(report.Name, analyzedAt))
			if err := exporter.WriteDetailedReport(path, report.Name, report.Analyzer, analyzedAt); err != nil {
				return fmt.Errorf("failed to write detailed report for %s: %w", report.Name, err)
			}
			result.Artifacts = append(result.Artifacts, path)
		}
		if s.cfg.Output.SummaryCSV {
			name := exporter.ResultsCSVFileName(report.Name, analyzedAt)
			if err := s.csv.WriteResultsCSV(name, report.Analyzer.Results()); err != nil {
				return fmt.Errorf("failed to write results csv for %s: %w", report.Name, err)
			}
			result.Artifacts = append(result.Artifacts, filepath.Join(out, name))
		}
	}
	return nil
}
