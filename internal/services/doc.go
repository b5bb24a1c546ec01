// Package services runs the analysis workflows on top of the pull-out engine.
//
// AnalysisService ties discovery, parsing, analysis and export together:
//
//	svc, err := services.NewAnalysisService(cfg, logger, services.WithRecorder(recorder))
//	result, err := svc.RunSingle(ctx, "/data/Serie1")   // one series folder
//	result, err := svc.RunBatch(ctx, "/data")           // every series below a parent
//	err := svc.Watch(ctx, "/data", 0, onRun)            // re-run batch on new recordings
//
// A series folder holds one subfolder per measurement, each with a rig export named
// <measurement><suffix>. Recordings that fail to parse are reported in
// SeriesReport.Failures and never stop the series; a batch skips series without
// usable recordings and fails only when none produced results.
//
// Batch runs analyze series concurrently, bounded by batch.workers. Each series owns
// its Analyzer, so the engine itself stays single-threaded.
package services
