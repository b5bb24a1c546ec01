// Package metrics counts analysis events with Prometheus collectors.
//
// The CLI runs as a batch job rather than a server, so nothing is scraped. Instead the
// Recorder writes its registry to a file in the text exposition format when a run ends,
// ready for the node_exporter textfile collector:
//
//	recorder := metrics.NewRecorder()
//	analyzer, _ := pullout.NewAnalyzer(cfg, logger, pullout.WithObserver(recorder))
//	...
//	err := recorder.WriteTextfile("/var/lib/node_exporter/textfile/pullout.prom")
package metrics
