// Package config provides centralized configuration management for the pull-out analyzer.
// It loads configuration from multiple sources, validates it, and maps the analysis
// section onto the engine's parameters.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (pullout.yaml or configs/pullout.yaml, or --config)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PULLOUT_<SECTION>_<FIELD>:
//
//	PULLOUT_ANALYSIS_DISTANCE_LIMIT=2.5
//	PULLOUT_ANALYSIS_FORCE_THRESHOLD_LOW=0.2
//	PULLOUT_INPUT_FILE_SUFFIX=.steps.tracking.csv
//	PULLOUT_LOGGING_LEVEL=debug
//	PULLOUT_METRICS_TEXTFILE=/var/lib/node_exporter/pullout.prom
//	PULLOUT_BATCH_WORKERS=4
//
// # Configuration File
//
//	analysis:
//	  distance_limit: 2.5
//	  force_threshold_low: 0.2
//	  force_threshold_high: 0.7
//	input:
//	  file_suffix: .steps.tracking.csv
//	  separator: ";"
//	  decimal_comma: true
//	output:
//	  dir: results
//	  plots: true
//
// # Validation
//
// All configuration is validated at load time with go-playground/validator struct tags:
//
//	- distance limit is positive, thresholds are fractions and low <= high
//	- displacement and force columns differ
//	- logging level and output are known values
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	analyzer, err := pullout.NewAnalyzer(cfg.Analysis.Pullout(), logger)
package config
