package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "yarnpull/internal/errors"
	"yarnpull/internal/pullout"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Input    InputConfig    `yaml:"input" envconfig:"INPUT"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
	Tracing  TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
	Batch    BatchConfig    `yaml:"batch" envconfig:"BATCH"`
}

// AnalysisConfig contains the parameters shared by every computation on a series
type AnalysisConfig struct {
	DistanceLimit         float64 `yaml:"distance_limit" envconfig:"DISTANCE_LIMIT" validate:"gt=0"`
	ForceThresholdLow     float64 `yaml:"force_threshold_low" envconfig:"FORCE_THRESHOLD_LOW" validate:"gte=0,lte=1"`
	ForceThresholdHigh    float64 `yaml:"force_threshold_high" envconfig:"FORCE_THRESHOLD_HIGH" validate:"gte=0,lte=1,gtefield=ForceThresholdLow"`
	ZeroFillFailedModulus bool    `yaml:"zero_fill_failed_modulus" envconfig:"ZERO_FILL_FAILED_MODULUS"`
}

// InputConfig describes the measurement files written by the test rig
type InputConfig struct {
	FileSuffix         string `yaml:"file_suffix" envconfig:"FILE_SUFFIX" validate:"required"`
	Separator          string `yaml:"separator" envconfig:"SEPARATOR" validate:"len=1"`
	DecimalComma       bool   `yaml:"decimal_comma" envconfig:"DECIMAL_COMMA"`
	DisplacementColumn int    `yaml:"displacement_column" envconfig:"DISPLACEMENT_COLUMN" validate:"gte=0"`
	ForceColumn        int    `yaml:"force_column" envconfig:"FORCE_COLUMN" validate:"gte=0,nefield=DisplacementColumn"`
}

// OutputConfig controls which artifacts are written and where
type OutputConfig struct {
	Dir            string `yaml:"dir" envconfig:"DIR" validate:"required"`
	DetailedReport bool   `yaml:"detailed_report" envconfig:"DETAILED_REPORT"`
	SummaryCSV     bool   `yaml:"summary_csv" envconfig:"SUMMARY_CSV"`
	Plots          bool   `yaml:"plots" envconfig:"PLOTS"`
	PlotDPI        int    `yaml:"plot_dpi" envconfig:"PLOT_DPI" validate:"gte=72,lte=600"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// MetricsConfig contains the Prometheus textfile settings. An empty Textfile disables the export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" envconfig:"TEXTFILE"`
}

// TracingConfig contains OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	Exporter    string  `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=stdout none"`
	File        string  `yaml:"file" envconfig:"FILE"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// BatchConfig controls multi-series runs
type BatchConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
}

// Load builds the configuration from defaults, then the YAML file, then PULLOUT_* environment
// variables. An empty path looks for a config file in the usual locations; a missing file at an
// explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewConfigError("config file not readable", err).
			WithContext("path", path)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	// Environment wins over the file. Fields without a variable keep their value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate checks struct tags and the cross-field rules of the analysis section
func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewConfigError("invalid configuration: "+strings.Join(fields, ", "), err)
		}
		return apperrors.NewConfigError("invalid configuration", err)
	}

	// Catches NaN, which passes the numeric tags.
	if err := c.Analysis.Pullout().Validate(); err != nil {
		return err
	}

	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	return nil
}

// Pullout returns the analysis parameters in the form the engine takes
func (a AnalysisConfig) Pullout() pullout.Config {
	return pullout.Config{
		DistanceLimit:         a.DistanceLimit,
		ForceThresholdLow:     a.ForceThresholdLow,
		ForceThresholdHigh:    a.ForceThresholdHigh,
		ZeroFillFailedModulus: a.ZeroFillFailedModulus,
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		ConfigFileName,
		"configs/" + ConfigFileName,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			DistanceLimit:      pullout.DefaultDistanceLimit,
			ForceThresholdLow:  pullout.DefaultForceThresholdLow,
			ForceThresholdHigh: pullout.DefaultForceThresholdHigh,
		},
		Input: InputConfig{
			FileSuffix:         DefaultFileSuffix,
			Separator:          DefaultSeparator,
			DecimalComma:       true,
			DisplacementColumn: DefaultDisplacementColumn,
			ForceColumn:        DefaultForceColumn,
		},
		Output: OutputConfig{
			Dir:            ".",
			DetailedReport: true,
			SummaryCSV:     true,
			Plots:          true,
			PlotDPI:        DefaultPlotDPI,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			SampleRatio: 1.0,
		},
		Batch: BatchConfig{
			Workers: 1,
		},
	}
}
