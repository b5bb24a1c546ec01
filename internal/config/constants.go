package config

// Application constants for the yarn pull-out analyzer
const (
	// Application Info
	AppName    = "Yarn Pull-Out Analyzer"
	AppVersion = "1.0.0"

	// Configuration sources
	EnvPrefix      = "PULLOUT"
	ConfigFileName = "pullout.yaml"

	// Measurement files (rig export: semicolon separated, decimal comma)
	DefaultFileSuffix         = ".steps.tracking.csv"
	DefaultSeparator          = ";"
	DefaultDisplacementColumn = 7 // x in mm
	DefaultForceColumn        = 8 // y in kN

	// Output layout
	PlotsDirName         = "plots"
	CombinedPlotsDirName = "plots_gesamt"
	PlotFileSuffix       = "_analysis.png"
	ReportFilePrefix     = "YarnPullout_Analyse_"
	ReportTimestamp      = "20060102_150405"
	DefaultPlotDPI       = 300

	// Log Settings
	DefaultLogLevel = "info"
	DefaultLogFile  = "logs/pullout.log"
)
