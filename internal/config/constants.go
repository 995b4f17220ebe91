package config

// Application constants - all hardcoded values for the MedCLI pipeline
const (
	// Application Info
	AppName    = "MedCLI"
	AppVersion = "1.2.0"

	// Cleaning bounds. Values outside these ranges are treated as data
	// entry artifacts and become missing values for the imputer.
	MaxValidAge      = 120
	MinValidBilling  = 1.0
	BillingCapAmount = 1_000_000.0
	MinRoomNumber    = 1
	MaxRoomNumber    = 9999

	// File Paths (relative to the base directory)
	DefaultDataDir   = "data"
	DefaultOutputDir = "data/output"
	DefaultLogsDir   = "logs"

	// Well-known artifact names within the output directory
	CleanedCSVName    = "cleaned.csv"
	MLReadyCSVName    = "ml_ready.csv"
	SummaryName       = "summary.txt"
	MLSummaryName     = "ml_ready_summary.txt"
	QualityReportName = "quality_report.txt"
	MetricsName       = "run_metrics.prom"
	TraceName         = "trace.json"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "both"
	DefaultLogFile   = "logs/app.log"
)
