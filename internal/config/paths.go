package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the pipeline.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string

	// Well-known artifact files within the output directory
	CleanedCSV    string
	MLReadyCSV    string
	SummaryFile   string
	MLSummaryFile string
	QualityReport string
	MetricsFile   string

	// Trace output lives with the logs, not the data artifacts
	TraceFile string
}

// NewPaths resolves the configured directories into absolute paths
// anchored at the base directory
func NewPaths(cfg PathsConfig) *Paths {
	base := cfg.BaseDir
	if base == "" {
		base, _ = os.Getwd()
	}

	dataDir := resolveDir(base, cfg.DataDir)
	outputDir := resolveDir(base, cfg.OutputDir)
	logsDir := resolveDir(base, cfg.LogsDir)

	return &Paths{
		BaseDir:   base,
		DataDir:   dataDir,
		OutputDir: outputDir,
		LogsDir:   logsDir,

		CleanedCSV:    filepath.Join(outputDir, CleanedCSVName),
		MLReadyCSV:    filepath.Join(outputDir, MLReadyCSVName),
		SummaryFile:   filepath.Join(outputDir, SummaryName),
		MLSummaryFile: filepath.Join(outputDir, MLSummaryName),
		QualityReport: filepath.Join(outputDir, QualityReportName),
		MetricsFile:   filepath.Join(outputDir, MetricsName),

		TraceFile: filepath.Join(logsDir, TraceName),
	}
}

func resolveDir(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.OutputDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}
	logger.Info("Resolved application paths",
		slog.Group("paths",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
	)
}

// GetPaths resolves the paths for a configuration
func (c *Config) GetPaths() *Paths {
	return NewPaths(c.Paths)
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	return resolveDir(c.Paths.BaseDir, c.Paths.DataDir)
}

// GetOutputDir returns the resolved output directory path
func (c *Config) GetOutputDir() string {
	return resolveDir(c.Paths.BaseDir, c.Paths.OutputDir)
}

// GetLogsDir returns the resolved logs directory path
func (c *Config) GetLogsDir() string {
	return resolveDir(c.Paths.BaseDir, c.Paths.LogsDir)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
