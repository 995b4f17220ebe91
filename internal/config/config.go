package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Pipeline      PipelineConfig      `yaml:"pipeline" envconfig:"PIPELINE"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PipelineConfig contains the cleaning bounds and behavioral switches of
// the batch pipeline
type PipelineConfig struct {
	// MaxAge is the oldest age considered possible; anything above (or
	// below zero) becomes missing for the imputer.
	MaxAge int `yaml:"max_age" envconfig:"MAX_AGE" validate:"gt=0"`

	// BillingCap truncates generator artifacts far above the plausible
	// charge range. MinBilling nulls sub-unit placeholder amounts.
	BillingCap float64 `yaml:"billing_cap" envconfig:"BILLING_CAP" validate:"gt=0"`
	MinBilling float64 `yaml:"min_billing" envconfig:"MIN_BILLING" validate:"gte=0"`

	MinRoomNumber int `yaml:"min_room_number" envconfig:"MIN_ROOM_NUMBER" validate:"gte=0"`
	MaxRoomNumber int `yaml:"max_room_number" envconfig:"MAX_ROOM_NUMBER" validate:"gtefield=MinRoomNumber"`

	// EmitBOM prefixes output CSVs with a UTF-8 byte order mark so
	// Excel opens them with correct encoding.
	EmitBOM bool `yaml:"emit_bom" envconfig:"EMIT_BOM"`
}

// ObservabilityConfig controls the optional run trace and metrics
// artifacts
type ObservabilityConfig struct {
	TracingEnabled bool `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load loads configuration with the documented precedence: environment
// variables override the optional config file, which overrides the
// built-in defaults. A .env file in the working directory is read into
// the environment first when present.
func Load() (*Config, error) {
	// Optional .env bootstrap; absence is not an error
	_ = godotenv.Load()

	cfg := Default()

	// Overlay from config file if one exists
	if configFile := getConfigFilePath(); configFile != "" {
		if err := overlayFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment variables take precedence
	if err := envconfig.Process("MEDCLI", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Resolve relative paths
	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// overlayFromFile unmarshals a YAML file over the current configuration;
// keys absent from the file keep their existing values
func overlayFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// resolvePaths anchors relative directories at the base directory and
// fills in the base directory from the working directory when unset
func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		c.Paths.BaseDir = wd
	}
	return nil
}

// validate checks the configuration against its struct tags and
// normalizes the logging section
func (c *Config) validate() error {
	// Always JSON structured logs; console formats drift across tools
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "stdout" && c.Logging.Output != "file" && c.Logging.Output != "both" {
		c.Logging.Output = DefaultLogOutput
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)

	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      DefaultLogOutput,
			FilePath:    DefaultLogFile,
			Development: false,
		},
		Pipeline: PipelineConfig{
			MaxAge:        MaxValidAge,
			BillingCap:    BillingCapAmount,
			MinBilling:    MinValidBilling,
			MinRoomNumber: MinRoomNumber,
			MaxRoomNumber: MaxRoomNumber,
			EmitBOM:       false,
		},
		Observability: ObservabilityConfig{
			TracingEnabled: false,
			MetricsEnabled: true,
		},
	}
}
