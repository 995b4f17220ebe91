// Package config provides centralized configuration management for the
// MedCLI pipeline. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Built-in defaults (lowest priority)
//
// A .env file in the working directory is read into the environment
// before processing, so local runs can keep their settings next to the
// data.
//
// # Environment Variables
//
// All environment variables follow the pattern MEDCLI_* for namespacing:
//
//	MEDCLI_PATHS_DATA_DIR=data
//	MEDCLI_PATHS_OUTPUT_DIR=data/output
//	MEDCLI_LOGGING_LEVEL=debug
//	MEDCLI_PIPELINE_MAX_AGE=120
//	MEDCLI_OBSERVABILITY_TRACING_ENABLED=true
//
// # Path Management
//
// The package provides centralized path management through the Paths
// type, which anchors every artifact the pipeline writes at the base
// directory:
//
//	paths := cfg.GetPaths()
//	cleaned := paths.CleanedCSV
//	summary := paths.SummaryFile
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
