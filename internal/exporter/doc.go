// Package exporter provides CSV export functionality for the cleaning
// pipeline's tabular artifacts.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// RecordExporter: Streams PatientRecords into the cleaned CSV (all
// eighteen columns) and the ML-ready CSV (Name column dropped).
//
// Example usage:
//
//	exporter := exporter.NewRecordExporter(paths, logger, collector, true)
//
//	// Write the cleaned table
//	n, err := exporter.ExportCleaned(ctx, paths.CleanedCSV, records)
//
//	// Write the ML-ready variant
//	n, err = exporter.ExportMLReady(ctx, paths.MLReadyCSV, records)
package exporter
