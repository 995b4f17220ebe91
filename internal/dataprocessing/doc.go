// Package dataprocessing implements the hospital admissions cleaning
// pipeline. It consolidates ingestion, repair, and enrichment into a
// cohesive package that handles the complete data lifecycle from raw
// CSV or Excel input to an analysis-ready table.
//
// # Architecture
//
// The package is organized around one component per pipeline stage:
//
// 1. Loader: reads raw CSV/XLSX files and coerces cells into typed records
// 2. Deduplicator: removes exact duplicate rows, keeping first occurrences
// 3. Normalizer: canonicalizes text casing and closed-domain categoricals
// 4. DateRepairer: swaps inverted admission/discharge date pairs
// 5. NumericSanitizer: flips negative billing and nulls impossible values
// 6. Imputer: fills missing values per the column strategy table
// 7. FeatureEngineer: derives length of stay, age group, billing category
// 8. Profiler / Summarizer: render data quality and run summary artifacts
//
// # Data Flow
//
// The typical flow through this package:
//
//	Raw File → Loader → PatientRecords → Dedupe → Normalize → Repair →
//	Sanitize → Impute → Derive → Summaries
//
// Stages mutate the record slice in place and return a small report struct
// with their bookkeeping; the Summarizer renders the collected reports.
//
// # Error Handling
//
// Structural problems (unreadable file, wrong header) are fatal and
// surface as SchemaError or IOError. Cell-level problems never abort a
// run: the offending value becomes missing and a CoercionWarning is
// counted per column.
//
// # Testing
//
// The package includes tests for every stage. Use table-driven tests when
// adding new functionality.
package dataprocessing
