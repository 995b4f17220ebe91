// Package operations provides the step execution framework that hosts the
// cleaning pipeline.
//
// Core components:
//
// Manager: orchestrates execution. Steps run strictly sequentially because
// each one consumes the record slice its predecessor produced; a failed
// step skips everything downstream of it.
//
// Step: one unit of work. Steps declare dependencies by ID and are executed
// in topological order (registration order breaks ties).
//
// Registry: registration and dependency-order resolution for steps.
//
// OperationState: runtime state shared across steps. The record slice and
// the accumulating run report travel in its context map; per-step progress
// and status live in StepState entries.
//
// Example usage:
//
//	manager := operations.NewManager(nil, logger, tracer, collector)
//
//	manager.RegisterStage(operations.NewLoadStage(loader, fileValidator, logger))
//	manager.RegisterStage(operations.NewDeduplicateStage(deduper, logger))
//	// ... remaining steps ...
//	manager.RegisterStage(operations.NewExportStage(recordExporter, summarizer, recordValidator, paths, logger))
//
//	resp, err := manager.Execute(ctx, operations.OperationRequest{
//		InputPath: "data/admissions.csv",
//	})
//
// A single step can be run in isolation by passing its ID in the request
// parameters under the "step" key.
package operations
