package operations

import (
	"time"
)

// Step identifiers, one per pipeline component. They double as span and
// metric label values, so they stay short and lowercase.
const (
	StageIDLoad        = "load"
	StageIDDeduplicate = "deduplicate"
	StageIDNormalize   = "normalize"
	StageIDDates       = "dates"
	StageIDNumeric     = "numeric"
	StageIDImpute      = "impute"
	StageIDFeatures    = "features"
	StageIDExport      = "export"
)

// Human-readable step names, shown in logs and the response.
const (
	StageNameLoad        = "Record Loading"
	StageNameDeduplicate = "Duplicate Removal"
	StageNameNormalize   = "Field Normalization"
	StageNameDates       = "Date Logic Repair"
	StageNameNumeric     = "Numeric Sanitation"
	StageNameImpute      = "Missing Value Imputation"
	StageNameFeatures    = "Feature Engineering"
	StageNameExport      = "Artifact Export"
)

// Context keys for values steps pass through the operation state. Records
// and the run report travel the whole pipeline; the input path arrives via
// the request config.
const (
	ContextKeyInputPath = "input_path"
	ContextKeyRecords   = "records"
	ContextKeyRunReport = "run_report"
	ContextKeyStep      = "step"
)

// StepFullPipeline as the step parameter requests every registered step in
// dependency order.
const StepFullPipeline = "full_pipeline"

// OperationRequest describes one pipeline run.
type OperationRequest struct {
	ID         string                 `json:"id"`
	InputPath  string                 `json:"input_path"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse is the terminal view of a run: overall status, wall
// time, and the final state of every step.
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
