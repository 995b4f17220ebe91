package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"medcli/internal/metrics"
)

// Manager orchestrates operation execution. Steps always run sequentially
// because every step consumes the record slice the previous one produced.
type Manager struct {
	registry  *Registry
	logger    *slog.Logger
	tracer    *OperationTracer
	collector *metrics.Collector

	// Active operations
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new operation manager with dependency injection
func NewManager(registry *Registry, logger *slog.Logger, tracer *OperationTracer, collector *metrics.Collector) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = NewOperationTracer(nil)
	}

	return &Manager{
		registry:   registry,
		logger:     logger.With(slog.String("component", "operations")),
		tracer:     tracer,
		collector:  collector,
		operations: make(map[string]*OperationState),
	}
}

// RegisterStage registers a Step with the operation
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs an operation with the given request
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	// Generate operation ID if not provided
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, req)
	defer span.End()

	m.logOperationStart(ctx, req.ID, req)

	// Create operation state
	state := NewOperationState(req.ID)

	// Set configuration from request
	if req.InputPath != "" {
		state.SetConfig(ContextKeyInputPath, req.InputPath)
	}

	// Copy additional parameters
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	// Store operation state
	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	// Determine which steps to run based on request
	var steps []Step
	stepParam, hasStep := req.Parameters[ContextKeyStep].(string)

	if hasStep && stepParam != "" && stepParam != StepFullPipeline {
		// Single step requested
		requestedStep, err := m.registry.Get(stepParam)
		if err != nil {
			m.logOperationError(ctx, req.ID, err)
			state.Fail(err)
			return m.createResponse(state), err
		}
		steps = []Step{requestedStep}

		m.logger.InfoContext(ctx, "executing_single_step",
			slog.String("step_id", stepParam),
			slog.String("operation_id", req.ID))
	} else {
		// Full pipeline requested or no step specified
		var err error
		steps, err = m.registry.GetDependencyOrder()
		if err != nil {
			err = fmt.Errorf("failed to get dependency order: %w", err)
			m.logOperationError(ctx, req.ID, err)
			state.Fail(err)
			return m.createResponse(state), err
		}

		m.logger.InfoContext(ctx, "executing_full_pipeline",
			slog.Int("step_count", len(steps)),
			slog.String("operation_id", req.ID))
	}

	// Initialize Step states
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	// Start operation execution
	state.Start()

	err := m.executeSequential(ctx, state, steps)

	// Update final operation state
	if err != nil {
		if GetErrorType(err) == ErrorTypeCancellation {
			state.Cancel()
		} else {
			state.Fail(err)
		}
		m.tracer.RecordOperationError(ctx, req.ID, err)
	} else {
		state.Complete()
	}

	if m.collector != nil {
		m.collector.ObserveRunDuration(state.Duration())
		m.collector.SetRunSuccess(err == nil)
	}

	rows := rowCountFromState(state)
	m.tracer.RecordOperationCompletion(ctx, span, req.ID, state.Duration(), string(state.Status), rows)
	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.Status))

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	m.logger.InfoContext(ctx, "sequential_execution_start",
		slog.String("operation_id", state.ID),
		slog.Int("step_count", len(steps)))

	for i, step := range steps {
		select {
		case <-ctx.Done():
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID())
		default:
			// Skipped due to an earlier dependency failure
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusSkipped {
				m.logger.InfoContext(ctx, "step_skipped",
					slog.String("operation_id", state.ID),
					slog.String("step", step.ID()),
					slog.Int("step_number", i+1),
					slog.Int("total_steps", len(steps)))
				continue
			}

			m.logger.InfoContext(ctx, "executing_step",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Int("step_number", i+1),
				slog.Int("total_steps", len(steps)))

			if err := m.executeStage(ctx, state, step); err != nil {
				m.logStageError(ctx, state.ID, step.ID(), err)
				// Skip all dependent steps
				m.skipDependentStages(state, steps, step.ID())
				return err
			}
		}
	}

	m.logger.InfoContext(ctx, "all_steps_completed",
		slog.String("operation_id", state.ID))
	return nil
}

// executeStage executes a single Step
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	m.logStageStart(ctx, state.ID, step.ID())

	stepState := state.GetStage(step.ID())
	if stepState == nil {
		m.logger.ErrorContext(ctx, "step_state_not_found",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()))
		return NewFatalError("step state not found", nil)
	}

	// Check dependencies
	if err := m.checkDependencies(state, step); err != nil {
		m.logger.WarnContext(ctx, "dependencies_not_met",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Skip(fmt.Sprintf("dependencies not met: %v", err))
		return err
	}

	// Validate Step
	if err := step.Validate(state); err != nil {
		m.logger.WarnContext(ctx, "validation_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Skip(fmt.Sprintf("validation failed: %v", err))
		return NewValidationError(step.ID(), err.Error())
	}

	stageCtx, stageSpan := m.tracer.TraceStageExecution(ctx, state.ID, step.ID())
	defer stageSpan.End()

	stepState.Start()

	startTime := time.Now()
	err := step.Execute(stageCtx, state)
	duration := time.Since(startTime)

	if m.collector != nil {
		m.collector.ObserveStageDuration(step.ID(), duration)
	}

	if err != nil {
		stepState.Fail(err)
		m.tracer.RecordStageError(stageCtx, state.ID, step.ID(), err)
		m.tracer.RecordStageCompletion(stageCtx, stageSpan, state.ID, step.ID(), duration, false, rowCountFromState(state))
		return WrapError(err, step.ID(), "step execution failed")
	}

	stepState.Complete()
	m.logStageComplete(ctx, state.ID, step.ID(), duration)
	m.tracer.RecordStageCompletion(stageCtx, stageSpan, state.ID, step.ID(), duration, true, rowCountFromState(state))

	return nil
}

// skipDependentStages marks all steps that depend on the failed Step as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStageID string) {
	for _, step := range steps {
		for _, dep := range step.Dependencies() {
			if dep == failedStageID {
				stepState := state.GetStage(step.ID())
				if stepState != nil && stepState.GetStatus() == StepStatusPending {
					stepState.Skip(fmt.Sprintf("dependency %s failed", failedStageID))
					// Recursively skip steps that depend on this one
					m.skipDependentStages(state, steps, step.ID())
				}
				break
			}
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.Dependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not found", dep))
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

// GetOperation retrieves the state of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, ErrOperationNotFound
	}

	return state.Clone(), nil
}

// ListOperations returns all active operations
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	operations := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		operations = append(operations, state.Clone())
	}

	return operations
}

// storeOperation stores an operation state
func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

// removeOperation removes an operation state
func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
