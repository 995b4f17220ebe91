package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepStateLifecycle(t *testing.T) {
	state := NewStepState(StageIDLoad, StageNameLoad)

	assert.Equal(t, StageIDLoad, state.ID)
	assert.Equal(t, StageNameLoad, state.Name)
	assert.Equal(t, StepStatusPending, state.GetStatus())
	assert.Nil(t, state.StartTime)

	state.Start()
	assert.Equal(t, StepStatusActive, state.GetStatus())
	require.NotNil(t, state.StartTime)

	state.UpdateProgress(40, "halfway there")
	assert.Equal(t, 40.0, state.Progress)
	assert.Equal(t, "halfway there", state.Message)

	state.Complete()
	assert.Equal(t, StepStatusCompleted, state.GetStatus())
	require.NotNil(t, state.EndTime)
	assert.Equal(t, 100.0, state.Progress)
	assert.GreaterOrEqual(t, state.Duration(), time.Duration(0))
}

func TestStepStateFail(t *testing.T) {
	state := NewStepState(StageIDNumeric, StageNameNumeric)
	state.Start()

	failure := NewExecutionError(StageIDNumeric, assert.AnError)
	state.Fail(failure)

	assert.Equal(t, StepStatusFailed, state.GetStatus())
	assert.Equal(t, failure, state.Error)
	require.NotNil(t, state.EndTime)
}

func TestStepStateSkip(t *testing.T) {
	state := NewStepState(StageIDExport, StageNameExport)

	state.Skip("dependency features failed")

	assert.Equal(t, StepStatusSkipped, state.GetStatus())
	assert.Equal(t, "dependency features failed", state.Message)
	require.NotNil(t, state.EndTime)
}

func TestStepStateDurationBeforeStart(t *testing.T) {
	state := NewStepState(StageIDLoad, StageNameLoad)
	assert.Equal(t, time.Duration(0), state.Duration())
}

func TestBaseStageAccessors(t *testing.T) {
	base := NewBaseStage(StageIDImpute, StageNameImpute, []string{StageIDNumeric})

	assert.Equal(t, StageIDImpute, base.ID())
	assert.Equal(t, StageNameImpute, base.Name())
	assert.Equal(t, []string{StageIDNumeric}, base.Dependencies())
	assert.NoError(t, base.Validate(NewOperationState("op-1")))
}

func TestBaseStageNilDependencies(t *testing.T) {
	base := NewBaseStage(StageIDLoad, StageNameLoad, nil)
	assert.NotNil(t, base.Dependencies())
	assert.Empty(t, base.Dependencies())
}
