package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateClassification(t *testing.T) {
	for _, s := range ActiveStates {
		assert.True(t, s.IsActive(), "%s should be active", s)
		assert.False(t, s.IsFinal(), "%s should not be final", s)
	}
	for _, s := range FinalStates {
		assert.True(t, s.IsFinal(), "%s should be final", s)
		assert.False(t, s.IsActive(), "%s should not be active", s)
	}
}

func TestProcessTypeIsOpen(t *testing.T) {
	assert.NoError(t, ProcessTypeDeploy.Validate())
	assert.NoError(t, ProcessType("ROLLING_DEPLOY").Validate())
	err := ProcessType("  ").Validate()
	assert.ErrorIs(t, err, ErrEmptyProcessType)
}

func TestOperationIsFinal(t *testing.T) {
	op := &Operation{ProcessID: "p1", State: StateRunning}
	assert.False(t, op.IsFinal())
	op.State = StateAborted
	assert.True(t, op.IsFinal())
}
