package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/mta-deploy/deployctl/engine"
	"gitlab.com/mta-deploy/deployctl/engine/fake"
	"gitlab.com/mta-deploy/deployctl/model"
	"gitlab.com/mta-deploy/deployctl/storage"
)

func newAbortFixture() (*fake.Engine, *storage.MemHistoricEventStore, *AbortAction) {
	eng := fake.New()
	events := storage.NewMemHistoricEventStore()
	action := NewAbortAction(eng, events)
	action.PollInterval = time.Millisecond
	return eng, events, action
}

func TestAbortRetriesOnOptimisticLockConflict(t *testing.T) {
	eng, events, action := newAbortFixture()
	eng.AddRootProcess("p1")
	eng.AddExecution("p1", "e1", false)
	eng.AddDeadLetterJob("p1", "j1")
	eng.SetVariableConflicts = 2

	err := action.Execute(context.Background(), "alice", "p1")
	require.NoError(t, err)

	require.Len(t, eng.Deleted, 1)
	assert.Equal(t, fake.Deletion{ProcessID: "p1", Reason: DeleteReasonAborted}, eng.Deleted[0])
	evts, err := events.ProcessEvents(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, model.EventAborted, evts[0].Type)
}

func TestAbortTimesOutWhenConflictsPersist(t *testing.T) {
	eng, events, action := newAbortFixture()
	eng.AddRootProcess("p1")
	eng.AddExecution("p1", "e1", false)
	eng.AddDeadLetterJob("p1", "j1")
	eng.SetVariableConflicts = -1
	action.SetVariableDeadline = time.Millisecond * 20

	err := action.Execute(context.Background(), "alice", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAbortTimedOut)

	assert.Empty(t, eng.Deleted, "a timed out abort must leave the process untouched")
	evts, err := events.ProcessEvents(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, evts)
}

func TestAbortActivatesSuspendedInstanceFirst(t *testing.T) {
	eng, _, action := newAbortFixture()
	eng.AddRootProcess("p1")
	eng.AddExecution("p1", "e1", false)
	eng.AddDeadLetterJob("p1", "j1")
	eng.SetSuspended("p1", true)

	err := action.Execute(context.Background(), "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, eng.Activated)
}

func TestAbortWaitsForSubProcessesToFail(t *testing.T) {
	eng, _, action := newAbortFixture()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddSubProcess("root", "sub2")
	eng.AddExecution("root", "e0", false)
	eng.AddExecution("sub1", "e1", false)
	eng.AddExecution("sub2", "e2", false)
	eng.AddDeadLetterJob("sub1", "j1")

	done := make(chan error, 1)
	go func() {
		done <- action.Execute(context.Background(), "alice", "root")
	}()

	// Only one of two sub-processes has dead-lettered, so the poll must
	// keep waiting until the second one fails as well.
	select {
	case err := <-done:
		t.Fatalf("abort finished before the tree was ready: %v", err)
	case <-time.After(time.Millisecond * 30):
	}

	eng.AddDeadLetterJob("sub2", "j2")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("abort did not finish after the tree became ready")
	}
	require.Len(t, eng.Deleted, 1)
	assert.Equal(t, "root", eng.Deleted[0].ProcessID)
}

func TestAbortReadinessRule(t *testing.T) {
	tests := []struct {
		name       string
		executions int
		jobs       int
		ready      bool
	}{
		{"single execution with its dead letter job", 1, 1, true},
		{"single execution still running", 1, 0, false},
		{"root plus two subs, both failed", 3, 2, true},
		{"root plus two subs, one failed", 3, 1, false},
		{"root plus two subs, too many jobs", 3, 3, false},
		{"no executions", 0, 0, false},
		{"no executions but stray job", 0, 1, false},
		{"two executions, one failed", 2, 1, true},
		{"two executions, none failed", 2, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ready, allProcessesFailed(tt.executions, tt.jobs))
		})
	}
}

func TestAbortNotReadyWhileParkedAtReceiveTask(t *testing.T) {
	eng, _, action := newAbortFixture()
	eng.AddRootProcess("p1")
	eng.AddExecution("p1", "e1", true)
	eng.AddDeadLetterJob("p1", "j1")

	ready := action.readyForDeletion(context.Background(), "p1")
	assert.False(t, ready, "a process waiting on a human action must not be torn down mid-wait")
}

func TestAbortNotReadyWhenInstanceMissing(t *testing.T) {
	eng, _, action := newAbortFixture()
	eng.AddRootProcess("p1")
	eng.RemoveProcess("p1")

	ready := action.readyForDeletion(context.Background(), "p1")
	assert.False(t, ready)
}

func TestAbortPropagatesNonConflictVariableErrors(t *testing.T) {
	_, _, action := newAbortFixture()
	// No process registered: SetVariable fails with not found.

	err := action.Execute(context.Background(), "alice", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
