package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/mta-deploy/deployctl/model"
)

func seedOperations(t *testing.T, s *MemOperationStore, ops ...*model.Operation) {
	t.Helper()
	for _, op := range ops {
		require.NoError(t, s.Update(context.Background(), op))
	}
}

func TestFilterMatches(t *testing.T) {
	op := &model.Operation{
		ProcessID:    "p1",
		SpaceID:      "space-1",
		MtaID:        "mta-1",
		State:        model.StateRunning,
		AcquiredLock: true,
	}
	assert.True(t, Filter{}.Matches(op))
	assert.True(t, Filter{SpaceID: "space-1", MtaID: "mta-1"}.Matches(op))
	assert.True(t, Filter{States: model.ActiveStates, WithAcquiredLock: true}.Matches(op))
	assert.False(t, Filter{SpaceID: "space-2"}.Matches(op))
	assert.False(t, Filter{MtaID: "mta-2"}.Matches(op))
	assert.False(t, Filter{States: model.FinalStates}.Matches(op))
	op.AcquiredLock = false
	assert.False(t, Filter{WithAcquiredLock: true}.Matches(op))
}

func TestLockHolderQuery(t *testing.T) {
	s := NewMemOperationStore()
	now := time.Now().UTC()
	ended := now.Add(time.Minute)
	seedOperations(t, s,
		// Previous deployment of the same MTA, finished and unlocked.
		&model.Operation{ProcessID: "p1", SpaceID: "space-1", MtaID: "mta-1", State: model.StateFinished, StartedAt: now, EndedAt: &ended},
		// The current lock holder.
		&model.Operation{ProcessID: "p2", SpaceID: "space-1", MtaID: "mta-1", State: model.StateRunning, AcquiredLock: true, StartedAt: now},
		// Same MTA id deployed in another space holds its own lock.
		&model.Operation{ProcessID: "p3", SpaceID: "space-2", MtaID: "mta-1", State: model.StateError, AcquiredLock: true, StartedAt: now},
	)

	holders, err := s.List(context.Background(), Filter{
		SpaceID:          "space-1",
		MtaID:            "mta-1",
		States:           model.ActiveStates,
		WithAcquiredLock: true,
	})
	require.NoError(t, err)
	require.Len(t, holders, 1, "at most one active operation may hold the lock per (mta, space)")
	assert.Equal(t, "p2", holders[0].ProcessID)
}

func TestMemOperationStoreRoundTrip(t *testing.T) {
	s := NewMemOperationStore()
	op := &model.Operation{
		ProcessID:   "p1",
		ProcessType: model.ProcessTypeBlueGreenDeploy,
		SpaceID:     "space-1",
		MtaID:       "mta-1",
		User:        "alice",
		State:       model.StateRunning,
		StartedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.Update(context.Background(), op))

	got, err := s.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, op, got)

	_, err = s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestMemHistoricEventStoreAppendOrder(t *testing.T) {
	s := NewMemHistoricEventStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, &model.HistoricOperationEvent{ProcessID: "p1", Type: model.EventRetried}))
	require.NoError(t, s.Append(ctx, &model.HistoricOperationEvent{ProcessID: "p2", Type: model.EventAborted}))
	require.NoError(t, s.Append(ctx, &model.HistoricOperationEvent{ProcessID: "p1", Type: model.EventAborted}))

	evts, err := s.ProcessEvents(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, model.EventRetried, evts[0].Type)
	assert.Equal(t, model.EventAborted, evts[1].Type)
}
