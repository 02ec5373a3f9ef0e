package process

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/mta-deploy/deployctl/engine/fake"
	"gitlab.com/mta-deploy/deployctl/model"
	"gitlab.com/mta-deploy/deployctl/storage"
)

func newRetryFixture() (*fake.Engine, *storage.MemHistoricEventStore, *RetryAction) {
	eng := fake.New()
	events := storage.NewMemHistoricEventStore()
	return eng, events, NewRetryAction(eng, events)
}

func TestRetrySingleDeadLetterJobOnRoot(t *testing.T) {
	eng, events, action := newRetryFixture()
	eng.AddRootProcess("p1")
	eng.AddExecution("p1", "e1", false)
	eng.AddDeadLetterJob("p1", "j1")

	err := action.Execute(context.Background(), "alice", "p1")
	require.NoError(t, err)

	assert.Equal(t, []string{"j1"}, eng.MovedJobs)
	evts, err := events.ProcessEvents(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, model.EventRetried, evts[0].Type)
	assert.Equal(t, "p1", evts[0].ProcessID)
}

func TestRetryProcessesSubProcessesBeforeRoot(t *testing.T) {
	eng, _, action := newRetryFixture()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddSubProcess("root", "sub2")
	eng.AddDeadLetterJob("root", "jroot")
	eng.AddDeadLetterJob("sub1", "jsub1")
	eng.AddDeadLetterJob("sub2", "jsub2")

	err := action.Execute(context.Background(), "alice", "root")
	require.NoError(t, err)

	assert.Equal(t, []string{"jsub2", "jsub1", "jroot"}, eng.MovedJobs,
		"retry must process the tree from the leaves up")
}

func TestRetrySkipsProcessesWithoutDeadLetterJobs(t *testing.T) {
	eng, events, action := newRetryFixture()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddDeadLetterJob("sub1", "jsub1")

	err := action.Execute(context.Background(), "alice", "root")
	require.NoError(t, err)

	assert.Equal(t, []string{"jsub1"}, eng.MovedJobs)
	evts, err := events.ProcessEvents(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, evts, 1)
}

func TestRetrySwallowsJobMoveFailures(t *testing.T) {
	eng, events, action := newRetryFixture()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddDeadLetterJob("root", "jroot")
	eng.AddDeadLetterJob("sub1", "jsub1")
	eng.MoveJobErr["jsub1"] = errors.New("job executor is busy")

	err := action.Execute(context.Background(), "alice", "root")
	require.NoError(t, err, "a failed job move must not fail the retry")

	assert.Equal(t, []string{"jroot"}, eng.MovedJobs)
	evts, err := events.ProcessEvents(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, evts, 1, "the retry still counts as submitted")
}
