package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/mta-deploy/deployctl/common/logx"
	"gitlab.com/mta-deploy/deployctl/engine"
	"gitlab.com/mta-deploy/deployctl/model"
	"gitlab.com/mta-deploy/deployctl/storage"
)

// RetryAction re-queues every dead-lettered unit of work in the tree
// without re-running steps that already succeeded.  Sub-processes are
// retried strictly before the root: the root's own progress depends on
// sub-process completion, so a parent must never race ahead of its
// children.
type RetryAction struct {
	gateway engine.Gateway
	events  storage.HistoricEventStore
}

// NewRetryAction constructs the retry action.
func NewRetryAction(gateway engine.Gateway, events storage.HistoricEventStore) *RetryAction {
	return &RetryAction{gateway: gateway, events: events}
}

// ID returns the stable action identifier.
func (a *RetryAction) ID() string {
	return ActionRetry
}

// Execute retries the process tree rooted at processID.  Per-process
// failures are logged, never propagated: whether a retried step ultimately
// succeeds is observed later through the runtime's own error reporting.
func (a *RetryAction) Execute(ctx context.Context, _ string, processID string) error {
	ctx, log := logx.ContextWith(ctx, "action.retry")

	ids, err := a.gateway.RootAndActiveSubProcessIDs(ctx, processID)
	if err != nil {
		return fmt.Errorf("resolve process tree for retry: %w", err)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		a.retrySafely(ctx, log, ids[i])
	}
	if err := a.events.Append(ctx, &model.HistoricOperationEvent{
		ProcessID: processID,
		Type:      model.EventRetried,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("append retried event: %w", err)
	}
	return nil
}

func (a *RetryAction) retrySafely(ctx context.Context, log *slog.Logger, processID string) {
	jobs, err := a.gateway.DeadLetterJobs(ctx, processID)
	if err != nil {
		log.Error("fetch dead letter jobs for retry", slog.String("processId", processID), slog.Any("error", err))
		return
	}
	if len(jobs) == 0 {
		log.Info("no dead letter jobs to retry", slog.String("processId", processID))
		return
	}
	for _, job := range jobs {
		// Zero additional retries: a single re-attempt.
		if err := a.gateway.MoveDeadLetterJobToExecutable(ctx, job.ID); err != nil {
			log.Error("move dead letter job to executable",
				slog.String("processId", processID),
				slog.String("jobId", job.ID),
				slog.Any("error", err),
			)
		}
	}
}
