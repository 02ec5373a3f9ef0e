package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/mta-deploy/deployctl/common/logx"
	"gitlab.com/mta-deploy/deployctl/engine"
	"gitlab.com/mta-deploy/deployctl/model"
	"gitlab.com/mta-deploy/deployctl/storage"
)

// ErrAbortTimedOut is returned when the pre-abort variable write keeps
// conflicting past its deadline.  The operation is left unchanged and the
// operator must retry the abort.
var ErrAbortTimedOut = errors.New("abort timed out setting the abort variable")

// DeleteReasonAborted tags the deleted process instance.
const DeleteReasonAborted = "ABORTED"

// AbortAction force-terminates a process tree, including sub-processes,
// whether idle, running, or partially failed.  It converges on a deleted
// process instance by steering the tree into an all-processes-failed state
// through the PROCESS_ABORTED variable, then polling until the tree is safe
// to delete.
type AbortAction struct {
	gateway engine.Gateway
	events  storage.HistoricEventStore

	// SetVariableDeadline bounds the optimistic-locking retry loop on the
	// abort variable write.
	SetVariableDeadline time.Duration
	// PollInterval paces the unbounded readiness poll.
	PollInterval time.Duration
}

// NewAbortAction constructs the abort action with its default timings.
func NewAbortAction(gateway engine.Gateway, events storage.HistoricEventStore) *AbortAction {
	return &AbortAction{
		gateway:             gateway,
		events:              events,
		SetVariableDeadline: time.Second * 30,
		PollInterval:        time.Second,
	}
}

// ID returns the stable action identifier.
func (a *AbortAction) ID() string {
	return ActionAbort
}

// Execute aborts the process tree rooted at processID.
func (a *AbortAction) Execute(ctx context.Context, _ string, processID string) error {
	ctx, log := logx.ContextWith(ctx, "action.abort")

	// A suspended instance cannot be mutated or deleted cleanly.
	suspended, err := a.gateway.IsSuspended(ctx, processID)
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return fmt.Errorf("query suspension before abort: %w", err)
	}
	if suspended {
		if err := a.gateway.Activate(ctx, processID); err != nil {
			return fmt.Errorf("activate suspended process before abort: %w", err)
		}
	}

	if err := a.setAbortVariable(ctx, processID); err != nil {
		return err
	}

	for !a.readyForDeletion(ctx, processID) {
		time.Sleep(a.PollInterval)
	}

	if err := a.gateway.Delete(ctx, processID, DeleteReasonAborted); err != nil {
		return fmt.Errorf("delete aborted process instance: %w", err)
	}
	if err := a.events.Append(ctx, &model.HistoricOperationEvent{
		ProcessID: processID,
		Type:      model.EventAborted,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("append aborted event: %w", err)
	}
	log.Info("process instance aborted", slog.String("processId", processID))
	return nil
}

// setAbortVariable writes PROCESS_ABORTED, retrying immediately on
// optimistic locking conflicts until the deadline.  Other engine workers
// write to the same execution concurrently, so conflicts here are routine.
func (a *AbortAction) setAbortVariable(ctx context.Context, processID string) error {
	log := logx.FromContext(ctx)
	deadline := time.Now().Add(a.SetVariableDeadline)
	for {
		err := a.gateway.SetVariable(ctx, processID, engine.VarProcessAborted, "true")
		if err == nil {
			return nil
		}
		if !errors.Is(err, engine.ErrOptimisticLock) {
			return fmt.Errorf("set abort variable: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("set abort variable on %s: %w", processID, ErrAbortTimedOut)
		}
		log.Debug("conflict setting abort variable, retrying", slog.String("processId", processID))
	}
}

// readyForDeletion decides whether the tree can be torn down.  Only
// persisted, engine-visible signals count: the poll observes the same
// shared store the runtime's workers mutate.
func (a *AbortAction) readyForDeletion(ctx context.Context, processID string) bool {
	log := logx.FromContext(ctx)

	// A missing instance is mid-transition or already gone; deleting now
	// could tear down a tree another actor is still moving.
	if _, err := a.gateway.ProcessInstance(ctx, processID); err != nil {
		if !errors.Is(err, engine.ErrNotFound) {
			log.Warn("check process instance for abort readiness", slog.Any("error", err))
		}
		return false
	}

	// A process parked at a receive task is legitimately waiting on a human
	// action; the PROCESS_ABORTED flag's own workflow handling must be
	// allowed to move it to a dead-letter state instead.
	ids, err := a.gateway.RootAndActiveSubProcessIDs(ctx, processID)
	if err != nil {
		log.Warn("list process tree for abort readiness", slog.Any("error", err))
		return false
	}
	for _, id := range ids {
		execs, err := a.gateway.ExecutionsAtReceiveTask(ctx, id)
		if err != nil {
			log.Warn("list receive task executions for abort readiness", slog.Any("error", err))
			return false
		}
		if len(execs) > 0 {
			return false
		}
	}

	execIDs, err := a.gateway.ExecutionIDsUnderRoot(ctx, processID)
	if err != nil {
		log.Warn("list executions for abort readiness", slog.Any("error", err))
		return false
	}
	jobIDs, err := a.gateway.DeadLetterJobIDsForProcessTree(ctx, processID)
	if err != nil {
		log.Warn("list dead letter jobs for abort readiness", slog.Any("error", err))
		return false
	}
	return allProcessesFailed(len(execIDs), len(jobIDs))
}

// allProcessesFailed is the readiness rule.  With no sub-processes the
// single execution must have dead-lettered; with sub-processes every one of
// them must have, while the root's own bookkeeping execution contributes no
// dead-letter job.
func allProcessesFailed(executions int, deadLetterJobs int) bool {
	if executions == 1 {
		return deadLetterJobs == 1
	}
	if executions > 1 {
		return deadLetterJobs == executions-1
	}
	return false
}
