package process

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.com/mta-deploy/deployctl/common/logx"
	"gitlab.com/mta-deploy/deployctl/engine"
)

// ResumeAction unblocks a process waiting on a manual decision by
// triggering every execution parked at a receive task.  It never touches
// dead-letter jobs and never deletes anything.
type ResumeAction struct {
	gateway engine.Gateway
}

// NewResumeAction constructs the resume action.
func NewResumeAction(gateway engine.Gateway) *ResumeAction {
	return &ResumeAction{gateway: gateway}
}

// ID returns the stable action identifier.
func (a *ResumeAction) ID() string {
	return ActionResume
}

// Execute resumes the process tree rooted at processID.  Tree members with
// no receive-task execution are skipped; they are not awaiting manual
// input even if otherwise active.
func (a *ResumeAction) Execute(ctx context.Context, user string, processID string) error {
	ctx, log := logx.ContextWith(ctx, "action.resume")

	ids, err := a.gateway.RootAndActiveSubProcessIDs(ctx, processID)
	if err != nil {
		return fmt.Errorf("resolve process tree for resume: %w", err)
	}
	for _, id := range ids {
		execs, err := a.gateway.ExecutionsAtReceiveTask(ctx, id)
		if err != nil {
			return fmt.Errorf("list executions at receive task: %w", err)
		}
		for _, exec := range execs {
			if err := a.gateway.Trigger(ctx, exec.ID, map[string]string{engine.VarUser: user}); err != nil {
				return fmt.Errorf("trigger execution %s: %w", exec.ID, err)
			}
			log.Info("triggered receive task execution",
				slog.String("processId", id),
				slog.String("executionId", exec.ID),
			)
		}
	}
	return nil
}
