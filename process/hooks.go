package process

import (
	"context"
	"fmt"

	"gitlab.com/mta-deploy/deployctl/model"
	"gitlab.com/mta-deploy/deployctl/storage"
)

// ClearErrorMessagesAction is a pre-retry hook that removes stale
// error-type progress messages from the operation record, so the retried
// run reports its own errors instead of the previous attempt's.
type ClearErrorMessagesAction struct {
	operations storage.OperationStore
}

// NewClearErrorMessagesAction constructs the hook.
func NewClearErrorMessagesAction(operations storage.OperationStore) *ClearErrorMessagesAction {
	return &ClearErrorMessagesAction{operations: operations}
}

// ActionID names the action this hook applies to.
func (h *ClearErrorMessagesAction) ActionID() string {
	return ActionRetry
}

// Execute drops error messages from the operation's progress log.
func (h *ClearErrorMessagesAction) Execute(ctx context.Context, processID string) error {
	op, err := h.operations.Get(ctx, processID)
	if err != nil {
		return fmt.Errorf("get operation for message cleanup: %w", err)
	}
	kept := make([]model.Message, 0, len(op.Messages))
	for _, m := range op.Messages {
		if m.Type != model.MessageError {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(op.Messages) {
		return nil
	}
	op.Messages = kept
	if err := h.operations.Update(ctx, op); err != nil {
		return fmt.Errorf("update operation after message cleanup: %w", err)
	}
	return nil
}
