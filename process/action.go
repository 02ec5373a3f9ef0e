// Package process contains the corrective actions an operator can take
// against an in-flight deployment operation, and the dispatch framework
// that invokes them.  The acting goroutine never holds exclusive state: the
// workflow runtime's own workers, possibly on other service instances,
// mutate the same persisted process tree concurrently, so every algorithm
// here works only from engine-visible signals.
package process

import (
	"context"
	"errors"
)

// Stable identifiers for the corrective actions.  They key both hook
// registration and the external action listing.
const (
	ActionAbort  = "abort"
	ActionRetry  = "retry"
	ActionResume = "resume"
)

// ErrUnknownAction is returned when no action is registered for an id.
var ErrUnknownAction = errors.New("unknown action")

// Action is a corrective operation against a process tree.
type Action interface {
	// ID returns the stable action identifier.
	ID() string
	// Execute runs the action body on behalf of user against the process
	// tree rooted at processID.
	Execute(ctx context.Context, user string, processID string) error
}

// AdditionalAction is a pre-action hook registered against a specific
// action id.  Hooks run in registration order before the action body; a
// hook failure aborts the whole invocation.
type AdditionalAction interface {
	// ActionID names the action this hook applies to.
	ActionID() string
	// Execute runs the hook.
	Execute(ctx context.Context, processID string) error
}

// ClientReleaser invalidates the cached downstream deploy client bound to a
// (user, process) pair.
type ClientReleaser interface {
	Release(user string, processID string)
}
