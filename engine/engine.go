// Package engine defines the gateway through which the control plane talks
// to the external workflow runtime.  The runtime executes deployment steps
// asynchronously on its own worker pool, possibly on other service
// instances, against the same persisted store; every call here is a round
// trip to that shared store and both conflict and not-found outcomes are
// ordinary conditions, not defects.
package engine

import (
	"context"
	"errors"

	"gitlab.com/mta-deploy/deployctl/model"
)

var (
	// ErrOptimisticLock signals that another writer mutated the same
	// execution concurrently.  Callers retry or tolerate it.
	ErrOptimisticLock = errors.New("optimistic locking conflict")
	// ErrNotFound signals that the process instance is already gone.
	ErrNotFound = errors.New("process instance not found")
)

// Well known runtime variable names.
const (
	VarProcessAborted = "PROCESS_ABORTED" // VarProcessAborted makes the process definition route to its abort handling.
	VarUser           = "user"            // VarUser holds the user driving the process.
	VarCorrelationID  = "correlationId"   // VarCorrelationID links sub-processes to their root.
)

// Gateway is the sole translation layer between the control plane and the
// workflow runtime.
//
//go:generate mockery
type Gateway interface {
	// RootAndActiveSubProcessIDs returns the root process id first, then
	// every sub-process id that has not reached a terminal runtime marker,
	// in runtime discovery order.
	RootAndActiveSubProcessIDs(ctx context.Context, correlationID string) ([]string, error)
	// ExecutionsAtReceiveTask returns the executions currently parked
	// waiting for an external trigger.
	ExecutionsAtReceiveTask(ctx context.Context, processID string) ([]*model.Execution, error)
	// DeadLetterJobs returns the dead-letter jobs belonging to a process.
	DeadLetterJobs(ctx context.Context, processID string) ([]*model.DeadLetterJob, error)
	// MoveDeadLetterJobToExecutable requeues a dead-letter job with zero
	// additional retries, a single re-attempt.
	MoveDeadLetterJobToExecutable(ctx context.Context, jobID string) error
	// Variable reads a runtime variable from a process instance.
	Variable(ctx context.Context, processID string, name string) (string, error)
	// SetVariable writes a runtime variable.  It may fail with
	// ErrOptimisticLock when a concurrent writer got there first.
	SetVariable(ctx context.Context, processID string, name string, value string) error
	// Trigger resumes an execution parked at a receive task.
	Trigger(ctx context.Context, executionID string, vars map[string]string) error
	// ProcessInstance fetches the runtime view of a process instance.  It
	// fails with ErrNotFound if the instance no longer exists.
	ProcessInstance(ctx context.Context, processID string) (*model.ProcessInstance, error)
	// IsSuspended reports whether a process instance is suspended.
	IsSuspended(ctx context.Context, processID string) (bool, error)
	// Suspend pauses a process instance.
	Suspend(ctx context.Context, processID string) error
	// Activate reverses a suspension.
	Activate(ctx context.Context, processID string) error
	// Delete removes a process instance, recording a deletion reason.
	Delete(ctx context.Context, processID string, reason string) error
	// ExecutionIDsUnderRoot returns the ids of every execution in the
	// process tree rooted at processID.
	ExecutionIDsUnderRoot(ctx context.Context, processID string) ([]string, error)
	// DeadLetterJobIDsForProcessTree returns the set of dead-letter job ids
	// aggregated over the owning process id of every execution in the tree.
	DeadLetterJobIDsForProcessTree(ctx context.Context, processID string) (map[string]struct{}, error)
}
