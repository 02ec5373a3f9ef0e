// Package fake provides a fully in-memory workflow runtime for tests.  It
// records every mutating call so tests can assert ordering and selectivity.
package fake

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/mta-deploy/deployctl/engine"
	"gitlab.com/mta-deploy/deployctl/model"
)

// Trigger records a single receive-task trigger call.
type Trigger struct {
	ExecutionID string
	Variables   map[string]string
}

// Deletion records a process instance deletion.
type Deletion struct {
	ProcessID string
	Reason    string
}

type process struct {
	id            string
	correlationID string
	rootID        string
	suspended     bool
	active        bool
	variables     map[string]string
	executions    []*model.Execution
	jobs          []*model.DeadLetterJob
}

// Engine is an in-memory engine.Gateway.  Zero value is not usable, construct with New.
type Engine struct {
	mu            sync.Mutex
	processes     map[string]*process
	byCorrelation map[string][]string

	// SetVariableConflicts injects this many optimistic locking conflicts
	// before SetVariable succeeds.
	SetVariableConflicts int
	// MoveJobErr injects a failure for moving a specific dead-letter job.
	MoveJobErr map[string]error

	MovedJobs []string
	Triggered []Trigger
	Deleted   []Deletion
	Activated []string
	Suspended []string
}

// New constructs an empty fake runtime.
func New() *Engine {
	return &Engine{
		processes:     make(map[string]*process),
		byCorrelation: make(map[string][]string),
		MoveJobErr:    make(map[string]error),
	}
}

var _ engine.Gateway = (*Engine)(nil)

// AddRootProcess registers a root process instance.  Its correlation id is
// its own process id, mirroring how the runtime links a tree together.
func (e *Engine) AddRootProcess(processID string) {
	e.addProcess(processID, processID, processID)
}

// AddSubProcess registers an active sub-process under a root, in discovery order.
func (e *Engine) AddSubProcess(rootID string, processID string) {
	e.addProcess(processID, rootID, rootID)
}

func (e *Engine) addProcess(id string, correlationID string, rootID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processes[id] = &process{
		id:            id,
		correlationID: correlationID,
		rootID:        rootID,
		active:        true,
		variables:     make(map[string]string),
	}
	e.byCorrelation[correlationID] = append(e.byCorrelation[correlationID], id)
}

// AddExecution attaches an execution to a process.
func (e *Engine) AddExecution(processID string, executionID string, atReceiveTask bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.processes[processID]
	p.executions = append(p.executions, &model.Execution{
		ID:                executionID,
		ProcessInstanceID: processID,
		AtReceiveTask:     atReceiveTask,
	})
}

// AddDeadLetterJob attaches a dead-letter job to a process.
func (e *Engine) AddDeadLetterJob(processID string, jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.processes[processID]
	p.jobs = append(p.jobs, &model.DeadLetterJob{ID: jobID, ProcessInstanceID: processID})
}

// SetActive marks a sub-process as still running or terminally complete.
func (e *Engine) SetActive(processID string, active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processes[processID].active = active
}

// SetSuspended marks a process suspended or active.
func (e *Engine) SetSuspended(processID string, suspended bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processes[processID].suspended = suspended
}

// RemoveProcess drops a process instance as if a concurrent actor deleted it.
func (e *Engine) RemoveProcess(processID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(processID)
}

func (e *Engine) removeLocked(processID string) {
	p, ok := e.processes[processID]
	if !ok {
		return
	}
	delete(e.processes, processID)
	ids := e.byCorrelation[p.correlationID]
	for i, id := range ids {
		if id == processID {
			e.byCorrelation[p.correlationID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// Variables returns a copy of a process's runtime variables.
func (e *Engine) Variables(processID string) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string)
	if p, ok := e.processes[processID]; ok {
		for k, v := range p.variables {
			out[k] = v
		}
	}
	return out
}

// RootAndActiveSubProcessIDs returns the root id first then active sub-process ids in discovery order.
func (e *Engine) RootAndActiveSubProcessIDs(_ context.Context, correlationID string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, id := range e.byCorrelation[correlationID] {
		p := e.processes[id]
		if p.id == correlationID || p.active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ExecutionsAtReceiveTask returns the executions parked at receive tasks.
func (e *Engine) ExecutionsAtReceiveTask(_ context.Context, processID string) ([]*model.Execution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return nil, nil
	}
	var execs []*model.Execution
	for _, ex := range p.executions {
		if ex.AtReceiveTask {
			execs = append(execs, ex)
		}
	}
	return execs, nil
}

// DeadLetterJobs returns the dead-letter jobs for a process.
func (e *Engine) DeadLetterJobs(_ context.Context, processID string) ([]*model.DeadLetterJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return nil, nil
	}
	jobs := make([]*model.DeadLetterJob, len(p.jobs))
	copy(jobs, p.jobs)
	return jobs, nil
}

// MoveDeadLetterJobToExecutable requeues a dead-letter job.
func (e *Engine) MoveDeadLetterJobToExecutable(_ context.Context, jobID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.MoveJobErr[jobID]; ok {
		return err
	}
	for _, p := range e.processes {
		for i, j := range p.jobs {
			if j.ID == jobID {
				p.jobs = append(p.jobs[:i], p.jobs[i+1:]...)
				e.MovedJobs = append(e.MovedJobs, jobID)
				return nil
			}
		}
	}
	return fmt.Errorf("dead letter job %s: %w", jobID, engine.ErrNotFound)
}

// Variable reads a runtime variable.
func (e *Engine) Variable(_ context.Context, processID string, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return "", fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	return p.variables[name], nil
}

// SetVariable writes a runtime variable, injecting conflicts when configured.
func (e *Engine) SetVariable(_ context.Context, processID string, name string, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SetVariableConflicts != 0 {
		if e.SetVariableConflicts > 0 {
			e.SetVariableConflicts--
		}
		return fmt.Errorf("set variable %s: %w", name, engine.ErrOptimisticLock)
	}
	p, ok := e.processes[processID]
	if !ok {
		return fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	p.variables[name] = value
	return nil
}

// Trigger records the trigger and unparks the execution.
func (e *Engine) Trigger(_ context.Context, executionID string, vars map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.processes {
		for _, ex := range p.executions {
			if ex.ID == executionID {
				if !ex.AtReceiveTask {
					return fmt.Errorf("execution %s is not at a receive task", executionID)
				}
				ex.AtReceiveTask = false
				e.Triggered = append(e.Triggered, Trigger{ExecutionID: executionID, Variables: vars})
				return nil
			}
		}
	}
	return fmt.Errorf("execution %s: %w", executionID, engine.ErrNotFound)
}

// ProcessInstance returns the runtime view of a process instance.
func (e *Engine) ProcessInstance(_ context.Context, processID string) (*model.ProcessInstance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return nil, fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	return &model.ProcessInstance{ID: p.id, Suspended: p.suspended}, nil
}

// IsSuspended reports whether a process instance is suspended.
func (e *Engine) IsSuspended(_ context.Context, processID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return false, fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	return p.suspended, nil
}

// Suspend pauses a process instance.
func (e *Engine) Suspend(_ context.Context, processID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	p.suspended = true
	e.Suspended = append(e.Suspended, processID)
	return nil
}

// Activate reverses a suspension.
func (e *Engine) Activate(_ context.Context, processID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	p.suspended = false
	e.Activated = append(e.Activated, processID)
	return nil
}

// Delete removes a process instance and its sub-processes.
func (e *Engine) Delete(_ context.Context, processID string, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processes[processID]
	if !ok {
		return fmt.Errorf("process %s: %w", processID, engine.ErrNotFound)
	}
	for _, id := range append([]string{}, e.byCorrelation[p.correlationID]...) {
		if e.processes[id] != nil && e.processes[id].rootID == processID {
			e.removeLocked(id)
		}
	}
	e.removeLocked(processID)
	e.Deleted = append(e.Deleted, Deletion{ProcessID: processID, Reason: reason})
	return nil
}

// ExecutionIDsUnderRoot returns every execution id in the tree rooted at processID.
func (e *Engine) ExecutionIDsUnderRoot(_ context.Context, processID string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, pid := range e.treeLocked(processID) {
		for _, ex := range e.processes[pid].executions {
			ids = append(ids, ex.ID)
		}
	}
	return ids, nil
}

// DeadLetterJobIDsForProcessTree returns the dead-letter job ids aggregated over the tree.
func (e *Engine) DeadLetterJobIDsForProcessTree(_ context.Context, processID string) (map[string]struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make(map[string]struct{})
	for _, pid := range e.treeLocked(processID) {
		for _, j := range e.processes[pid].jobs {
			ids[j.ID] = struct{}{}
		}
	}
	return ids, nil
}

func (e *Engine) treeLocked(rootID string) []string {
	root, ok := e.processes[rootID]
	if !ok {
		return nil
	}
	var pids []string
	for _, id := range e.byCorrelation[root.correlationID] {
		if e.processes[id].rootID == rootID {
			pids = append(pids, id)
		}
	}
	return pids
}
