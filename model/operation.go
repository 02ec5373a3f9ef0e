package model

import (
	"fmt"
	"strings"
	"time"
)

// State describes the externally observable lifecycle state of an Operation.
type State string

const (
	StateRunning        State = "RUNNING"
	StateError          State = "ERROR"
	StateActionRequired State = "ACTION_REQUIRED"
	StateFinished       State = "FINISHED"
	StateAborted        State = "ABORTED"
)

// ActiveStates contains every state an in-flight operation can be observed in.
var ActiveStates = []State{StateRunning, StateError, StateActionRequired}

// FinalStates contains the terminal states.  A terminal operation never re-enters an active state.
var FinalStates = []State{StateFinished, StateAborted}

// IsFinal returns true for terminal states.
func (s State) IsFinal() bool {
	return s == StateFinished || s == StateAborted
}

// IsActive returns true for non-terminal states.
func (s State) IsActive() bool {
	return s == StateRunning || s == StateError || s == StateActionRequired
}

// ProcessType tags the kind of deployment an operation performs.  It is an
// open set: consumers register new types without changes here.
type ProcessType string

const (
	ProcessTypeDeploy          ProcessType = "DEPLOY"
	ProcessTypeBlueGreenDeploy ProcessType = "BLUE_GREEN_DEPLOY"
	ProcessTypeUndeploy        ProcessType = "UNDEPLOY"
)

// Validate checks that the tag is usable as a process type.
func (p ProcessType) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("validate process type: %w", ErrEmptyProcessType)
	}
	return nil
}

// MessageType classifies a progress message attached to an operation.
type MessageType string

const (
	MessageInfo        MessageType = "INFO"
	MessageError       MessageType = "ERROR"
	MessageWarning     MessageType = "WARNING"
	MessageTaskStartup MessageType = "TASK_STARTUP"
)

// Message is a single ordered progress log entry for user display.
type Message struct {
	ID        int64       `json:"id"`
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// Operation is the persisted record of one deployment attempt.  Its process
// id is 1:1 with a root process instance in the workflow runtime.
type Operation struct {
	ProcessID    string      `json:"processId"`
	ProcessType  ProcessType `json:"processType"`
	SpaceID      string      `json:"spaceId"`
	MtaID        string      `json:"mtaId"`
	User         string      `json:"user"`
	AcquiredLock bool        `json:"acquiredLock"`
	State        State       `json:"state"`
	Messages     []Message   `json:"messages,omitempty"`
	StartedAt    time.Time   `json:"startedAt"`
	EndedAt      *time.Time  `json:"endedAt,omitempty"`
}

// IsFinal reports whether the operation has reached a terminal state.
func (o *Operation) IsFinal() bool {
	return o.State.IsFinal()
}
