package model

// ProcessInstance is the runtime's view of a root or sub-process.
type ProcessInstance struct {
	ID        string `json:"id"`
	Suspended bool   `json:"suspended"`
}

// Execution is a single runtime execution within a process tree.  An
// execution may be parked at a receive task, a named wait point that needs
// an external trigger before the process can continue.
type Execution struct {
	ID                string `json:"id"`
	ProcessInstanceID string `json:"processInstanceId"`
	ActivityID        string `json:"activityId,omitempty"`
	AtReceiveTask     bool   `json:"atReceiveTask"`
}

// DeadLetterJob is a unit of work the runtime gave up retrying after
// exhausting its internal retry budget.
type DeadLetterJob struct {
	ID                string `json:"id"`
	ProcessInstanceID string `json:"processInstanceId"`
	ExceptionMessage  string `json:"exceptionMessage,omitempty"`
}
