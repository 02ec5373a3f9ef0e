package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/ksuid"
	"gitlab.com/mta-deploy/deployctl/common/logx"
	"gitlab.com/mta-deploy/deployctl/messages"
	"gitlab.com/mta-deploy/deployctl/model"
)

// wire error codes returned by the runtime bridge.
const (
	codeOptimisticLock = "OPTIMISTIC_LOCK"
	codeNotFound       = "NOT_FOUND"
)

type envelope struct {
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type processRequest struct {
	ProcessID string `json:"processId"`
	Reason    string `json:"reason,omitempty"`
}

type variableRequest struct {
	ProcessID string `json:"processId"`
	Name      string `json:"name"`
	Value     string `json:"value,omitempty"`
}

type triggerRequest struct {
	ExecutionID string            `json:"executionId"`
	Variables   map[string]string `json:"variables,omitempty"`
}

type jobRequest struct {
	JobID   string `json:"jobId"`
	Retries int    `json:"retries"`
}

// NatsGateway implements Gateway over NATS request/reply against the bridge
// in front of the workflow runtime.
type NatsGateway struct {
	conn        *nats.Conn
	callTimeout time.Duration
}

// NewNatsGateway constructs a gateway over an existing NATS connection.
func NewNatsGateway(conn *nats.Conn) *NatsGateway {
	return &NatsGateway{
		conn:        conn,
		callTimeout: time.Second * 60,
	}
}

func call[T any, U any](ctx context.Context, g *NatsGateway, subject string, req T, ret *U) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request for call API: %w", err)
	}
	msg := nats.NewMsg(subject)
	cid, ok := ctx.Value(logx.CorrelationContextKey).(string)
	if !ok {
		cid = ksuid.New().String()
	}
	msg.Header.Add(logx.CorrelationHeader, cid)
	msg.Data = b
	res, err := g.conn.RequestMsg(msg, g.callTimeout)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			err = fmt.Errorf("workflow runtime bridge is offline or missing from the current nats server")
		}
		return fmt.Errorf("API call: %w", err)
	}
	env := &envelope{}
	if err := json.Unmarshal(res.Data, env); err != nil {
		return fmt.Errorf("unmarshal response for call API: %w", err)
	}
	if env.Error != "" {
		switch env.Code {
		case codeOptimisticLock:
			return fmt.Errorf("%s: %w", env.Error, ErrOptimisticLock)
		case codeNotFound:
			return fmt.Errorf("%s: %w", env.Error, ErrNotFound)
		default:
			return fmt.Errorf("API call %s: %s", subject, env.Error)
		}
	}
	if ret != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ret); err != nil {
			return fmt.Errorf("unmarshal response data for call API: %w", err)
		}
	}
	return nil
}

// RootAndActiveSubProcessIDs returns the root process id followed by the active sub-process ids.
func (g *NatsGateway) RootAndActiveSubProcessIDs(ctx context.Context, correlationID string) ([]string, error) {
	var ids []string
	if err := call(ctx, g, messages.APIRootAndActiveSubProcesses, processRequest{ProcessID: correlationID}, &ids); err != nil {
		return nil, fmt.Errorf("get root and active sub process ids: %w", err)
	}
	return ids, nil
}

// ExecutionsAtReceiveTask returns the executions parked at a receive task.
func (g *NatsGateway) ExecutionsAtReceiveTask(ctx context.Context, processID string) ([]*model.Execution, error) {
	var execs []*model.Execution
	if err := call(ctx, g, messages.APIExecutionsAtReceiveTask, processRequest{ProcessID: processID}, &execs); err != nil {
		return nil, fmt.Errorf("get executions at receive task: %w", err)
	}
	return execs, nil
}

// DeadLetterJobs returns the dead-letter jobs for a process.
func (g *NatsGateway) DeadLetterJobs(ctx context.Context, processID string) ([]*model.DeadLetterJob, error) {
	var jobs []*model.DeadLetterJob
	if err := call(ctx, g, messages.APIDeadLetterJobs, processRequest{ProcessID: processID}, &jobs); err != nil {
		return nil, fmt.Errorf("get dead letter jobs: %w", err)
	}
	return jobs, nil
}

// MoveDeadLetterJobToExecutable requeues a dead-letter job for a single re-attempt.
func (g *NatsGateway) MoveDeadLetterJobToExecutable(ctx context.Context, jobID string) error {
	if err := call[jobRequest, struct{}](ctx, g, messages.APIMoveDeadLetterJob, jobRequest{JobID: jobID, Retries: 0}, nil); err != nil {
		return fmt.Errorf("move dead letter job to executable: %w", err)
	}
	return nil
}

// Variable reads a runtime variable.
func (g *NatsGateway) Variable(ctx context.Context, processID string, name string) (string, error) {
	var value string
	if err := call(ctx, g, messages.APIGetVariable, variableRequest{ProcessID: processID, Name: name}, &value); err != nil {
		return "", fmt.Errorf("get variable %s: %w", name, err)
	}
	return value, nil
}

// SetVariable writes a runtime variable.
func (g *NatsGateway) SetVariable(ctx context.Context, processID string, name string, value string) error {
	if err := call[variableRequest, struct{}](ctx, g, messages.APISetVariable, variableRequest{ProcessID: processID, Name: name, Value: value}, nil); err != nil {
		return fmt.Errorf("set variable %s: %w", name, err)
	}
	return nil
}

// Trigger resumes an execution parked at a receive task.
func (g *NatsGateway) Trigger(ctx context.Context, executionID string, vars map[string]string) error {
	if err := call[triggerRequest, struct{}](ctx, g, messages.APITrigger, triggerRequest{ExecutionID: executionID, Variables: vars}, nil); err != nil {
		return fmt.Errorf("trigger execution: %w", err)
	}
	return nil
}

// ProcessInstance fetches the runtime view of a process instance.
func (g *NatsGateway) ProcessInstance(ctx context.Context, processID string) (*model.ProcessInstance, error) {
	pi := &model.ProcessInstance{}
	if err := call(ctx, g, messages.APIGetProcessInstance, processRequest{ProcessID: processID}, pi); err != nil {
		return nil, fmt.Errorf("get process instance: %w", err)
	}
	return pi, nil
}

// IsSuspended reports whether a process instance is suspended.
func (g *NatsGateway) IsSuspended(ctx context.Context, processID string) (bool, error) {
	pi, err := g.ProcessInstance(ctx, processID)
	if err != nil {
		return false, fmt.Errorf("query suspension state: %w", err)
	}
	return pi.Suspended, nil
}

// Suspend pauses a process instance.
func (g *NatsGateway) Suspend(ctx context.Context, processID string) error {
	if err := call[processRequest, struct{}](ctx, g, messages.APISuspendProcessInstance, processRequest{ProcessID: processID}, nil); err != nil {
		return fmt.Errorf("suspend process instance: %w", err)
	}
	return nil
}

// Activate reverses a suspension.
func (g *NatsGateway) Activate(ctx context.Context, processID string) error {
	if err := call[processRequest, struct{}](ctx, g, messages.APIActivateProcessInstance, processRequest{ProcessID: processID}, nil); err != nil {
		return fmt.Errorf("activate process instance: %w", err)
	}
	return nil
}

// Delete removes a process instance with a deletion reason.
func (g *NatsGateway) Delete(ctx context.Context, processID string, reason string) error {
	if err := call[processRequest, struct{}](ctx, g, messages.APIDeleteProcessInstance, processRequest{ProcessID: processID, Reason: reason}, nil); err != nil {
		return fmt.Errorf("delete process instance: %w", err)
	}
	return nil
}

// ExecutionIDsUnderRoot returns every execution id in the process tree.
func (g *NatsGateway) ExecutionIDsUnderRoot(ctx context.Context, processID string) ([]string, error) {
	var execs []*model.Execution
	if err := call(ctx, g, messages.APIExecutionsUnderRoot, processRequest{ProcessID: processID}, &execs); err != nil {
		return nil, fmt.Errorf("get executions under root: %w", err)
	}
	ids := make([]string, 0, len(execs))
	for _, e := range execs {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// DeadLetterJobIDsForProcessTree returns the dead-letter job ids aggregated
// over the owning process of every execution in the tree.
func (g *NatsGateway) DeadLetterJobIDsForProcessTree(ctx context.Context, processID string) (map[string]struct{}, error) {
	var jobs []*model.DeadLetterJob
	if err := call(ctx, g, messages.APIDeadLetterJobsForTree, processRequest{ProcessID: processID}, &jobs); err != nil {
		return nil, fmt.Errorf("get dead letter jobs for tree: %w", err)
	}
	ids := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		ids[j.ID] = struct{}{}
	}
	return ids, nil
}
