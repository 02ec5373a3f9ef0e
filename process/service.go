package process

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.com/mta-deploy/deployctl/common/logx"
	"gitlab.com/mta-deploy/deployctl/common/version"
	"gitlab.com/mta-deploy/deployctl/engine"
	"gitlab.com/mta-deploy/deployctl/model"
	"gitlab.com/mta-deploy/deployctl/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Service dispatches process actions.  Hooks and actions are resolved into
// explicit maps at construction time.
type Service struct {
	gateway     engine.Gateway
	operations  storage.OperationStore
	events      storage.HistoricEventStore
	clientCache ClientReleaser
	actions     map[string]Action
	hooks       map[string][]AdditionalAction
	tr          trace.Tracer
}

// NewService constructs the action dispatch service with the three built-in
// actions and the supplied pre-action hooks.
func NewService(gateway engine.Gateway, operations storage.OperationStore, events storage.HistoricEventStore, clientCache ClientReleaser, hooks ...AdditionalAction) *Service {
	s := &Service{
		gateway:     gateway,
		operations:  operations,
		events:      events,
		clientCache: clientCache,
		actions:     make(map[string]Action),
		hooks:       make(map[string][]AdditionalAction),
		tr:          otel.GetTracerProvider().Tracer("deployctl", trace.WithInstrumentationVersion(version.Version)),
	}
	for _, a := range []Action{
		NewAbortAction(gateway, events),
		NewRetryAction(gateway, events),
		NewResumeAction(gateway),
	} {
		s.actions[a.ID()] = a
	}
	for _, h := range hooks {
		s.hooks[h.ActionID()] = append(s.hooks[h.ActionID()], h)
	}
	return s
}

// Register replaces the action registered under its id.  Used by tests and
// by consumers that extend the action set.
func (s *Service) Register(a Action) {
	s.actions[a.ID()] = a
}

// Execute runs the named action on behalf of user against processID.  It
// runs the applicable pre-action hooks first, then reassigns process
// ownership if the acting user differs from the process's current user
// variable, and finally invokes the action body.
func (s *Service) Execute(ctx context.Context, actionID string, user string, processID string) error {
	ctx, span := s.tr.Start(ctx, "action."+actionID)
	defer span.End()
	ctx, log := logx.ContextWith(ctx, "process.execute")

	action, ok := s.actions[actionID]
	if !ok {
		return fmt.Errorf("execute action %q: %w", actionID, ErrUnknownAction)
	}
	for _, h := range s.hooks[actionID] {
		if err := h.Execute(ctx, processID); err != nil {
			return fmt.Errorf("pre-action hook for %q: %w", actionID, err)
		}
	}
	if err := s.reassignUser(ctx, user, processID); err != nil {
		return fmt.Errorf("reassign process user: %w", err)
	}
	log.Info("executing process action",
		slog.String("action", actionID),
		slog.String("user", user),
		slog.String("processId", processID),
	)
	if err := action.Execute(ctx, user, processID); err != nil {
		return fmt.Errorf("execute action %q: %w", actionID, err)
	}
	return nil
}

// reassignUser hands the process over to the acting user.  The cached
// deploy client of the previous owner must be released before the action
// body touches any per-user resource.
func (s *Service) reassignUser(ctx context.Context, user string, processID string) error {
	current, err := s.gateway.Variable(ctx, processID, engine.VarUser)
	if err != nil {
		return fmt.Errorf("get process user variable: %w", err)
	}
	if current == user {
		return nil
	}
	if current != "" {
		s.clientCache.Release(current, processID)
	}
	if err := s.gateway.SetVariable(ctx, processID, engine.VarUser, user); err != nil {
		return fmt.Errorf("set process user variable: %w", err)
	}
	return nil
}

// AvailableActions lists the action ids applicable to the operation's
// current state.  Terminal operations have none.
func (s *Service) AvailableActions(ctx context.Context, processID string) ([]string, error) {
	op, err := s.operations.Get(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("get operation for action listing: %w", err)
	}
	switch op.State {
	case model.StateRunning:
		return []string{ActionAbort}, nil
	case model.StateError:
		return []string{ActionAbort, ActionRetry}, nil
	case model.StateActionRequired:
		return []string{ActionAbort, ActionResume}, nil
	default:
		return []string{}, nil
	}
}
