package storage

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/mta-deploy/deployctl/model"
)

// MemOperationStore is an in-memory OperationStore for tests.
type MemOperationStore struct {
	mu  sync.Mutex
	ops map[string]*model.Operation
}

// NewMemOperationStore constructs an empty in-memory operation store.
func NewMemOperationStore() *MemOperationStore {
	return &MemOperationStore{ops: make(map[string]*model.Operation)}
}

// Get fetches one operation by process id.
func (s *MemOperationStore) Get(_ context.Context, processID string) (*model.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[processID]
	if !ok {
		return nil, fmt.Errorf("get operation %s: %w", processID, ErrOperationNotFound)
	}
	cp := *op
	return &cp, nil
}

// List returns the operations matching the filter.
func (s *MemOperationStore) List(_ context.Context, filter Filter) ([]*model.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Operation
	for _, op := range s.ops {
		if filter.Matches(op) {
			cp := *op
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Update writes an operation record.
func (s *MemOperationStore) Update(_ context.Context, op *model.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *op
	s.ops[op.ProcessID] = &cp
	return nil
}

// MemHistoricEventStore is an in-memory HistoricEventStore for tests.
type MemHistoricEventStore struct {
	mu     sync.Mutex
	events []*model.HistoricOperationEvent
}

// NewMemHistoricEventStore constructs an empty in-memory event store.
func NewMemHistoricEventStore() *MemHistoricEventStore {
	return &MemHistoricEventStore{}
}

// Append records a historic operation event.
func (s *MemHistoricEventStore) Append(_ context.Context, event *model.HistoricOperationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

// ProcessEvents returns the historic events for a process in append order.
func (s *MemHistoricEventStore) ProcessEvents(_ context.Context, processID string) ([]*model.HistoricOperationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.HistoricOperationEvent
	for _, e := range s.events {
		if e.ProcessID == processID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}
