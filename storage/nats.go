package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/segmentio/ksuid"
	"gitlab.com/mta-deploy/deployctl/common"
	"gitlab.com/mta-deploy/deployctl/messages"
	"gitlab.com/mta-deploy/deployctl/model"
)

// Nats persists operations and historic events in JetStream key value buckets.
type Nats struct {
	js        jetstream.JetStream
	operation jetstream.KeyValue
	history   jetstream.KeyValue
}

// NewNats ensures the buckets exist and returns a store over them.
func NewNats(ctx context.Context, js jetstream.JetStream, storageType jetstream.StorageType) (*Nats, error) {
	if err := common.EnsureBuckets(ctx, js, storageType, []string{messages.KvOperation, messages.KvHistory}); err != nil {
		return nil, fmt.Errorf("ensure operation buckets: %w", err)
	}
	operation, err := js.KeyValue(ctx, messages.KvOperation)
	if err != nil {
		return nil, fmt.Errorf("open operation bucket: %w", err)
	}
	history, err := js.KeyValue(ctx, messages.KvHistory)
	if err != nil {
		return nil, fmt.Errorf("open history bucket: %w", err)
	}
	return &Nats{js: js, operation: operation, history: history}, nil
}

// Get fetches one operation by process id.
func (s *Nats) Get(ctx context.Context, processID string) (*model.Operation, error) {
	op := &model.Operation{}
	if err := common.LoadObj(ctx, s.operation, processID, op); err != nil {
		if common.IsJetStreamNotFound(err) {
			return nil, fmt.Errorf("get operation %s: %w", processID, ErrOperationNotFound)
		}
		return nil, fmt.Errorf("get operation: %w", err)
	}
	return op, nil
}

// List returns the operations matching the filter.
func (s *Nats) List(ctx context.Context, filter Filter) ([]*model.Operation, error) {
	keys, err := s.operation.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list operation keys: %w", err)
	}
	ops := make([]*model.Operation, 0, len(keys))
	for _, k := range keys {
		op := &model.Operation{}
		if err := common.LoadObj(ctx, s.operation, k, op); err != nil {
			if common.IsJetStreamNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("load operation %s: %w", k, err)
		}
		if filter.Matches(op) {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// Update writes an operation record.
func (s *Nats) Update(ctx context.Context, op *model.Operation) error {
	if err := common.SaveObj(ctx, s.operation, op.ProcessID, op); err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	return nil
}

// Append records a historic operation event.  Keys carry a ksuid suffix so
// prefix search returns events in append order.
func (s *Nats) Append(ctx context.Context, event *model.HistoricOperationEvent) error {
	key := event.ProcessID + "." + ksuid.New().String()
	if err := common.SaveObj(ctx, s.history, key, event); err != nil {
		return fmt.Errorf("append historic event: %w", err)
	}
	return nil
}

// ProcessEvents returns the historic events for a process in append order.
func (s *Nats) ProcessEvents(ctx context.Context, processID string) ([]*model.HistoricOperationEvent, error) {
	keys, err := common.KeyPrefixSearch(ctx, s.js, s.history, processID, common.KeyPrefixResultOpts{Sort: true})
	if err != nil {
		return nil, fmt.Errorf("get process events: %w", err)
	}
	events := make([]*model.HistoricOperationEvent, 0, len(keys))
	for _, key := range keys {
		entry := &model.HistoricOperationEvent{}
		if err := common.LoadObj(ctx, s.history, key, entry); err != nil {
			return nil, fmt.Errorf("get process event item: %w", err)
		}
		events = append(events, entry)
	}
	return events, nil
}
