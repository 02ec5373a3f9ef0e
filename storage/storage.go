// Package storage persists deployment operations and their historic events.
// The control plane only reads and respects the per-(mtaId, spaceId) lock
// invariant recorded here; acquiring and releasing the lock is the request
// layer's job.
package storage

import (
	"context"
	"errors"
	"slices"

	"gitlab.com/mta-deploy/deployctl/model"
)

// ErrOperationNotFound is returned when no operation exists for a process id.
var ErrOperationNotFound = errors.New("operation not found")

// Filter narrows an operation listing.
type Filter struct {
	SpaceID          string
	MtaID            string
	States           []model.State
	WithAcquiredLock bool
}

// Matches reports whether an operation satisfies the filter.
func (f Filter) Matches(op *model.Operation) bool {
	if f.SpaceID != "" && op.SpaceID != f.SpaceID {
		return false
	}
	if f.MtaID != "" && op.MtaID != f.MtaID {
		return false
	}
	if len(f.States) > 0 && !slices.Contains(f.States, op.State) {
		return false
	}
	if f.WithAcquiredLock && !op.AcquiredLock {
		return false
	}
	return true
}

// OperationStore is the persisted record store, one entry per deployment operation.
//
//go:generate mockery
type OperationStore interface {
	Get(ctx context.Context, processID string) (*model.Operation, error)
	List(ctx context.Context, filter Filter) ([]*model.Operation, error)
	Update(ctx context.Context, op *model.Operation) error
}

// HistoricEventStore is the append-only lifecycle event log.
type HistoricEventStore interface {
	Append(ctx context.Context, event *model.HistoricOperationEvent) error
	ProcessEvents(ctx context.Context, processID string) ([]*model.HistoricOperationEvent, error)
}
