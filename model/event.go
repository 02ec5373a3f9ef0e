package model

import "time"

// EventType classifies a historic operation event.
type EventType string

const (
	EventRetried EventType = "RETRIED"
	EventAborted EventType = "ABORTED"
)

// HistoricOperationEvent is an immutable, append-only audit record created
// by process actions.  It is never mutated; retention cleanup happens
// elsewhere.
type HistoricOperationEvent struct {
	ProcessID string    `json:"processId"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
