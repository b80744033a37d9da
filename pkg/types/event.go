package types

import "time"

// EventKind is the mutation kind a ChangeEvent records.
type EventKind string

const (
	EventPut    EventKind = "Put"
	EventDelete EventKind = "Delete"
)

// ChangeEvent is one entry in the EventLog: a single Store mutation with
// a monotonic sequence number strictly greater than every event
// allocated before it.
type ChangeEvent struct {
	Seq       uint64    `json:"seq"`
	Kind      EventKind `json:"kind"`
	Key       string    `json:"key"`
	Value     []byte    `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
