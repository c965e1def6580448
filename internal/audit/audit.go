// Package audit records host lifecycle events. Events are handed to a
// Dispatcher, which writes them to a Sink on a background goroutine so
// that a slow sink never delays a lifecycle operation.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ksyq12/vhostctl/internal/host"
)

// Action classifies a lifecycle event.
type Action string

const (
	ActionCreated    Action = "created"
	ActionDeleted    Action = "deleted"
	ActionReconciled Action = "reconciled"
)

// EntityHost is the entity name recorded for host events.
const EntityHost = "host"

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	Action    Action          `json:"action"`
	OwnerID   int64           `json:"owner_id"`
	HostID    int64           `json:"host_id"`
	Entity    string          `json:"entity"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewHostEvent builds an event carrying a snapshot of h.
func NewHostEvent(action Action, h *host.Host) Event {
	data, _ := json.Marshal(h)
	return Event{
		Timestamp: time.Now().UTC(),
		Action:    action,
		OwnerID:   h.OwnerID,
		HostID:    h.ID,
		Entity:    EntityHost,
		Data:      data,
	}
}

// Sink persists events.
type Sink interface {
	Record(ctx context.Context, e Event) error
	Close() error
}

// Emitter accepts events without blocking.
type Emitter interface {
	Emit(e Event)
}

// NopSink discards every event.
type NopSink struct{}

// Record discards e.
func (NopSink) Record(ctx context.Context, e Event) error { return nil }

// Close does nothing.
func (NopSink) Close() error { return nil }
