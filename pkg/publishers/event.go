package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mutation kinds carried by Event.Action.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// Event describes a backoffice record mutation published downstream.
type Event struct {
	ID         string          `json:"id"`
	Resource   string          `json:"resource"`
	Action     string          `json:"action"`
	RecordID   string          `json:"record_id,omitempty"`
	Record     json.RawMessage `json:"record,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEvent constructs an Event for a mutation of resource. record may be nil.
func NewEvent(resource, action, recordID string, record any) (Event, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Resource:   resource,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
	if record == nil {
		return evt, nil
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s record: %w", resource, err)
	}
	evt.Record = raw
	return evt, nil
}

// attributes returns the routing metadata copied onto broker messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"resource": e.Resource,
		"action":   e.Action,
	}
}
