package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action names the kind of write that produced an event.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) IsValid() bool {
	return a == ActionCreated || a == ActionUpdated || a == ActionDeleted
}

// TransactionEvent is a lightweight notification that a transaction changed.
// Consumers fetch the current record from the repository by ID.
type TransactionEvent struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id string, action Action) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if evt.ID == "" {
		return nil, fmt.Errorf("event without transaction id")
	}
	if !evt.Action.IsValid() {
		return nil, fmt.Errorf("unknown event action %q", evt.Action)
	}
	return &evt, nil
}
