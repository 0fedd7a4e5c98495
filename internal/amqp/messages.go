package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names what changed in the ledger.
type EventKind string

const (
	PurchaseCreated EventKind = "purchase.created"
	PurchaseDeleted EventKind = "purchase.deleted"
	CardChanged     EventKind = "card.changed"
	CardDeleted     EventKind = "card.deleted"
	DataReset       EventKind = "data.reset"
)

func (k EventKind) Valid() bool {
	switch k {
	case PurchaseCreated, PurchaseDeleted, CardChanged, CardDeleted, DataReset:
		return true
	}
	return false
}

// PurchaseEvent is a lightweight change notification. It carries ids only;
// consumers read current state from the store. RequestID is the API request
// that caused the change, when there was one.
type PurchaseEvent struct {
	Kind       EventKind `json:"kind"`
	PurchaseID string    `json:"purchaseId,omitempty"`
	CardID     string    `json:"cardId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewPurchaseEvent creates an event stamped with the current time.
func NewPurchaseEvent(kind EventKind, purchaseID, cardID string) *PurchaseEvent {
	return &PurchaseEvent{
		Kind:       kind,
		PurchaseID: purchaseID,
		CardID:     cardID,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *PurchaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PurchaseEventFromJSON decodes and checks an event body.
func PurchaseEventFromJSON(data []byte) (*PurchaseEvent, error) {
	var ev PurchaseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return &ev, nil
}
