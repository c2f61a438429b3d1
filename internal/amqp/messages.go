package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a change to the ledger.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventCategoryCreated    EventType = "category.created"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTransactionCreated, EventTransactionDeleted, EventCategoryCreated:
		return true
	default:
		return false
	}
}

// LedgerEvent is a lightweight notification of a ledger change.
// It carries ids only; consumers read the current row from the database.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	CategoryID    int64     `json:"category_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreated(id, categoryID int64) LedgerEvent {
	return LedgerEvent{Type: EventTransactionCreated, TransactionID: id, CategoryID: categoryID, Timestamp: time.Now().UTC()}
}

func NewTransactionDeleted(id int64) LedgerEvent {
	return LedgerEvent{Type: EventTransactionDeleted, TransactionID: id, Timestamp: time.Now().UTC()}
}

func NewCategoryCreated(id int64) LedgerEvent {
	return LedgerEvent{Type: EventCategoryCreated, CategoryID: id, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	if !e.Type.Valid() {
		return LedgerEvent{}, fmt.Errorf("unknown event type %q", e.Type)
	}
	return e, nil
}
