package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventUserSignedUp       = "UserSignedUp"
	EventOrderCreated       = "OrderCreated"
	EventOrderItemAdded     = "OrderItemAdded"
	EventOrderItemRemoved   = "OrderItemRemoved"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Envelope is the wire format of every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload in an envelope stamped with a fresh id.
func NewEnvelope(producer, eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// Publisher emits domain events after the originating transaction commits.
// Publishing is best effort and never fails the request.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) {}

// ---- payloads ----

type UserSignedUpPayload struct {
	UserID uint `json:"user_id"`
	Admin  bool `json:"admin"`
}

type OrderCreatedPayload struct {
	OrderID uint `json:"order_id"`
	OwnerID uint `json:"owner_id"`
}

type OrderItemPayload struct {
	OrderID    uint   `json:"order_id"`
	ItemID     uint   `json:"item_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	OrderPrice string `json:"order_price"`
}

type OrderStatusChangedPayload struct {
	OrderID uint   `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
