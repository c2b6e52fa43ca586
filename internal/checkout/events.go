package checkout

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventTransactionCreated = "TransactionCreated"
	EventPaymentSubmitted   = "PaymentSubmitted"
	EventStatusRefreshed    = "StatusRefreshed"
	EventCheckoutFailed     = "CheckoutFailed"
	EventTransactionCleared = "TransactionCleared"
)

const TopicCheckoutEvents = "checkout.events"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // reference, when known
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type TransactionCreatedPayload struct {
	Reference      string `json:"reference"`
	IdempotencyKey string `json:"idempotency_key"`
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
}

type StatusPayload struct {
	Reference       string `json:"reference"`
	Status          Status `json:"status"`
	ProcessorStatus string `json:"processor_status,omitempty"`
}

type CheckoutFailedPayload struct {
	Reference      string `json:"reference,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Stage          Stage  `json:"stage"`
	Reason         string `json:"reason"`
}

type TransactionClearedPayload struct {
	Reference string `json:"reference,omitempty"`
}

// EventPublisher ships lifecycle events somewhere durable. Publishing is
// fire-and-forget; it must not block the checkout flow.
type EventPublisher interface {
	PublishEvent(ev Envelope)
}

// PartitionKey keeps all events of one checkout attempt in order.
func PartitionKey(ev Envelope) []byte {
	if ev.CorrelationID != "" {
		return []byte(ev.CorrelationID)
	}
	return []byte(ev.EventID)
}

func newEnvelope(producer, eventType, correlationID string, payload any) Envelope {
	b, _ := json.Marshal(payload)
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       b,
	}
}
