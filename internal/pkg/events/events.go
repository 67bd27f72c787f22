// internal/pkg/events/events.go
package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Routing keys on the topic exchange.
const (
	SubscriptionCreated          = "subscription.created"
	SubscriptionActivated        = "subscription.activated"
	SubscriptionCancelled        = "subscription.cancelled"
	SubscriptionExpired          = "subscription.expired"
	SubscriptionDuplicatePayment = "subscription.duplicate_payment"
	PaymentFailed                = "payment.failed"
	WalletDebited                = "wallet.debited"
)

// Event is the JSON envelope consumers receive.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(eventType string, data any) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers events after the state they describe has committed.
// Delivery is best effort; callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
