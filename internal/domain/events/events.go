// Package events defines the domain events core operations emit through the
// transactional outbox.
package events

import (
	"context"

	"ayanna/internal/core/id"
)

// Event types.
const (
	SaleFinalized    = "sale.finalized"
	PaymentAccepted  = "payment.accepted"
	SaleCancelled    = "sale.cancelled"
	PurchaseReceived = "purchase.received"
)

// Event is one fact to deliver after commit.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher records events in the caller's session. Events of a rolled-back session
// are never delivered.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
