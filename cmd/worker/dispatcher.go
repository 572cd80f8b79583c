package main

import (
	"context"
	"encoding/json"
	"fmt"

	"ayanna/internal/domain/events"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/pkg/logger"
)

// Dispatcher routes outbox messages by event type. There is no broker: a delivered
// event is logged with its payload summary. Unknown types fail so they end in the DLQ.
type Dispatcher struct {
	log      *logger.Logger
	handlers map[string]func(ctx context.Context, msg *postgres.OutboxMessage, payload map[string]any) error
}

var _ postgres.OutboxHandler = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher handling every domain event type.
func NewDispatcher(log *logger.Logger) *Dispatcher {
	d := &Dispatcher{log: log}
	d.handlers = map[string]func(context.Context, *postgres.OutboxMessage, map[string]any) error{
		events.SaleFinalized:    d.logEvent("number", "module", "net", "paid"),
		events.PaymentAccepted:  d.logEvent("module", "amount", "remaining"),
		events.SaleCancelled:    d.logEvent("number", "refunded", "module"),
		events.PurchaseReceived: d.logEvent("reference", "total"),
	}
	return d
}

// Handle implements postgres.OutboxHandler.
func (d *Dispatcher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	h, ok := d.handlers[msg.EventType]
	if !ok {
		return fmt.Errorf("no handler for event type %q", msg.EventType)
	}
	var payload map[string]any
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
		}
	}
	return h(ctx, msg, payload)
}

// logEvent logs the listed payload fields that are present.
func (d *Dispatcher) logEvent(fields ...string) func(context.Context, *postgres.OutboxMessage, map[string]any) error {
	return func(ctx context.Context, msg *postgres.OutboxMessage, payload map[string]any) error {
		kv := []any{
			"event_type", msg.EventType,
			"aggregate_type", msg.AggregateType,
			"aggregate_id", msg.AggregateID,
			"session_id", msg.SessionID,
		}
		for _, f := range fields {
			if v, ok := payload[f]; ok {
				kv = append(kv, f, v)
			}
		}
		d.log.WithContext(ctx).Infow("event delivered", kv...)
		return nil
	}
}
