package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ayanna/internal/core/id"
	"ayanna/internal/domain/events"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/pkg/logger"
)

func TestDispatcher_LogsKnownEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDispatcher(logger.Wrap(zap.New(core)))

	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "cart",
		AggregateID:   id.New(),
		EventType:     events.SaleFinalized,
		Payload:       []byte(`{"number":"CMD-1-20260101120000","net":"115.00","module":"shop","lines":3}`),
	}
	require.NoError(t, d.Handle(context.Background(), msg))

	entries := logs.FilterMessage("event delivered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "CMD-1-20260101120000", fields["number"])
	assert.Equal(t, "shop", fields["module"])
	assert.NotContains(t, fields, "lines")
}

func TestDispatcher_UnknownTypeFails(t *testing.T) {
	d := NewDispatcher(logger.Wrap(zap.NewNop()))
	err := d.Handle(context.Background(), &postgres.OutboxMessage{EventType: "cart.exploded"})
	assert.ErrorContains(t, err, "cart.exploded")
}

func TestDispatcher_BadPayload(t *testing.T) {
	d := NewDispatcher(logger.Wrap(zap.NewNop()))
	err := d.Handle(context.Background(), &postgres.OutboxMessage{
		EventType: events.PaymentAccepted,
		Payload:   []byte("{"),
	})
	assert.Error(t, err)
}
