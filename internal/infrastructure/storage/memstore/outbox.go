package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"ayanna/internal/core/id"
	"ayanna/internal/domain/audit"
	"ayanna/internal/domain/events"
)

// NextValue implements sales.Sequencer.
func (s *Store) NextValue(_ context.Context, key string) (int64, error) {
	var v int64
	s.read(func(d *data) {
		d.sequences[key]++
		v = d.sequences[key]
	})
	return v, nil
}

// Publish implements events.Publisher by appending to the outbox.
func (s *Store) Publish(_ context.Context, e events.Event) error {
	s.read(func(d *data) { d.outbox = append(d.outbox, e) })
	return nil
}

// Snapshot implements audit.Recorder.
func (s *Store) Snapshot(_ context.Context, entityType string, entityID id.ID, action audit.Action, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", entityType, err)
	}
	s.read(func(d *data) {
		d.audits = append(d.audits, AuditRecord{
			EntityType: entityType,
			EntityID:   entityID,
			Action:     string(action),
			Payload:    payload,
		})
	})
	return nil
}

// Events returns the committed outbox.
func (s *Store) Events() []events.Event {
	var out []events.Event
	s.read(func(d *data) { out = slices.Clone(d.outbox) })
	return out
}

// Audits returns the committed audit records.
func (s *Store) Audits() []AuditRecord {
	var out []AuditRecord
	s.read(func(d *data) { out = slices.Clone(d.audits) })
	return out
}
