// Package audit defines how core operations leave a snapshot trail.
package audit

import (
	"context"

	"ayanna/internal/core/id"
)

// Action names the audited operation.
type Action string

const (
	ActionFinalize Action = "finalize"
	ActionCancel   Action = "cancel"
	ActionReceive  Action = "receive"
)

// Recorder stores a snapshot of an entity in the caller's session.
type Recorder interface {
	Snapshot(ctx context.Context, entityType string, entityID id.ID, action Action, snapshot any) error
}

// Nop records nothing.
type Nop struct{}

// Snapshot implements Recorder.
func (Nop) Snapshot(context.Context, string, id.ID, Action, any) error { return nil }
