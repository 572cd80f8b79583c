// Package tx provides the unit-of-work abstraction.
// Domain services depend on Manager; the Postgres implementation lives in
// infrastructure/storage/postgres and an in-memory one in storage/memstore.
package tx

import (
	"context"

	appctx "ayanna/internal/core/context"
)

// Manager defines the contract for a unit of work.
//
// RunInTransaction executes fn within one session: if fn returns an error (or panics)
// the session is rolled back and the error is returned, otherwise it is committed.
// The session travels in the context passed to fn; a call made with a context that
// already carries a session joins it instead of opening a new one, so components
// compose by passing the same context.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionID returns the identifier of the session carried by ctx, or "".
func SessionID(ctx context.Context) string {
	return appctx.GetSessionID(ctx)
}

// InSession reports whether ctx carries an open session.
func InSession(ctx context.Context) bool {
	return SessionID(ctx) != ""
}
