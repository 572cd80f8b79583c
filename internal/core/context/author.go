// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"ayanna/internal/core/id"
)

// Author identifies the user performing a write. Every mutation records it.
type Author struct {
	UserID       id.ID
	EnterpriseID id.ID
}

type authorContextKey struct{}

// WithAuthor adds Author to context.
func WithAuthor(ctx context.Context, author *Author) context.Context {
	return context.WithValue(ctx, authorContextKey{}, author)
}

// GetAuthor returns Author from context.
func GetAuthor(ctx context.Context) *Author {
	if v, ok := ctx.Value(authorContextKey{}).(*Author); ok {
		return v
	}
	return nil
}

// AuthorID returns the author's user ID, or nil when the write is anonymous.
func AuthorID(ctx context.Context) *id.ID {
	if a := GetAuthor(ctx); a != nil && !id.IsNil(a.UserID) {
		uid := a.UserID
		return &uid
	}
	return nil
}

type sessionKey struct{}

// WithSessionID marks ctx as running inside the unit-of-work identified by sessionID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// GetSessionID returns the current unit-of-work session ID or empty string.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}
