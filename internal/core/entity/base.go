package entity

import (
	"context"
	"time"

	appctx "ayanna/internal/core/context"
	"ayanna/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the primary key shared by all rows.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New()}
}

// Tracked carries the author and timestamps every mutation records.
type Tracked struct {
	UserID    *id.ID    `db:"user_id" json:"userId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Stamp sets author and both timestamps for a new row.
func (t *Tracked) Stamp(ctx context.Context, now time.Time) {
	t.UserID = appctx.AuthorID(ctx)
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch records a modification.
func (t *Tracked) Touch(now time.Time) {
	t.UpdatedAt = now
}
