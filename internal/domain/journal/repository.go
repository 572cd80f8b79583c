package journal

import (
	"context"

	"ayanna/internal/core/id"
)

// Repository persists journals. Create writes the header and every line in one batch.
type Repository interface {
	Create(ctx context.Context, j *Journal) error

	// Get returns a journal with its lines ordered by ordinal.
	Get(ctx context.Context, journalID id.ID) (*Journal, error)

	// FindByReference returns the journals of a kind carrying reference, oldest first,
	// lines included. An empty kind matches every kind.
	FindByReference(ctx context.Context, reference string, kind Kind) ([]Journal, error)

	// IsReversed reports whether a reversal of journalID exists.
	IsReversed(ctx context.Context, journalID id.ID) (bool, error)
}

// AccountChecker resolves unknown account ids. Implemented by the accounting repository.
type AccountChecker interface {
	MissingAccounts(ctx context.Context, ids []id.ID) ([]id.ID, error)
}
