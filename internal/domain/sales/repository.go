package sales

import (
	"context"

	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
)

// Repository persists carts of every module. The module selects the table set.
type Repository interface {
	Create(ctx context.Context, cart *Cart) error

	// Get returns a cart with its lines (by line number) and payments (oldest first).
	Get(ctx context.Context, module catalog.Module, cartID id.ID) (*Cart, error)

	// GetForUpdate is Get with the header row locked until the session ends.
	GetForUpdate(ctx context.Context, module catalog.Module, cartID id.ID) (*Cart, error)

	// UpdateHeader writes status, totals, payment method and timestamps.
	UpdateHeader(ctx context.Context, cart *Cart) error

	AddLine(ctx context.Context, module catalog.Module, line *Line) error
	RemoveLine(ctx context.Context, module catalog.Module, cartID, lineID id.ID) error

	AddPayment(ctx context.Context, module catalog.Module, p *Payment) error

	// ZeroPayments sets the amount of every payment of a cart to zero.
	ZeroPayments(ctx context.Context, module catalog.Module, cartID id.ID) error

	// NumberExists reports whether a POS already has a cart numbered number.
	NumberExists(ctx context.Context, module catalog.Module, posID id.ID, number string) (bool, error)
}

// Sequencer hands out gapless integers per key. Restaurant carts are numbered with it.
type Sequencer interface {
	NextValue(ctx context.Context, key string) (int64, error)
}
