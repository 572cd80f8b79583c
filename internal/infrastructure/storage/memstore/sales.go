package memstore

import (
	"context"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/sales"
)

// SalesRepo implements sales.Repository.
type SalesRepo struct{ s *Store }

// Sales returns the cart repository.
func (s *Store) Sales() *SalesRepo { return &SalesRepo{s: s} }

func (r *SalesRepo) Create(_ context.Context, cart *sales.Cart) error {
	r.s.read(func(d *data) { d.carts[cart.Module][cart.ID] = copyCart(*cart) })
	return nil
}

func (r *SalesRepo) Get(_ context.Context, module catalog.Module, cartID id.ID) (*sales.Cart, error) {
	var (
		cart sales.Cart
		ok   bool
	)
	r.s.read(func(d *data) {
		cart, ok = d.carts[module][cartID]
		cart = copyCart(cart)
	})
	if !ok {
		return nil, apperror.NewNotFound("cart", cartID)
	}
	cart.Module = module
	return &cart, nil
}

func (r *SalesRepo) GetForUpdate(ctx context.Context, module catalog.Module, cartID id.ID) (*sales.Cart, error) {
	return r.Get(ctx, module, cartID)
}

func (r *SalesRepo) UpdateHeader(_ context.Context, cart *sales.Cart) error {
	return r.update(cart.Module, cart.ID, func(stored *sales.Cart) {
		lines, payments := stored.Lines, stored.Payments
		*stored = *cart
		stored.Lines, stored.Payments = lines, payments
	})
}

func (r *SalesRepo) AddLine(_ context.Context, module catalog.Module, line *sales.Line) error {
	return r.update(module, line.CartID, func(stored *sales.Cart) {
		stored.Lines = append(stored.Lines, *line)
	})
}

func (r *SalesRepo) RemoveLine(_ context.Context, module catalog.Module, cartID, lineID id.ID) error {
	return r.update(module, cartID, func(stored *sales.Cart) {
		kept := make([]sales.Line, 0, len(stored.Lines))
		for _, l := range stored.Lines {
			if l.ID != lineID {
				kept = append(kept, l)
			}
		}
		stored.Lines = kept
	})
}

func (r *SalesRepo) AddPayment(_ context.Context, module catalog.Module, p *sales.Payment) error {
	return r.update(module, p.CartID, func(stored *sales.Cart) {
		stored.Payments = append(stored.Payments, *p)
	})
}

func (r *SalesRepo) ZeroPayments(_ context.Context, module catalog.Module, cartID id.ID) error {
	return r.update(module, cartID, func(stored *sales.Cart) {
		for i := range stored.Payments {
			stored.Payments[i].Amount = decimal.Zero
		}
	})
}

func (r *SalesRepo) NumberExists(_ context.Context, module catalog.Module, posID id.ID, number string) (bool, error) {
	exists := false
	r.s.read(func(d *data) {
		for _, c := range d.carts[module] {
			if c.POSID == posID && c.Number == number {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *SalesRepo) update(module catalog.Module, cartID id.ID, fn func(*sales.Cart)) error {
	var err error
	r.s.read(func(d *data) {
		cart, ok := d.carts[module][cartID]
		if !ok {
			err = apperror.NewNotFound("cart", cartID)
			return
		}
		cart = copyCart(cart)
		fn(&cart)
		d.carts[module][cartID] = cart
	})
	return err
}
