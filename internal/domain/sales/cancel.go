package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/audit"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/stock"
	"ayanna/pkg/logger"
)

// ReversalSuffix is appended to the reference of reversal journals.
const ReversalSuffix = "-REV"

// CancelledEvent is the payload of sale.cancelled.
type CancelledEvent struct {
	CartID   id.ID           `json:"cartId"`
	Module   catalog.Module  `json:"module"`
	Number   string          `json:"number"`
	Refunded decimal.Decimal `json:"refunded"`
}

// Cancel ends a cart. A draft is simply discarded. A validated cart is unwound in one
// session: payments are zeroed and refunded by one journal, every stock exit is
// restored by an ENTRY movement, and the sales and stock-cost journals are reversed.
// Cancelling a cancelled cart fails with AlreadyCancelled.
func (s *Service) Cancel(ctx context.Context, module catalog.Module, cartID id.ID) (*Cart, error) {
	var (
		cart     *Cart
		previous Status
		refunded = decimal.Zero
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.lock(ctx, module, cartID)
		if err != nil {
			return err
		}
		previous = cart.Status

		switch cart.Status {
		case StatusCancelled:
			return apperror.NewAlreadyCancelled("cart", cart.ID)
		case StatusDraft:
			cart.Status = StatusCancelled
			return s.saveHeader(ctx, cart)
		}

		now := s.now()
		if refunded, err = s.refundPayments(ctx, cart, now); err != nil {
			return err
		}
		if err := s.restoreStock(ctx, cart, now); err != nil {
			return err
		}
		if err := s.reverseJournals(ctx, cart, now); err != nil {
			return err
		}

		cart.Status = StatusCancelled
		if err := s.saveHeader(ctx, cart); err != nil {
			return err
		}
		if err := s.audit.Snapshot(ctx, "cart", cart.ID, audit.ActionCancel, cart); err != nil {
			return fmt.Errorf("audit cancel: %w", err)
		}
		return s.events.Publish(ctx, events.Event{
			AggregateType: "cart",
			AggregateID:   cart.ID,
			Type:          events.SaleCancelled,
			Payload: CancelledEvent{
				CartID:   cart.ID,
				Module:   cart.Module,
				Number:   cart.Number,
				Refunded: refunded,
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cancel cart %s: %w", cartID, err)
	}

	logger.Info(ctx, "cart cancelled",
		"cart_id", cart.ID,
		"number", cart.Number,
		"previous_status", previous,
		"refunded", refunded,
	)
	return cart, nil
}

// refundPayments zeroes the payments and posts one debit client / credit cash journal
// for their total. Returns the total refunded.
func (s *Service) refundPayments(ctx context.Context, cart *Cart, now time.Time) (decimal.Decimal, error) {
	paid := cart.Paid()
	if !paid.IsPositive() {
		return decimal.Zero, nil
	}
	if err := s.repo.ZeroPayments(ctx, cart.Module, cart.ID); err != nil {
		return decimal.Zero, fmt.Errorf("zero payments: %w", err)
	}
	for i := range cart.Payments {
		cart.Payments[i].Amount = decimal.Zero
	}

	cfg, err := s.postingConfig(ctx, cart.POSID, "cancel")
	if err != nil || cfg == nil {
		return paid, err
	}
	label := "Annulation paiements " + cart.Number
	_, err = s.journals.Post(ctx, journal.Entry{
		Kind:         journal.KindCancel,
		Label:        label,
		Reference:    cart.Reference(),
		Description:  "refund of payments",
		EnterpriseID: cart.EnterpriseID,
		POSID:        &cart.POSID,
		Date:         now,
		Lines: []journal.LineInput{
			journal.Debit(cfg.ClientAccountID, paid, label),
			journal.Credit(cfg.CashAccountID, paid, label),
		},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("post payment-cancel journal: %w", err)
	}
	return paid, nil
}

// restoreStock books one ENTRY per EXIT of the cart, at the exit's cost.
func (s *Service) restoreStock(ctx context.Context, cart *Cart, now time.Time) error {
	exits, err := s.stock.MovementsByReference(ctx, cart.Reference(), stock.KindExit)
	if err != nil {
		return fmt.Errorf("load stock exits: %w", err)
	}
	for _, m := range exits {
		_, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
			Kind:        stock.KindEntry,
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			Quantity:    m.Quantity,
			UnitCost:    m.UnitCost,
			Reference:   CancelReference(cart.ID),
			When:        now,
		})
		if err != nil {
			return fmt.Errorf("restore stock of %s: %w", m.ProductID, err)
		}
	}
	return nil
}

// reverseJournals mirrors the sales and stock-cost journals of the cart.
func (s *Service) reverseJournals(ctx context.Context, cart *Cart, now time.Time) error {
	for _, kind := range []journal.Kind{journal.KindSale, journal.KindStock} {
		posted, err := s.journals.FindByReference(ctx, cart.Reference(), kind)
		if err != nil {
			return fmt.Errorf("find %s journals: %w", kind, err)
		}
		for _, j := range posted {
			if _, err := s.journals.Reverse(ctx, j.ID, now, ReversalSuffix); err != nil {
				return err
			}
		}
	}
	return nil
}
