package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	appctx "ayanna/internal/core/context"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/pricing"
	"ayanna/pkg/logger"
)

// PaymentInput is an amount received against a validated cart.
type PaymentInput struct {
	Amount decimal.Decimal
	Method string
}

// PaymentEvent is the payload of payment.accepted.
type PaymentEvent struct {
	CartID    id.ID           `json:"cartId"`
	PaymentID id.ID           `json:"paymentId"`
	Module    catalog.Module  `json:"module"`
	Amount    decimal.Decimal `json:"amount"`
	Remaining decimal.Decimal `json:"remaining"`
}

// AcceptPayment records a payment on a validated cart and posts debit cash / credit
// client. An amount above what remains due fails with Overpayment.
func (s *Service) AcceptPayment(ctx context.Context, module catalog.Module, cartID id.ID, in PaymentInput) (*Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").WithDetail("field", "amount")
	}

	var p *Payment
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.lock(ctx, module, cartID)
		if err != nil {
			return err
		}
		if cart.Status != StatusValidated {
			return apperror.NewInvalidState("cart", string(cart.Status), "pay").WithDetail("cart_id", cart.ID)
		}
		cfg, err := s.postingConfig(ctx, cart.POSID, "accept_payment")
		if err != nil {
			return err
		}
		method := in.Method
		if method == "" {
			method = cart.PaymentMethod
		}
		p, err = s.acceptPayment(ctx, cart, cfg, in.Amount, method)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("accept payment on cart %s: %w", cartID, err)
	}
	return p, nil
}

// acceptPayment runs inside the caller's session on a locked, validated cart.
// A nil cfg records the payment without a journal.
func (s *Service) acceptPayment(ctx context.Context, cart *Cart, cfg *accounting.Config, amount decimal.Decimal, method string) (*Payment, error) {
	remaining := cart.Remaining()
	if amount.GreaterThan(remaining) {
		return nil, apperror.NewOverpayment(amount.String(), remaining.String()).WithDetail("cart_id", cart.ID)
	}
	if method == "" {
		method = DefaultPaymentMethod
	}

	now := s.now()
	p := Payment{
		ID:     id.New(),
		CartID: cart.ID,
		Amount: amount,
		Method: method,
		Date:   now,
		UserID: appctx.AuthorID(ctx),
	}
	if err := s.repo.AddPayment(ctx, cart.Module, &p); err != nil {
		return nil, fmt.Errorf("add payment: %w", err)
	}
	cart.Payments = append(cart.Payments, p)

	if cfg != nil {
		label := "Paiement " + cart.Number
		_, err := s.journals.Post(ctx, journal.Entry{
			Kind:         journal.KindPayment,
			Label:        label,
			Reference:    cart.Reference(),
			Description:  method,
			EnterpriseID: cart.EnterpriseID,
			POSID:        &cart.POSID,
			Date:         now,
			Lines: []journal.LineInput{
				journal.Debit(cfg.CashAccountID, amount, label),
				journal.Credit(cfg.ClientAccountID, amount, label),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("post payment journal: %w", err)
		}
	}

	err := s.events.Publish(ctx, events.Event{
		AggregateType: "cart",
		AggregateID:   cart.ID,
		Type:          events.PaymentAccepted,
		Payload: PaymentEvent{
			CartID:    cart.ID,
			PaymentID: p.ID,
			Module:    cart.Module,
			Amount:    amount,
			Remaining: cart.Remaining(),
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment accepted",
		"cart_id", cart.ID,
		"payment_id", p.ID,
		"amount", amount,
		"remaining", cart.Remaining(),
	)
	return &p, nil
}

// PaymentShare is the ventilation of one payment.
type PaymentShare struct {
	PaymentID id.ID                `json:"paymentId"`
	Amount    decimal.Decimal      `json:"amount"`
	Parts     []pricing.Allocation `json:"parts"`
}

// Allocation is the per-account ventilation of the payments of a cart.
type Allocation struct {
	CartID     id.ID                `json:"cartId"`
	TotalBrut  decimal.Decimal      `json:"totalBrut"`
	Net        decimal.Decimal      `json:"net"`
	Paid       decimal.Decimal      `json:"paid"`
	Cumulative []pricing.Allocation `json:"cumulative"`
	Payments   []PaymentShare       `json:"payments"`
}

// PaymentAllocation splits what a cart has received over its sales and tax accounts in
// proportion to brut. Each payment's parts add up to the payment; once the net is
// fully paid the cumulative parts equal the ventilation of the whole net.
func (s *Service) PaymentAllocation(ctx context.Context, module catalog.Module, cartID id.ID) (*Allocation, error) {
	cart, err := s.Get(ctx, module, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 || !cart.TotalFinal.IsPositive() {
		return nil, apperror.NewValidation("cart has nothing to allocate").WithDetail("cart_id", cart.ID)
	}
	cfg, err := s.accounts.GetConfig(ctx, cart.POSID)
	if err != nil {
		return nil, err
	}
	products, services, err := s.items(ctx, cart)
	if err != nil {
		return nil, err
	}
	shares, err := SalesShares(cart, cfg, products, services)
	if err != nil {
		return nil, err
	}

	out := &Allocation{
		CartID:    cart.ID,
		TotalBrut: cart.TotalFinal,
		Net:       cart.Net(),
		Paid:      cart.Paid(),
	}
	out.Cumulative, err = pricing.AllocateByAccount(shares, out.Paid, cart.TotalFinal)
	if err != nil {
		return nil, err
	}

	before := decimal.Zero
	for _, p := range cart.Payments {
		if !p.Amount.IsPositive() {
			continue
		}
		parts, err := pricing.AllocatePayment(shares, cart.TotalFinal, before, p.Amount)
		if err != nil {
			return nil, err
		}
		out.Payments = append(out.Payments, PaymentShare{PaymentID: p.ID, Amount: p.Amount, Parts: parts})
		before = before.Add(p.Amount)
	}
	return out, nil
}
