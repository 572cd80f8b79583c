package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/core/types"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/audit"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/pricing"
	"ayanna/internal/domain/stock"
	"ayanna/pkg/logger"
)

// FinalizeInput closes a draft. InitialPayment is taken in the same session; for
// reservations it is the deposit.
type FinalizeInput struct {
	PaymentMethod  string
	InitialPayment decimal.Decimal
}

// FinalizedEvent is the payload of sale.finalized.
type FinalizedEvent struct {
	CartID   id.ID           `json:"cartId"`
	Module   catalog.Module  `json:"module"`
	Number   string          `json:"number"`
	POSID    id.ID           `json:"posId"`
	Net      decimal.Decimal `json:"net"`
	Paid     decimal.Decimal `json:"paid"`
	Postings bool            `json:"postings"`
}

// Finalize validates a draft cart, moves its products out of the POS warehouse,
// posts the sales and stock-cost journals and takes the initial payment. Everything
// commits together or not at all; a shortage fails with InsufficientStock before any
// write.
func (s *Service) Finalize(ctx context.Context, module catalog.Module, cartID id.ID, in FinalizeInput) (*Cart, error) {
	if in.InitialPayment.IsNegative() {
		return nil, apperror.NewValidation("initial payment cannot be negative").WithDetail("field", "initialPayment")
	}
	method := in.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}

	var (
		cart *Cart
		cfg  *accounting.Config
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		cart, err = s.draft(ctx, module, cartID, "finalize")
		if err != nil {
			return err
		}
		if len(cart.Lines) == 0 {
			return apperror.NewValidation("cart is empty").WithDetail("cart_id", cart.ID)
		}

		pos, err := s.catalog.POS(ctx, cart.POSID)
		if err != nil {
			return err
		}
		products, services, err := s.items(ctx, cart)
		if err != nil {
			return err
		}

		if err := s.stock.CheckAvailability(ctx, pos.WarehouseID, requirements(cart)); err != nil {
			return err
		}

		now := s.now()
		for _, l := range cart.Lines {
			if l.Kind != LineProduct {
				continue
			}
			_, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
				Kind:        stock.KindExit,
				ProductID:   l.ItemID,
				WarehouseID: pos.WarehouseID,
				Quantity:    l.Quantity,
				UnitCost:    products[l.ItemID].Cost,
				Reference:   cart.Reference(),
				When:        now,
			})
			if err != nil {
				return fmt.Errorf("stock exit for line %d: %w", l.LineNo, err)
			}
		}

		cfg, err = s.postingConfig(ctx, cart.POSID, "finalize")
		if err != nil {
			return err
		}
		if cfg != nil {
			if err := s.postSale(ctx, cart, cfg, products, services, now); err != nil {
				return err
			}
			if err := s.postStockCost(ctx, cart, cfg, products, now); err != nil {
				return err
			}
		}

		cart.Status = StatusValidated
		cart.PaymentMethod = method
		if err := s.saveHeader(ctx, cart); err != nil {
			return err
		}

		if in.InitialPayment.IsPositive() {
			if _, err := s.acceptPayment(ctx, cart, cfg, in.InitialPayment, method); err != nil {
				return err
			}
		}

		if err := s.audit.Snapshot(ctx, "cart", cart.ID, audit.ActionFinalize, cart); err != nil {
			return fmt.Errorf("audit finalize: %w", err)
		}
		return s.events.Publish(ctx, events.Event{
			AggregateType: "cart",
			AggregateID:   cart.ID,
			Type:          events.SaleFinalized,
			Payload: FinalizedEvent{
				CartID:   cart.ID,
				Module:   cart.Module,
				Number:   cart.Number,
				POSID:    cart.POSID,
				Net:      cart.Net(),
				Paid:     cart.Paid(),
				Postings: cfg != nil,
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("finalize cart %s: %w", cartID, err)
	}

	logger.Info(ctx, "cart finalized",
		"cart_id", cart.ID,
		"number", cart.Number,
		"net", cart.Net(),
		"paid", cart.Paid(),
	)
	return cart, nil
}

// SalesShares returns the brut amount each line and the tax contribute to their
// accounts: a line goes to its item's sales account, or the POS default one.
func SalesShares(cart *Cart, cfg *accounting.Config, products map[id.ID]*catalog.Product, services map[id.ID]*catalog.ServiceItem) ([]pricing.Share, error) {
	shares := make([]pricing.Share, 0, len(cart.Lines)+1)
	for _, l := range cart.Lines {
		account := cfg.SalesAccountID
		switch l.Kind {
		case LineProduct:
			if p, ok := products[l.ItemID]; ok && p.SalesAccountID != nil {
				account = *p.SalesAccountID
			}
		case LineService:
			if svc, ok := services[l.ItemID]; ok && svc.SalesAccountID != nil {
				account = *svc.SalesAccountID
			}
		}
		shares = append(shares, pricing.Share{AccountID: account, Brut: l.Total})
	}
	if cart.TaxAmount.IsPositive() {
		if cfg.TaxAccountID == nil {
			return nil, errMissingOptionalAccount("tax")
		}
		shares = append(shares, pricing.Share{AccountID: *cfg.TaxAccountID, Brut: cart.TaxAmount})
	}
	return shares, nil
}

// postSale emits the sales journal: debit client by net, debit discount, credit the
// sales and tax accounts by (net + discount) ventilated on brut.
func (s *Service) postSale(ctx context.Context, cart *Cart, cfg *accounting.Config, products map[id.ID]*catalog.Product, services map[id.ID]*catalog.ServiceItem, now time.Time) error {
	if !cart.TotalFinal.IsPositive() {
		return nil
	}
	if cart.DiscountAmount.IsPositive() && cfg.DiscountAccountID == nil {
		s.skipJournal(ctx, cart, journal.KindSale, "discount")
		return nil
	}
	shares, err := SalesShares(cart, cfg, products, services)
	if err != nil {
		s.skipJournal(ctx, cart, journal.KindSale, "tax")
		return nil
	}

	credits, err := pricing.AllocateByAccount(shares, cart.Net().Add(cart.DiscountAmount), cart.TotalFinal)
	if err != nil {
		return err
	}

	label := "Vente " + cart.Number
	lines := make([]journal.LineInput, 0, len(credits)+2)
	if cart.Net().IsPositive() {
		lines = append(lines, journal.Debit(cfg.ClientAccountID, cart.Net(), label))
	}
	if cart.DiscountAmount.IsPositive() {
		lines = append(lines, journal.Debit(*cfg.DiscountAccountID, cart.DiscountAmount, "Remise "+cart.Number))
	}
	for _, c := range credits {
		if c.Amount.IsPositive() {
			lines = append(lines, journal.Credit(c.AccountID, c.Amount, label))
		}
	}

	_, err = s.journals.Post(ctx, journal.Entry{
		Kind:         journal.KindSale,
		Label:        label,
		Reference:    cart.Reference(),
		Description:  fmt.Sprintf("%s sale %s", cart.Module, cart.Number),
		EnterpriseID: cart.EnterpriseID,
		POSID:        &cart.POSID,
		Date:         now,
		Lines:        lines,
	})
	if err != nil {
		return fmt.Errorf("post sales journal: %w", err)
	}
	return nil
}

// postStockCost emits debit cost-of-goods-sold / credit stock by Σ qty × product cost.
func (s *Service) postStockCost(ctx context.Context, cart *Cart, cfg *accounting.Config, products map[id.ID]*catalog.Product, now time.Time) error {
	cost := decimal.Zero
	for _, l := range cart.Lines {
		if l.Kind == LineProduct {
			cost = cost.Add(l.Quantity.Mul(products[l.ItemID].Cost))
		}
	}
	cost = types.RoundAmount(cost)
	if !cost.IsPositive() {
		return nil
	}
	if cfg.StockAccountID == nil || cfg.CostOfGoodsAccountID == nil {
		s.skipJournal(ctx, cart, journal.KindStock, "stock or cost of goods")
		return nil
	}

	label := "Coût des ventes " + cart.Number
	_, err := s.journals.Post(ctx, journal.Entry{
		Kind:         journal.KindStock,
		Label:        label,
		Reference:    cart.Reference(),
		EnterpriseID: cart.EnterpriseID,
		POSID:        &cart.POSID,
		Date:         now,
		Lines: []journal.LineInput{
			journal.Debit(*cfg.CostOfGoodsAccountID, cost, label),
			journal.Credit(*cfg.StockAccountID, cost, label),
		},
	})
	if err != nil {
		return fmt.Errorf("post stock-cost journal: %w", err)
	}
	return nil
}

func (s *Service) skipJournal(ctx context.Context, cart *Cart, kind journal.Kind, account string) {
	logger.Warn(ctx, "optional account not configured, journal skipped",
		"cart_id", cart.ID,
		"pos_id", cart.POSID,
		"journal_kind", kind,
		"account", account,
	)
}

// items loads the catalog rows of every cart line.
func (s *Service) items(ctx context.Context, cart *Cart) (map[id.ID]*catalog.Product, map[id.ID]*catalog.ServiceItem, error) {
	var productIDs, serviceIDs []id.ID
	for _, l := range cart.Lines {
		if l.Kind == LineProduct {
			productIDs = append(productIDs, l.ItemID)
		} else {
			serviceIDs = append(serviceIDs, l.ItemID)
		}
	}
	products := map[id.ID]*catalog.Product{}
	services := map[id.ID]*catalog.ServiceItem{}
	var err error
	if len(productIDs) > 0 {
		if products, err = s.catalog.Products(ctx, productIDs); err != nil {
			return nil, nil, err
		}
	}
	if len(serviceIDs) > 0 {
		if services, err = s.catalog.Services(ctx, serviceIDs); err != nil {
			return nil, nil, err
		}
	}
	return products, services, nil
}

func requirements(cart *Cart) []stock.Requirement {
	out := make([]stock.Requirement, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		if l.Kind == LineProduct {
			out = append(out, stock.Requirement{ProductID: l.ItemID, Quantity: l.Quantity})
		}
	}
	return out
}

func errMissingOptionalAccount(name string) error {
	return apperror.NewValidation(name + " account is not configured").WithDetail("account", name)
}
