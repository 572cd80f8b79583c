// Package purchase books supplier receipts: goods enter a warehouse and the purchase
// is posted against the stock account.
package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/core/tx"
	"ayanna/internal/core/types"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/audit"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/stock"
	"ayanna/pkg/logger"
)

// Line is a quantity of a product received at a unit cost.
type Line struct {
	ProductID id.ID           `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// ReceiveInput is a supplier delivery into the warehouse of a POS.
type ReceiveInput struct {
	POSID     id.ID
	Reference string
	Lines     []Line
}

// Validate implements entity.Validatable.
func (in *ReceiveInput) Validate(_ context.Context) error {
	if id.IsNil(in.POSID) {
		return apperror.NewValidation("point of sale is required").WithDetail("field", "posId")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return apperror.NewValidation("supplier reference is required").WithDetail("field", "reference")
	}
	if strings.HasPrefix(in.Reference, stock.CancelReferencePrefix) {
		return apperror.NewValidation("reference prefix is reserved").WithDetail("field", "reference")
	}
	if len(in.Lines) == 0 {
		return apperror.NewValidation("receipt has no lines").WithDetail("field", "lines")
	}
	for i, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").WithDetail("line", i)
		}
		if l.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").WithDetail("line", i)
		}
	}
	return nil
}

// Receipt is the outcome of Receive.
type Receipt struct {
	Reference   string           `json:"reference"`
	WarehouseID id.ID            `json:"warehouseId"`
	Total       decimal.Decimal  `json:"total"`
	Movements   []stock.Movement `json:"movements"`
	JournalID   *id.ID           `json:"journalId,omitempty"`
}

// POSLookup resolves points of sale.
type POSLookup interface {
	POS(ctx context.Context, posID id.ID) (*catalog.POS, error)
}

// Accounts resolves the posting configuration of a POS.
type Accounts interface {
	GetConfig(ctx context.Context, posID id.ID) (*accounting.Config, error)
}

// Stock applies movements.
type Stock interface {
	ApplyMovement(ctx context.Context, in stock.MovementInput) (*stock.Movement, error)
}

// Poster posts journals.
type Poster interface {
	Post(ctx context.Context, entry journal.Entry) (*journal.Journal, error)
}

// Service books receipts.
type Service struct {
	pos      POSLookup
	accounts Accounts
	stock    Stock
	journals Poster
	txm      tx.Manager
	events   events.Publisher
	audit    audit.Recorder
}

// NewService creates a purchase service. pub and rec may be nil.
func NewService(pos POSLookup, accounts Accounts, st Stock, journals Poster, txm tx.Manager, pub events.Publisher, rec audit.Recorder) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{pos: pos, accounts: accounts, stock: st, journals: journals, txm: txm, events: pub, audit: rec}
}

// Receive books one ENTRY per line into the POS warehouse and posts debit stock /
// credit purchase for the total cost. Postings follow the missing-configuration rule:
// the goods are received and a warning is logged.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*Receipt, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	var receipt *Receipt
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		pos, err := s.pos.POS(ctx, in.POSID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		receipt = &Receipt{Reference: in.Reference, WarehouseID: pos.WarehouseID, Total: decimal.Zero}
		for _, l := range in.Lines {
			m, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
				Kind:        stock.KindEntry,
				ProductID:   l.ProductID,
				WarehouseID: pos.WarehouseID,
				Quantity:    l.Quantity,
				UnitCost:    l.UnitCost,
				Reference:   in.Reference,
				When:        now,
			})
			if err != nil {
				return err
			}
			receipt.Movements = append(receipt.Movements, *m)
			receipt.Total = receipt.Total.Add(l.Quantity.Mul(l.UnitCost))
		}
		receipt.Total = types.RoundAmount(receipt.Total)

		j, err := s.post(ctx, pos, in.Reference, receipt.Total, now)
		if err != nil {
			return err
		}
		if j != nil {
			receipt.JournalID = &j.ID
		}

		if err := s.audit.Snapshot(ctx, "purchase", pos.ID, audit.ActionReceive, receipt); err != nil {
			return fmt.Errorf("audit receipt: %w", err)
		}
		return s.events.Publish(ctx, events.Event{
			AggregateType: "purchase",
			AggregateID:   pos.ID,
			Type:          events.PurchaseReceived,
			Payload:       receipt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", in.Reference, err)
	}

	logger.Info(ctx, "purchase received",
		"reference", receipt.Reference,
		"warehouse_id", receipt.WarehouseID,
		"total", receipt.Total,
	)
	return receipt, nil
}

func (s *Service) post(ctx context.Context, pos *catalog.POS, reference string, total decimal.Decimal, now time.Time) (*journal.Journal, error) {
	if !total.IsPositive() {
		return nil, nil
	}
	cfg, err := s.accounts.GetConfig(ctx, pos.ID)
	if err != nil {
		if apperror.IsConfigMissing(err) {
			logger.Warn(ctx, "accounting configuration missing, postings skipped",
				"pos_id", pos.ID,
				"operation", "receive",
			)
			return nil, nil
		}
		return nil, err
	}
	if cfg.StockAccountID == nil || cfg.PurchaseAccountID == nil {
		logger.Warn(ctx, "optional account not configured, journal skipped",
			"pos_id", pos.ID,
			"journal_kind", journal.KindPurchase,
			"account", "stock or purchase",
		)
		return nil, nil
	}

	label := "Achat " + reference
	j, err := s.journals.Post(ctx, journal.Entry{
		Kind:         journal.KindPurchase,
		Label:        label,
		Reference:    reference,
		EnterpriseID: pos.EnterpriseID,
		POSID:        &pos.ID,
		Date:         now,
		Lines: []journal.LineInput{
			journal.Debit(*cfg.StockAccountID, total, label),
			journal.Credit(*cfg.PurchaseAccountID, total, label),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("post purchase journal: %w", err)
	}
	return j, nil
}
