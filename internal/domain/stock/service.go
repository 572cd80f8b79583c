package stock

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	appctx "ayanna/internal/core/context"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/core/tx"
	"ayanna/pkg/logger"
)

const costPlaces = 4

// Service provides business operations for the stock ledger.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// ApplyMovement writes one immutable movement and updates the affected stock lines
// within the caller's session. Lines are locked before being read so movements on the
// same line serialize.
//
//   - ENTRY: source += qty; the line cost becomes the weighted average.
//   - EXIT: source -= qty; InsufficientStock when the result would be negative.
//   - TRANSFER: source -= qty, destination += qty at the source cost.
//   - ADJUSTMENT: source += signed qty; InsufficientStock when the result would be negative.
func (s *Service) ApplyMovement(ctx context.Context, in MovementInput) (*Movement, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	when := in.When
	if when.IsZero() {
		when = now
	}

	m := &Movement{
		BaseEntity:             entity.NewBaseEntity(),
		Kind:                   in.Kind,
		ProductID:              in.ProductID,
		WarehouseID:            in.WarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		Quantity:               in.Quantity,
		UnitCost:               in.UnitCost,
		TotalCost:              in.Quantity.Mul(in.UnitCost),
		Reference:              in.Reference,
		MovementDate:           when,
		UserID:                 appctx.AuthorID(ctx),
		CreatedAt:              now,
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		switch in.Kind {
		case KindEntry:
			err = s.credit(ctx, in.ProductID, in.WarehouseID, in.Quantity, in.UnitCost, now)
		case KindExit:
			_, err = s.debit(ctx, in.ProductID, in.WarehouseID, in.Quantity, now)
		case KindTransfer:
			var cost decimal.Decimal
			cost, err = s.transfer(ctx, in, now)
			m.UnitCost = cost
			m.TotalCost = in.Quantity.Mul(cost)
		case KindAdjustment:
			if in.Quantity.IsPositive() {
				err = s.credit(ctx, in.ProductID, in.WarehouseID, in.Quantity, in.UnitCost, now)
			} else {
				_, err = s.debit(ctx, in.ProductID, in.WarehouseID, in.Quantity.Neg(), now)
			}
		}
		if err != nil {
			return err
		}
		if err := s.repo.CreateMovement(ctx, m); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "stock movement applied",
		"movement_id", m.ID,
		"kind", m.Kind,
		"product_id", m.ProductID,
		"warehouse_id", m.WarehouseID,
		"quantity", m.Quantity,
		"reference", m.Reference,
	)
	return m, nil
}

// CheckAvailability locks the lines of every required product and fails with
// InsufficientStock on the first shortage. Requirements on the same product add up.
// Call it inside the session that will later apply the EXIT movements.
func (s *Service) CheckAvailability(ctx context.Context, warehouseID id.ID, items []Requirement) error {
	totals := make(map[id.ID]decimal.Decimal)
	order := make([]id.ID, 0, len(items))
	for _, it := range items {
		if _, ok := totals[it.ProductID]; !ok {
			order = append(order, it.ProductID)
		}
		totals[it.ProductID] = totals[it.ProductID].Add(it.Quantity)
	}
	sortIDs(order)

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, productID := range order {
			line, err := s.repo.GetLineForUpdate(ctx, productID, warehouseID)
			if err != nil {
				return fmt.Errorf("get stock line for %s: %w", productID, err)
			}
			if line.Quantity.LessThan(totals[productID]) {
				return apperror.NewInsufficientStock(
					productID.String(),
					warehouseID.String(),
					totals[productID].String(),
					line.Quantity.String(),
				)
			}
		}
		return nil
	})
}

// Transfer moves qty of a product between two warehouses.
func (s *Service) Transfer(ctx context.Context, productID, from, to id.ID, qty decimal.Decimal, reference string) (*Movement, error) {
	return s.ApplyMovement(ctx, MovementInput{
		Kind:                   KindTransfer,
		ProductID:              productID,
		WarehouseID:            from,
		DestinationWarehouseID: &to,
		Quantity:               qty,
		Reference:              reference,
	})
}

// Adjust applies a signed correction to a stock line.
func (s *Service) Adjust(ctx context.Context, productID, warehouseID id.ID, delta decimal.Decimal, reference string) (*Movement, error) {
	return s.ApplyMovement(ctx, MovementInput{
		Kind:        KindAdjustment,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    delta,
		Reference:   reference,
	})
}

// Line returns the stock line of a product in a warehouse.
func (s *Service) Line(ctx context.Context, productID, warehouseID id.ID) (Line, error) {
	return s.repo.GetLine(ctx, productID, warehouseID)
}

// Lines returns every stock line of a warehouse.
func (s *Service) Lines(ctx context.Context, warehouseID id.ID) ([]Line, error) {
	if _, err := s.repo.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	return s.repo.ListLines(ctx, warehouseID)
}

// MovementsByReference returns the movements of a kind booked under reference.
func (s *Service) MovementsByReference(ctx context.Context, reference string, kind Kind) ([]Movement, error) {
	return s.repo.MovementsByReference(ctx, reference, kind)
}

// QuantityBefore returns the quantity held strictly before t.
func (s *Service) QuantityBefore(ctx context.Context, productID, warehouseID id.ID, t time.Time) (decimal.Decimal, error) {
	return s.repo.QuantityBefore(ctx, productID, warehouseID, t)
}

// QuantityAddedIn returns quantities received by a warehouse over [from, to].
func (s *Service) QuantityAddedIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error) {
	if err := checkPeriod(from, to); err != nil {
		return decimal.Zero, err
	}
	return s.repo.QuantityAddedIn(ctx, productID, warehouseID, from, to)
}

// QuantitySoldIn returns the net quantity sold out of a warehouse over [from, to].
func (s *Service) QuantitySoldIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error) {
	if err := checkPeriod(from, to); err != nil {
		return decimal.Zero, err
	}
	return s.repo.QuantitySoldIn(ctx, productID, warehouseID, from, to)
}

// PurchasesAndTransfersIn returns purchases and transfers of a product over [from, to].
func (s *Service) PurchasesAndTransfersIn(ctx context.Context, productID id.ID, from, to time.Time) (PurchaseSummary, error) {
	if err := checkPeriod(from, to); err != nil {
		return PurchaseSummary{}, err
	}
	return s.repo.PurchasesAndTransfersIn(ctx, productID, from, to)
}

func (s *Service) credit(ctx context.Context, productID, warehouseID id.ID, qty, unitCost decimal.Decimal, now time.Time) error {
	line, err := s.repo.GetLineForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return fmt.Errorf("get stock line: %w", err)
	}
	line.ProductID, line.WarehouseID = productID, warehouseID
	if unitCost.IsZero() {
		unitCost = line.UnitCost
	}
	line.UnitCost = weightedCost(line.Quantity, line.UnitCost, qty, unitCost)
	line.Quantity = line.Quantity.Add(qty)
	line.UpdatedAt = now
	return s.repo.SaveLine(ctx, line)
}

func (s *Service) debit(ctx context.Context, productID, warehouseID id.ID, qty decimal.Decimal, now time.Time) (Line, error) {
	line, err := s.repo.GetLineForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return line, fmt.Errorf("get stock line: %w", err)
	}
	remaining := line.Quantity.Sub(qty)
	if remaining.IsNegative() {
		return line, apperror.NewInsufficientStock(
			productID.String(),
			warehouseID.String(),
			qty.String(),
			line.Quantity.String(),
		)
	}
	line.ProductID, line.WarehouseID = productID, warehouseID
	line.Quantity = remaining
	line.UpdatedAt = now
	return line, s.repo.SaveLine(ctx, line)
}

func (s *Service) transfer(ctx context.Context, in MovementInput, now time.Time) (decimal.Decimal, error) {
	dst := *in.DestinationWarehouseID

	// Lock both lines in a stable order.
	pair := []id.ID{in.WarehouseID, dst}
	sortIDs(pair)
	for _, wh := range pair {
		if _, err := s.repo.GetLineForUpdate(ctx, in.ProductID, wh); err != nil {
			return decimal.Zero, fmt.Errorf("lock stock line: %w", err)
		}
	}

	src, err := s.debit(ctx, in.ProductID, in.WarehouseID, in.Quantity, now)
	if err != nil {
		return decimal.Zero, err
	}
	cost := in.UnitCost
	if cost.IsZero() {
		cost = src.UnitCost
	}
	return cost, s.credit(ctx, in.ProductID, dst, in.Quantity, cost, now)
}

// weightedCost blends the held cost with an incoming one.
func weightedCost(heldQty, heldCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	total := heldQty.Add(inQty)
	if !total.IsPositive() || heldQty.IsNegative() {
		return inCost
	}
	return heldQty.Mul(heldCost).Add(inQty.Mul(inCost)).Div(total).Round(costPlaces)
}

func checkPeriod(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.NewValidation("period bounds are required")
	}
	if from.After(to) {
		return apperror.NewValidation("period start must not be after its end").
			WithDetail("from", from).
			WithDetail("to", to)
	}
	return nil
}

func sortIDs(ids []id.ID) {
	slices.SortFunc(ids, func(a, b id.ID) int { return bytes.Compare(a[:], b[:]) })
}
