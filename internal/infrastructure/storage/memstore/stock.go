package memstore

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/stock"
)

// StockRepo implements stock.Repository. Sessions are exclusive, so a line read
// "for update" is the line itself.
type StockRepo struct{ s *Store }

// Stock returns the stock repository.
func (s *Store) Stock() *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) CreateMovement(_ context.Context, m *stock.Movement) error {
	r.s.read(func(d *data) { d.movements = append(d.movements, *m) })
	return nil
}

func (r *StockRepo) GetLine(_ context.Context, productID, warehouseID id.ID) (stock.Line, error) {
	var line stock.Line
	r.s.read(func(d *data) { line = d.line(productID, warehouseID) })
	return line, nil
}

func (r *StockRepo) GetLineForUpdate(ctx context.Context, productID, warehouseID id.ID) (stock.Line, error) {
	return r.GetLine(ctx, productID, warehouseID)
}

func (r *StockRepo) SaveLine(_ context.Context, line stock.Line) error {
	r.s.read(func(d *data) { d.lines[lineKey{line.ProductID, line.WarehouseID}] = line })
	return nil
}

func (r *StockRepo) ListLines(_ context.Context, warehouseID id.ID) ([]stock.Line, error) {
	var out []stock.Line
	r.s.read(func(d *data) {
		for k, l := range d.lines {
			if k.warehouse == warehouseID {
				out = append(out, l)
			}
		}
	})
	slices.SortFunc(out, func(a, b stock.Line) int { return bytes.Compare(a.ProductID[:], b.ProductID[:]) })
	return out, nil
}

func (r *StockRepo) MovementsByReference(_ context.Context, reference string, kind stock.Kind) ([]stock.Movement, error) {
	var out []stock.Movement
	r.s.read(func(d *data) {
		for _, m := range d.movements {
			if m.Reference == reference && m.Kind == kind {
				out = append(out, m)
			}
		}
	})
	return out, nil
}

func (r *StockRepo) GetWarehouse(_ context.Context, warehouseID id.ID) (*stock.Warehouse, error) {
	var (
		w  stock.Warehouse
		ok bool
	)
	r.s.read(func(d *data) { w, ok = d.warehouses[warehouseID] })
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return &w, nil
}

func (r *StockRepo) QuantityBefore(_ context.Context, productID, warehouseID id.ID, t time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	r.s.read(func(d *data) {
		for _, m := range d.movements {
			if m.ProductID == productID && m.MovementDate.Before(t) {
				total = total.Add(signedQuantity(m, warehouseID))
			}
		}
	})
	return total, nil
}

func (r *StockRepo) QuantityAddedIn(_ context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	r.s.read(func(d *data) {
		for _, m := range d.movements {
			if m.ProductID != productID || !within(m.MovementDate, from, to) {
				continue
			}
			switch {
			case m.Kind == stock.KindEntry && m.WarehouseID == warehouseID:
				if !strings.HasPrefix(m.Reference, stock.CancelReferencePrefix) {
					total = total.Add(m.Quantity)
				}
			case m.Kind == stock.KindTransfer && m.DestinationWarehouseID != nil && *m.DestinationWarehouseID == warehouseID:
				total = total.Add(m.Quantity)
			}
		}
	})
	return total, nil
}

func (r *StockRepo) QuantitySoldIn(_ context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	r.s.read(func(d *data) {
		for _, m := range d.movements {
			if m.ProductID != productID || m.WarehouseID != warehouseID || !within(m.MovementDate, from, to) {
				continue
			}
			switch {
			case m.Kind == stock.KindExit && strings.HasPrefix(m.Reference, stock.SaleReferencePrefix):
				total = total.Add(m.Quantity)
			case m.Kind == stock.KindEntry && strings.HasPrefix(m.Reference, stock.CancelReferencePrefix+stock.SaleReferencePrefix):
				total = total.Sub(m.Quantity)
			}
		}
	})
	return total, nil
}

func (r *StockRepo) PurchasesAndTransfersIn(_ context.Context, productID id.ID, from, to time.Time) (stock.PurchaseSummary, error) {
	sum := stock.PurchaseSummary{Purchases: decimal.Zero, Transfers: decimal.Zero}
	r.s.read(func(d *data) {
		for _, m := range d.movements {
			if m.ProductID != productID || !within(m.MovementDate, from, to) {
				continue
			}
			switch m.Kind {
			case stock.KindEntry:
				if !strings.HasPrefix(m.Reference, stock.CancelReferencePrefix) {
					sum.Purchases = sum.Purchases.Add(m.Quantity)
				}
			case stock.KindTransfer:
				sum.Transfers = sum.Transfers.Add(m.Quantity)
			}
		}
	})
	return sum, nil
}

func (d *data) line(productID, warehouseID id.ID) stock.Line {
	if l, ok := d.lines[lineKey{productID, warehouseID}]; ok {
		return l
	}
	return stock.Line{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero, UnitCost: decimal.Zero}
}

// signedQuantity is the effect of m on the quantity held in warehouseID.
func signedQuantity(m stock.Movement, warehouseID id.ID) decimal.Decimal {
	switch m.Kind {
	case stock.KindEntry, stock.KindAdjustment:
		if m.WarehouseID == warehouseID {
			return m.Quantity
		}
	case stock.KindExit:
		if m.WarehouseID == warehouseID {
			return m.Quantity.Neg()
		}
	case stock.KindTransfer:
		if m.WarehouseID == warehouseID {
			return m.Quantity.Neg()
		}
		if m.DestinationWarehouseID != nil && *m.DestinationWarehouseID == warehouseID {
			return m.Quantity
		}
	}
	return decimal.Zero
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// PutWarehouse stores a warehouse as is.
func (s *Store) PutWarehouse(w stock.Warehouse) {
	s.read(func(d *data) { d.warehouses[w.ID] = w })
}

// PutStockLine stores a stock line as is, without a movement.
func (s *Store) PutStockLine(l stock.Line) {
	s.read(func(d *data) { d.lines[lineKey{l.ProductID, l.WarehouseID}] = l })
}

// StockLine returns the committed line of a product in a warehouse.
func (s *Store) StockLine(productID, warehouseID id.ID) stock.Line {
	var l stock.Line
	s.read(func(d *data) { l = d.line(productID, warehouseID) })
	return l
}

// Movements returns every committed movement in insertion order.
func (s *Store) Movements() []stock.Movement {
	var out []stock.Movement
	s.read(func(d *data) { out = slices.Clone(d.movements) })
	return out
}
