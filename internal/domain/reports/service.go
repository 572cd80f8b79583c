package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/core/types"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/stock"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// StockQueries are the stock ledger reads the products summary needs.
type StockQueries interface {
	QuantityBefore(ctx context.Context, productID, warehouseID id.ID, t time.Time) (decimal.Decimal, error)
	QuantityAddedIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error)
	PurchasesAndTransfersIn(ctx context.Context, productID id.ID, from, to time.Time) (stock.PurchaseSummary, error)
	QuantitySoldIn(ctx context.Context, productID, warehouseID id.ID, from, to time.Time) (decimal.Decimal, error)
}

// POSLookup resolves points of sale.
type POSLookup interface {
	POS(ctx context.Context, posID id.ID) (*catalog.POS, error)
}

// Service provides report generation operations.
type Service struct {
	repo  Repository
	stock StockQueries
	pos   POSLookup
}

// NewService creates a new reports service.
func NewService(repo Repository, st StockQueries, pos POSLookup) *Service {
	return &Service{repo: repo, stock: st, pos: pos}
}

// ListOrders returns orders across modules, newest first.
func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, apperror.NewValidation("dateFrom must not be after dateTo")
	}
	if filter.Module != "" && !filter.Module.Valid() {
		return nil, apperror.NewValidation("unknown module").WithDetail("module", filter.Module)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	modules := catalog.Modules
	if filter.Module != "" {
		modules = []catalog.Module{filter.Module}
	}

	var out []Order
	for _, m := range modules {
		orders, err := s.repo.ListOrders(ctx, m, filter)
		if err != nil {
			return nil, fmt.Errorf("list %s orders: %w", m, err)
		}
		out = append(out, orders...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// OrderDetail returns one order with its lines and payments.
func (s *Service) OrderDetail(ctx context.Context, module catalog.Module, orderID id.ID) (*OrderDetail, error) {
	if !module.Valid() {
		return nil, apperror.NewValidation("unknown module").WithDetail("module", module)
	}
	d, err := s.repo.GetOrder(ctx, module, orderID)
	if err != nil {
		return nil, err
	}
	d.Net = d.Order.Net()
	return d, nil
}

// PeriodFinancials totals the non-cancelled orders created in [from, to].
func (s *Service) PeriodFinancials(ctx context.Context, from, to time.Time) (*Financials, error) {
	if err := checkPeriod(from, to); err != nil {
		return nil, err
	}

	f := &Financials{From: from, To: to, CA: decimal.Zero, Paid: decimal.Zero, AvgBasket: decimal.Zero}
	for _, m := range catalog.Modules {
		orders, err := s.repo.PeriodOrders(ctx, m, from, to)
		if err != nil {
			return nil, fmt.Errorf("period %s orders: %w", m, err)
		}
		for _, o := range orders {
			f.CA = f.CA.Add(o.Net)
			f.Paid = f.Paid.Add(o.Paid)
			if o.Paid.LessThan(o.Net) {
				f.Receivables++
			}
			f.Orders++
		}
	}
	f.Unpaid = f.CA.Sub(f.Paid)
	if f.Orders > 0 {
		f.AvgBasket = types.RoundAmount(f.CA.Div(decimal.NewFromInt(int64(f.Orders))))
	}
	return f, nil
}

// ProductsSummary reports, per product of the POS warehouse, the quantity held at
// the start of the period, what came in, what was sold and what remains. Sales are
// read from the stock ledger, so a cart counts when its stock left and a cancelled
// cart nets to zero.
func (s *Service) ProductsSummary(ctx context.Context, filter ProductsFilter) ([]ProductRow, error) {
	if err := checkPeriod(filter.From, filter.To); err != nil {
		return nil, err
	}
	pos, err := s.pos.POS(ctx, filter.POSID)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.WarehouseProducts(ctx, pos.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("warehouse products: %w", err)
	}

	rows := make([]ProductRow, 0, len(products))
	for _, p := range products {
		initial, err := s.stock.QuantityBefore(ctx, p.ID, pos.WarehouseID, filter.From)
		if err != nil {
			return nil, err
		}
		added, err := s.stock.QuantityAddedIn(ctx, p.ID, pos.WarehouseID, filter.From, filter.To)
		if err != nil {
			return nil, err
		}
		purchases, err := s.stock.PurchasesAndTransfersIn(ctx, p.ID, filter.From, filter.To)
		if err != nil {
			return nil, err
		}
		q, err := s.stock.QuantitySoldIn(ctx, p.ID, pos.WarehouseID, filter.From, filter.To)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ProductRow{
			ProductID: p.ID,
			Name:      p.Name,
			Initial:   initial,
			Added:     added,
			Purchases: purchases.Total(),
			Sold:      q,
			Remaining: initial.Add(added).Sub(q),
			UnitPrice: p.Price,
			Total:     types.RoundAmount(q.Mul(p.Price)),
		})
	}
	return rows, nil
}

func checkPeriod(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.NewValidation("dateFrom and dateTo are required")
	}
	if from.After(to) {
		return apperror.NewValidation("dateFrom must not be after dateTo")
	}
	return nil
}
