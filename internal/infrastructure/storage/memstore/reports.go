package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/reports"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
)

// ReportRepo implements reports.Repository over the committed carts.
type ReportRepo struct{ s *Store }

// Reports returns the reporting repository.
func (s *Store) Reports() *ReportRepo { return &ReportRepo{s: s} }

func (r *ReportRepo) ListOrders(_ context.Context, module catalog.Module, f reports.OrderFilter) ([]reports.Order, error) {
	var out []reports.Order
	r.s.read(func(d *data) {
		search := strings.ToLower(strings.TrimSpace(f.Search))
		for _, c := range d.carts[module] {
			if !f.From.IsZero() && c.CreatedAt.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && c.CreatedAt.After(f.To) {
				continue
			}
			if f.Method != "" && !strings.EqualFold(c.PaymentMethod, f.Method) {
				continue
			}
			o := d.order(module, c)
			if search != "" &&
				!strings.Contains(strings.ToLower(o.Number), search) &&
				!strings.Contains(strings.ToLower(o.ClientName), search) {
				continue
			}
			out = append(out, o)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ReportRepo) GetOrder(_ context.Context, module catalog.Module, orderID id.ID) (*reports.OrderDetail, error) {
	var (
		detail reports.OrderDetail
		ok     bool
	)
	r.s.read(func(d *data) {
		var c sales.Cart
		if c, ok = d.carts[module][orderID]; !ok {
			return
		}
		detail.Order = d.order(module, c)
		for _, l := range c.Lines {
			detail.Lines = append(detail.Lines, reports.OrderLine{
				Kind:      string(l.Kind),
				ItemID:    l.ItemID,
				Name:      d.itemName(l),
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Total:     l.Total,
			})
		}
		for _, p := range c.Payments {
			detail.Payments = append(detail.Payments, reports.OrderPayment{
				ID: p.ID, Amount: p.Amount, Method: p.Method, Date: p.Date,
			})
		}
	})
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return &detail, nil
}

func (r *ReportRepo) PeriodOrders(_ context.Context, module catalog.Module, from, to time.Time) ([]reports.OrderAmounts, error) {
	var out []reports.OrderAmounts
	r.s.read(func(d *data) {
		for _, c := range d.carts[module] {
			if reports.IsCancelled(string(c.Status)) || !within(c.CreatedAt, from, to) {
				continue
			}
			out = append(out, reports.OrderAmounts{ID: c.ID, Net: c.Net(), Paid: c.Paid()})
		}
	})
	return out, nil
}

func (r *ReportRepo) WarehouseProducts(_ context.Context, warehouseID id.ID) ([]reports.ProductRef, error) {
	seen := make(map[id.ID]bool)
	var ids []id.ID
	add := func(productID id.ID) {
		if !seen[productID] {
			seen[productID] = true
			ids = append(ids, productID)
		}
	}

	var out []reports.ProductRef
	r.s.read(func(d *data) {
		for k := range d.lines {
			if k.warehouse == warehouseID {
				add(k.product)
			}
		}
		for _, m := range d.movements {
			if m.WarehouseID == warehouseID ||
				(m.Kind == stock.KindTransfer && m.DestinationWarehouseID != nil && *m.DestinationWarehouseID == warehouseID) {
				add(m.ProductID)
			}
		}
		for _, pid := range ids {
			if p, ok := d.products[pid]; ok {
				out = append(out, reports.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price})
			}
		}
	})
	slices.SortFunc(out, func(a, b reports.ProductRef) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (d *data) order(module catalog.Module, c sales.Cart) reports.Order {
	o := reports.Order{
		ID:         c.ID,
		Module:     module,
		Number:     c.Number,
		POSID:      c.POSID,
		CreatedAt:  c.CreatedAt,
		Subtotal:   c.Subtotal,
		TaxAmount:  c.TaxAmount,
		Discount:   c.DiscountAmount,
		TotalFinal: c.TotalFinal,
		Method:     c.PaymentMethod,
		Status:     string(c.Status),
		QtyTotal:   decimal.Zero,
		AmountPaid: c.Paid(),
	}
	if c.ClientID != nil {
		o.ClientName = d.clients[*c.ClientID].Name
	}
	names := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		names = append(names, d.itemName(l)+" x"+l.Quantity.String())
		o.QtyTotal = o.QtyTotal.Add(l.Quantity)
	}
	o.ItemsSummary = strings.Join(names, ", ")
	return o
}

func (d *data) itemName(l sales.Line) string {
	if l.Kind == sales.LineService {
		return d.services[l.ItemID].Name
	}
	return d.products[l.ItemID].Name
}
