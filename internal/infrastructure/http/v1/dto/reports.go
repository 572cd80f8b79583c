package dto

import (
	"time"

	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/reports"
)

// OrdersQuery filters the order list. Dates are inclusive days.
type OrdersQuery struct {
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Search   string `form:"search" binding:"max=100"`
	Method   string `form:"method"`
	Module   string `form:"module" binding:"omitempty,oneof=shop restaurant event"`
	Limit    int    `form:"limit" binding:"min=0,max=1000"`
}

// ToFilter converts the query to the report filter.
func (q OrdersQuery) ToFilter() (reports.OrderFilter, error) {
	from, err := ParseDay("dateFrom", q.DateFrom, false)
	if err != nil {
		return reports.OrderFilter{}, err
	}
	to, err := ParseDay("dateTo", q.DateTo, true)
	if err != nil {
		return reports.OrderFilter{}, err
	}
	return reports.OrderFilter{
		From:   from,
		To:     to,
		Search: q.Search,
		Method: q.Method,
		Module: catalog.Module(q.Module),
		Limit:  q.Limit,
	}, nil
}

// PeriodQuery is a required inclusive day range.
type PeriodQuery struct {
	DateFrom string `form:"dateFrom" binding:"required"`
	DateTo   string `form:"dateTo" binding:"required"`
}

// Range parses both bounds of the period.
func (q PeriodQuery) Range() (from, to time.Time, err error) {
	if from, err = ParseDay("dateFrom", q.DateFrom, false); err != nil {
		return
	}
	to, err = ParseDay("dateTo", q.DateTo, true)
	return
}

// ProductsQuery selects the POS and period of the products summary.
type ProductsQuery struct {
	PeriodQuery
	POSID string `form:"posId" binding:"required"`
}

// ToFilter converts the query to the report filter.
func (q ProductsQuery) ToFilter() (reports.ProductsFilter, error) {
	posID, err := ParseID("posId", q.POSID)
	if err != nil {
		return reports.ProductsFilter{}, err
	}
	from, to, err := q.Range()
	if err != nil {
		return reports.ProductsFilter{}, err
	}
	return reports.ProductsFilter{POSID: posID, From: from, To: to}, nil
}
