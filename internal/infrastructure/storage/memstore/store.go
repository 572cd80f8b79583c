// Package memstore keeps every repository in process memory behind a unit of work
// that restores a snapshot on rollback. Sessions run one at a time.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"ayanna/internal/core/apperror"
	appctx "ayanna/internal/core/context"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/events"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
)

type lineKey struct {
	product   id.ID
	warehouse id.ID
}

// AuditRecord is a stored snapshot.
type AuditRecord struct {
	EntityType string
	EntityID   id.ID
	Action     string
	Payload    []byte
}

type data struct {
	enterprises map[id.ID]catalog.Enterprise
	pos         map[id.ID]catalog.POS
	products    map[id.ID]catalog.Product
	services    map[id.ID]catalog.ServiceItem
	clients     map[id.ID]catalog.Client

	classes  []accounting.Class
	accounts map[id.ID]accounting.Account
	configs  map[id.ID]accounting.Config

	journals []journal.Journal

	warehouses map[id.ID]stock.Warehouse
	lines      map[lineKey]stock.Line
	movements  []stock.Movement

	carts     map[catalog.Module]map[id.ID]sales.Cart
	sequences map[string]int64

	outbox []events.Event
	audits []AuditRecord
}

func newData() *data {
	d := &data{
		enterprises: make(map[id.ID]catalog.Enterprise),
		pos:         make(map[id.ID]catalog.POS),
		products:    make(map[id.ID]catalog.Product),
		services:    make(map[id.ID]catalog.ServiceItem),
		clients:     make(map[id.ID]catalog.Client),
		accounts:    make(map[id.ID]accounting.Account),
		configs:     make(map[id.ID]accounting.Config),
		warehouses:  make(map[id.ID]stock.Warehouse),
		lines:       make(map[lineKey]stock.Line),
		carts:       make(map[catalog.Module]map[id.ID]sales.Cart),
		sequences:   make(map[string]int64),
	}
	for _, m := range catalog.Modules {
		d.carts[m] = make(map[id.ID]sales.Cart)
	}
	return d
}

// clone deep-copies every slice that a repository mutates in place.
func (d *data) clone() *data {
	c := &data{
		enterprises: maps.Clone(d.enterprises),
		pos:         maps.Clone(d.pos),
		products:    maps.Clone(d.products),
		services:    maps.Clone(d.services),
		clients:     maps.Clone(d.clients),
		classes:     slices.Clone(d.classes),
		accounts:    maps.Clone(d.accounts),
		configs:     maps.Clone(d.configs),
		journals:    make([]journal.Journal, len(d.journals)),
		warehouses:  maps.Clone(d.warehouses),
		lines:       maps.Clone(d.lines),
		movements:   slices.Clone(d.movements),
		carts:       make(map[catalog.Module]map[id.ID]sales.Cart, len(d.carts)),
		sequences:   maps.Clone(d.sequences),
		outbox:      slices.Clone(d.outbox),
		audits:      slices.Clone(d.audits),
	}
	for i, j := range d.journals {
		c.journals[i] = copyJournal(j)
	}
	for m, carts := range d.carts {
		c.carts[m] = make(map[id.ID]sales.Cart, len(carts))
		for k, cart := range carts {
			c.carts[m][k] = copyCart(cart)
		}
	}
	return c
}

func copyCart(c sales.Cart) sales.Cart {
	c.Lines = slices.Clone(c.Lines)
	c.Payments = slices.Clone(c.Payments)
	return c
}

func copyJournal(j journal.Journal) journal.Journal {
	j.Lines = slices.Clone(j.Lines)
	return j
}

// Store is the in-memory database.
type Store struct {
	txMu sync.Mutex // held for a whole session
	mu   sync.Mutex // held for one repository call
	d    *data
	seq  int
}

// New creates an empty store.
func New() *Store {
	return &Store{d: newData()}
}

// RunInTransaction implements tx.Manager. A context already carrying a session joins
// it; otherwise the session takes the store exclusively and restores the snapshot
// taken on entry when fn fails or panics.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if appctx.GetSessionID(ctx) != "" {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.seq++
	session := fmt.Sprintf("mem-%d", s.seq)
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
			err = apperror.WithSession(err, session)
		}
	}()

	return fn(appctx.WithSessionID(ctx, session))
}

func (s *Store) restore(snapshot *data) {
	s.mu.Lock()
	s.d = snapshot
	s.mu.Unlock()
}

func (s *Store) read(fn func(d *data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.d)
}
