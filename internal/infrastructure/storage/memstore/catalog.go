package memstore

import (
	"context"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
)

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct{ s *Store }

// Catalog returns the catalog repository.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

func (r *CatalogRepo) GetEnterprise(_ context.Context, enterpriseID id.ID) (*catalog.Enterprise, error) {
	var (
		e  catalog.Enterprise
		ok bool
	)
	r.s.read(func(d *data) { e, ok = d.enterprises[enterpriseID] })
	if !ok {
		return nil, apperror.NewNotFound("enterprise", enterpriseID)
	}
	return &e, nil
}

func (r *CatalogRepo) UpdateEnterprise(_ context.Context, e *catalog.Enterprise) error {
	var err error
	r.s.read(func(d *data) {
		if _, ok := d.enterprises[e.ID]; !ok {
			err = apperror.NewNotFound("enterprise", e.ID)
			return
		}
		d.enterprises[e.ID] = *e
	})
	return err
}

func (r *CatalogRepo) GetPOS(_ context.Context, posID id.ID) (*catalog.POS, error) {
	var (
		p  catalog.POS
		ok bool
	)
	r.s.read(func(d *data) { p, ok = d.pos[posID] })
	if !ok {
		return nil, apperror.NewNotFound("point of sale", posID)
	}
	return &p, nil
}

func (r *CatalogRepo) GetProduct(_ context.Context, productID id.ID) (*catalog.Product, error) {
	var (
		p  catalog.Product
		ok bool
	)
	r.s.read(func(d *data) { p, ok = d.products[productID] })
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *CatalogRepo) GetProducts(_ context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error) {
	out := make(map[id.ID]*catalog.Product, len(ids))
	r.s.read(func(d *data) {
		for _, pid := range ids {
			if p, ok := d.products[pid]; ok {
				out[pid] = &p
			}
		}
	})
	return out, nil
}

func (r *CatalogRepo) GetService(_ context.Context, serviceID id.ID) (*catalog.ServiceItem, error) {
	var (
		svc catalog.ServiceItem
		ok  bool
	)
	r.s.read(func(d *data) { svc, ok = d.services[serviceID] })
	if !ok {
		return nil, apperror.NewNotFound("service", serviceID)
	}
	return &svc, nil
}

func (r *CatalogRepo) GetServices(_ context.Context, ids []id.ID) (map[id.ID]*catalog.ServiceItem, error) {
	out := make(map[id.ID]*catalog.ServiceItem, len(ids))
	r.s.read(func(d *data) {
		for _, sid := range ids {
			if svc, ok := d.services[sid]; ok {
				out[sid] = &svc
			}
		}
	})
	return out, nil
}

func (r *CatalogRepo) GetClient(_ context.Context, clientID id.ID) (*catalog.Client, error) {
	var (
		c  catalog.Client
		ok bool
	)
	r.s.read(func(d *data) { c, ok = d.clients[clientID] })
	if !ok {
		return nil, apperror.NewNotFound("client", clientID)
	}
	return &c, nil
}

func (r *CatalogRepo) CreateClient(_ context.Context, c *catalog.Client) error {
	r.s.read(func(d *data) { d.clients[c.ID] = *c })
	return nil
}

// --- seeding ---

// PutEnterprise stores an enterprise as is.
func (s *Store) PutEnterprise(e catalog.Enterprise) {
	s.read(func(d *data) { d.enterprises[e.ID] = e })
}

// PutPOS stores a point of sale as is.
func (s *Store) PutPOS(p catalog.POS) {
	s.read(func(d *data) { d.pos[p.ID] = p })
}

// PutProduct stores a product as is.
func (s *Store) PutProduct(p catalog.Product) {
	s.read(func(d *data) { d.products[p.ID] = p })
}

// PutService stores a service as is.
func (s *Store) PutService(svc catalog.ServiceItem) {
	s.read(func(d *data) { d.services[svc.ID] = svc })
}
