package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/core/tx"
	"ayanna/pkg/logger"
)

// Service serves catalog lookups and keeps the enterprise cache coherent.
type Service struct {
	repo  Repository
	txm   tx.Manager
	cache *enterpriseCache
}

// NewService creates a new catalog service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm, cache: newEnterpriseCache()}
}

// Enterprise returns an enterprise, reading through the cache.
func (s *Service) Enterprise(ctx context.Context, enterpriseID id.ID) (*Enterprise, error) {
	if e, ok := s.cache.get(enterpriseID); ok {
		return e, nil
	}
	e, err := s.repo.GetEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}
	s.cache.put(e)
	return e, nil
}

// UpdateEnterprise stores e and drops its cached copy. A currency change applies to
// amounts rendered afterwards only.
func (s *Service) UpdateEnterprise(ctx context.Context, e *Enterprise) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	e.Touch(time.Now().UTC())

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateEnterprise(ctx, e)
	})
	// Invalidate even on failure: the stored row may have changed before the error.
	s.cache.invalidate(e.ID)
	if err != nil {
		return fmt.Errorf("update enterprise %s: %w", e.ID, err)
	}

	logger.Info(ctx, "enterprise updated", "enterprise_id", e.ID, "currency", e.Currency)
	return nil
}

// CurrencySymbol returns the display symbol of an enterprise's currency.
func (s *Service) CurrencySymbol(ctx context.Context, enterpriseID id.ID) (string, error) {
	e, err := s.Enterprise(ctx, enterpriseID)
	if err != nil {
		return "", err
	}
	return e.Currency.Symbol(), nil
}

// POS returns a point of sale.
func (s *Service) POS(ctx context.Context, posID id.ID) (*POS, error) {
	return s.repo.GetPOS(ctx, posID)
}

// TaxRate returns the tax rate applied by a point of sale, in percent.
func (s *Service) TaxRate(ctx context.Context, posID id.ID) (decimal.Decimal, error) {
	pos, err := s.repo.GetPOS(ctx, posID)
	if err != nil {
		return decimal.Zero, err
	}
	return pos.TaxRate, nil
}

// Product returns an active product.
func (s *Service) Product(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

// Products returns the products of ids, failing with NotFound on the first missing one.
func (s *Service) Products(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error) {
	found, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	for _, pid := range ids {
		if _, ok := found[pid]; !ok {
			return nil, apperror.NewNotFound("product", pid)
		}
	}
	return found, nil
}

// Service returns an active service.
func (s *Service) Service(ctx context.Context, serviceID id.ID) (*ServiceItem, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, apperror.NewNotFound("service", serviceID)
	}
	return svc, nil
}

// Services returns the services of ids, failing with NotFound on the first missing one.
func (s *Service) Services(ctx context.Context, ids []id.ID) (map[id.ID]*ServiceItem, error) {
	found, err := s.repo.GetServices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	for _, sid := range ids {
		if _, ok := found[sid]; !ok {
			return nil, apperror.NewNotFound("service", sid)
		}
	}
	return found, nil
}

// Client returns a client.
func (s *Service) Client(ctx context.Context, clientID id.ID) (*Client, error) {
	return s.repo.GetClient(ctx, clientID)
}

// CreateClient registers a client with its phone number normalized.
func (s *Service) CreateClient(ctx context.Context, c *Client) error {
	if id.IsNil(c.ID) {
		c.BaseEntity = entity.NewBaseEntity()
	}
	if err := c.Validate(ctx); err != nil {
		return err
	}
	c.Stamp(ctx, time.Now().UTC())
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateClient(ctx, c)
	})
}
