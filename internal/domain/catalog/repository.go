package catalog

import (
	"context"

	"ayanna/internal/core/id"
)

// Repository reads and writes catalog rows. Lookups of a missing row return a
// NotFound AppError.
type Repository interface {
	GetEnterprise(ctx context.Context, enterpriseID id.ID) (*Enterprise, error)
	UpdateEnterprise(ctx context.Context, e *Enterprise) error

	GetPOS(ctx context.Context, posID id.ID) (*POS, error)

	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	// GetProducts returns the products found among ids; absent ids are left out.
	GetProducts(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	GetService(ctx context.Context, serviceID id.ID) (*ServiceItem, error)
	GetServices(ctx context.Context, ids []id.ID) (map[id.ID]*ServiceItem, error)

	GetClient(ctx context.Context, clientID id.ID) (*Client, error)
	CreateClient(ctx context.Context, c *Client) error
}
