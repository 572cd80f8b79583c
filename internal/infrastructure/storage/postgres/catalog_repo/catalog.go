package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/infrastructure/storage/postgres"
)

// ServiceTables maps each module that sells services to its table.
var ServiceTables = map[catalog.Module]string{
	catalog.ModuleShop:  "shop_services",
	catalog.ModuleEvent: "event_services",
}

var serviceColumns = []string{"id", "enterprise_id", "name", "price", "compte_vente_id", "is_active"}

var _ catalog.Repository = (*CatalogRepo)(nil)

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct {
	txm         *postgres.TxManager
	enterprises *BaseRepo[catalog.Enterprise]
	pos         *BaseRepo[catalog.POS]
	products    *BaseRepo[catalog.Product]
	clients     *BaseRepo[catalog.Client]
}

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txm *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{
		txm:         txm,
		enterprises: NewBaseRepo[catalog.Enterprise](txm, "core_enterprises", "enterprise"),
		pos:         NewBaseRepo[catalog.POS](txm, "core_pos", "point of sale"),
		products:    NewBaseRepo[catalog.Product](txm, "core_products", "product"),
		clients:     NewBaseRepo[catalog.Client](txm, "core_clients", "client"),
	}
}

func (r *CatalogRepo) GetEnterprise(ctx context.Context, enterpriseID id.ID) (*catalog.Enterprise, error) {
	return r.enterprises.GetByID(ctx, enterpriseID)
}

func (r *CatalogRepo) UpdateEnterprise(ctx context.Context, e *catalog.Enterprise) error {
	return r.enterprises.Update(ctx, e.ID, e)
}

// CreateEnterprise inserts an enterprise.
func (r *CatalogRepo) CreateEnterprise(ctx context.Context, e *catalog.Enterprise) error {
	return r.enterprises.Create(ctx, e)
}

func (r *CatalogRepo) GetPOS(ctx context.Context, posID id.ID) (*catalog.POS, error) {
	return r.pos.GetByID(ctx, posID)
}

// CreatePOS inserts a point of sale.
func (r *CatalogRepo) CreatePOS(ctx context.Context, p *catalog.POS) error {
	return r.pos.Create(ctx, p)
}

func (r *CatalogRepo) GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return r.products.GetByID(ctx, productID)
}

func (r *CatalogRepo) GetProducts(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error) {
	rows, err := r.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[id.ID]*catalog.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// CreateProduct inserts a product.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return r.products.Create(ctx, p)
}

func (r *CatalogRepo) GetService(ctx context.Context, serviceID id.ID) (*catalog.ServiceItem, error) {
	found, err := r.GetServices(ctx, []id.ID{serviceID})
	if err != nil {
		return nil, err
	}
	svc, ok := found[serviceID]
	if !ok {
		return nil, apperror.NewNotFound("service", serviceID)
	}
	return svc, nil
}

// GetServices looks ids up in every service table; the module is the table a row came from.
func (r *CatalogRepo) GetServices(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.ServiceItem, error) {
	out := make(map[id.ID]*catalog.ServiceItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sql, args, err := servicesQuery(ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []catalog.ServiceItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// servicesQuery unions the service tables, tagging each row with its module.
func servicesQuery(ids []id.ID) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, module := range []catalog.Module{catalog.ModuleShop, catalog.ModuleEvent} {
		cols := append([]string{fmt.Sprintf("'%s' AS module", module)}, serviceColumns...)
		sql, partArgs, err := squirrel.Select(cols...).
			From(ServiceTables[module]).
			Where(squirrel.Eq{"id": ids}).
			ToSql()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, partArgs...)
	}

	sql, err := squirrel.Dollar.ReplacePlaceholders(strings.Join(parts, " UNION ALL "))
	return sql, args, err
}

// CreateService inserts a service into its module's table.
func (r *CatalogRepo) CreateService(ctx context.Context, svc *catalog.ServiceItem) error {
	table, ok := ServiceTables[svc.Module]
	if !ok {
		return apperror.NewValidation("module does not sell services").WithDetail("module", svc.Module)
	}

	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(table).
		Columns(serviceColumns...).
		Values(svc.ID, svc.EnterpriseID, svc.Name, svc.Price, svc.SalesAccountID, svc.IsActive).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *CatalogRepo) GetClient(ctx context.Context, clientID id.ID) (*catalog.Client, error) {
	return r.clients.GetByID(ctx, clientID)
}

func (r *CatalogRepo) CreateClient(ctx context.Context, c *catalog.Client) error {
	return r.clients.Create(ctx, c)
}
