package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/postgres/catalog_repo"
	"ayanna/internal/infrastructure/storage/postgres/register_repo"
	"ayanna/pkg/logger"
)

const demoEnterpriseName = "Ayanna Demo"

// demoAccounts is the chart seeded for the demo enterprise, keyed by role.
var demoAccounts = []struct {
	role  string
	code  string
	name  string
	class int
}{
	{"stock", "311", "Marchandises", 3},
	{"client", "411", "Clients", 4},
	{"tax", "443", "Etat, TVA facturée", 4},
	{"cash", "571", "Caisse", 5},
	{"purchase", "601", "Achats de marchandises", 6},
	{"cogs", "603", "Variation des stocks de marchandises", 6},
	{"discount", "673", "Escomptes accordés", 6},
	{"sales", "701", "Ventes de marchandises", 7},
	{"services", "706", "Services vendus", 7},
}

// demoPoints are the points of sale, one per module, each with its own warehouse.
var demoPoints = []struct {
	module    catalog.Module
	code      string
	name      string
	warehouse string
}{
	{catalog.ModuleShop, "SHOP", "Boutique", "POS_2"},
	{catalog.ModuleRestaurant, "RESTO", "Restaurant", "POS_4"},
	{catalog.ModuleEvent, "EVT", "Salle des fêtes", "EVT_1"},
}

var demoProducts = []struct {
	name  string
	price string
	cost  string
	stock int64
}{
	{"Eau minérale 50cl", "1.50", "0.80", 200},
	{"Jus de mangue", "3.00", "1.60", 120},
	{"Poulet braisé", "12.00", "6.50", 40},
	{"Gâteau de fête", "45.00", "25.00", 10},
}

var demoServices = []struct {
	module catalog.Module
	name   string
	price  string
}{
	{catalog.ModuleShop, "Emballage cadeau", "2.00"},
	{catalog.ModuleShop, "Livraison", "5.00"},
	{catalog.ModuleEvent, "Location de salle", "500.00"},
	{catalog.ModuleEvent, "Décoration", "150.00"},
}

type seeder struct {
	catalog    *catalog_repo.CatalogRepo
	warehouses *register_repo.StockRepo
	accounting *accounting.Service
	stock      *stock.Service

	enterpriseID id.ID
	accounts     map[string]id.ID
}

// seed runs inside one session; any failure leaves the database untouched.
func (s *seeder) seed(ctx context.Context) error {
	now := time.Now().UTC()

	enterprise := &catalog.Enterprise{
		BaseEntity: entity.NewBaseEntity(),
		Name:       demoEnterpriseName,
		Address:    "Kinshasa, Gombe",
		Phone:      "+243 81 234 5678",
		Currency:   catalog.CurrencyUSD,
	}
	if err := enterprise.Validate(ctx); err != nil {
		return err
	}
	enterprise.Stamp(ctx, now)
	if err := s.catalog.CreateEnterprise(ctx, enterprise); err != nil {
		return fmt.Errorf("create enterprise: %w", err)
	}
	s.enterpriseID = enterprise.ID

	s.accounts = make(map[string]id.ID, len(demoAccounts))
	for _, a := range demoAccounts {
		account, err := s.accounting.UpsertAccount(ctx, accounting.UpsertAccountInput{
			EnterpriseID: enterprise.ID,
			Code:         a.code,
			Name:         a.name,
			Class:        a.class,
		})
		if err != nil {
			return fmt.Errorf("create account %s: %w", a.code, err)
		}
		s.accounts[a.role] = account.ID
	}

	warehouses := make(map[catalog.Module]id.ID, len(demoPoints))
	for _, p := range demoPoints {
		w := &stock.Warehouse{
			BaseEntity:   entity.NewBaseEntity(),
			EnterpriseID: enterprise.ID,
			Code:         p.warehouse,
			Name:         p.name,
			IsActive:     true,
		}
		if err := s.warehouses.CreateWarehouse(ctx, w); err != nil {
			return fmt.Errorf("create warehouse %s: %w", p.warehouse, err)
		}
		warehouses[p.module] = w.ID

		pos := &catalog.POS{
			BaseEntity:   entity.NewBaseEntity(),
			EnterpriseID: enterprise.ID,
			Module:       p.module,
			Code:         p.code,
			Name:         p.name,
			WarehouseID:  w.ID,
			TaxRate:      decimal.NewFromInt(16),
			IsActive:     true,
		}
		if err := s.catalog.CreatePOS(ctx, pos); err != nil {
			return fmt.Errorf("create pos %s: %w", p.code, err)
		}
		if err := s.accounting.SaveConfig(ctx, s.config(pos.ID)); err != nil {
			return fmt.Errorf("save accounting config %s: %w", p.code, err)
		}
		logger.Info(ctx, "point of sale seeded", "pos_id", pos.ID, "module", p.module, "warehouse", p.warehouse)
	}

	if err := s.seedProducts(ctx, warehouses, now); err != nil {
		return err
	}
	return s.seedServices(ctx)
}

func (s *seeder) config(posID id.ID) *accounting.Config {
	opt := func(role string) *id.ID {
		v := s.accounts[role]
		return &v
	}
	return &accounting.Config{
		BaseEntity:           entity.NewBaseEntity(),
		POSID:                posID,
		EnterpriseID:         s.enterpriseID,
		CashAccountID:        s.accounts["cash"],
		ClientAccountID:      s.accounts["client"],
		SalesAccountID:       s.accounts["sales"],
		DiscountAccountID:    opt("discount"),
		PurchaseAccountID:    opt("purchase"),
		TaxAccountID:         opt("tax"),
		StockAccountID:       opt("stock"),
		CostOfGoodsAccountID: opt("cogs"),
	}
}

// seedProducts creates the products and books their opening stock in every warehouse.
func (s *seeder) seedProducts(ctx context.Context, warehouses map[catalog.Module]id.ID, now time.Time) error {
	sales := s.accounts["sales"]
	purchase := s.accounts["purchase"]
	for _, p := range demoProducts {
		product := &catalog.Product{
			BaseEntity:        entity.NewBaseEntity(),
			EnterpriseID:      s.enterpriseID,
			Name:              p.name,
			Price:             decimal.RequireFromString(p.price),
			Cost:              decimal.RequireFromString(p.cost),
			SalesAccountID:    &sales,
			PurchaseAccountID: &purchase,
			IsActive:          true,
		}
		if err := s.catalog.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create product %q: %w", p.name, err)
		}
		for _, m := range catalog.Modules {
			_, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
				Kind:        stock.KindEntry,
				ProductID:   product.ID,
				WarehouseID: warehouses[m],
				Quantity:    decimal.NewFromInt(p.stock),
				UnitCost:    product.Cost,
				Reference:   "OPENING-" + string(m),
				When:        now,
			})
			if err != nil {
				return fmt.Errorf("opening stock %q: %w", p.name, err)
			}
		}
	}
	return nil
}

func (s *seeder) seedServices(ctx context.Context) error {
	salesAccount := s.accounts["services"]
	for _, svc := range demoServices {
		item := &catalog.ServiceItem{
			BaseEntity:     entity.NewBaseEntity(),
			EnterpriseID:   s.enterpriseID,
			Module:         svc.module,
			Name:           svc.name,
			Price:          decimal.RequireFromString(svc.price),
			SalesAccountID: &salesAccount,
			IsActive:       true,
		}
		if err := s.catalog.CreateService(ctx, item); err != nil {
			return fmt.Errorf("create service %q: %w", svc.name, err)
		}
	}
	return nil
}
