// Package document_repo provides the PostgreSQL cart store. Shop carts, restaurant
// carts and event reservations live in separate legacy table sets with the same shape.
package document_repo

import (
	"ayanna/internal/core/apperror"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/sales"
)

// Tables names the tables and the legacy columns of one module.
type Tables struct {
	Header   string
	Products string
	Services string // empty when the module sells no services
	Payments string

	// Parent is the cart foreign key of line and payment rows.
	Parent string

	Number string
	Total  string
	Client string

	// Extra header columns, already named like the Cart db tags.
	Extra []string
}

// ModuleTables maps each sales module to its table set.
var ModuleTables = map[catalog.Module]Tables{
	catalog.ModuleShop: {
		Header:   "shop_paniers",
		Products: "shop_paniers_products",
		Services: "shop_paniers_services",
		Payments: "shop_payments",
		Parent:   "panier_id",
		Number:   "numero_commande",
		Total:    "total_final",
		Client:   "client_id",
	},
	catalog.ModuleRestaurant: {
		Header:   "restau_paniers",
		Products: "restau_produit_panier",
		Payments: "restau_payments",
		Parent:   "panier_id",
		Number:   "numero_commande",
		Total:    "total_final",
		Client:   "client_id",
		Extra:    []string{"table_id", "server_id"},
	},
	catalog.ModuleEvent: {
		Header:   "event_reservations",
		Products: "event_reservation_products",
		Services: "event_reservation_services",
		Payments: "event_payments",
		Parent:   "reservation_id",
		Number:   "reference",
		Total:    "total_amount",
		Client:   "partner_id",
		Extra:    []string{"event_date", "guest_count", "event_type"},
	},
}

// TablesFor returns the table set of module.
func TablesFor(module catalog.Module) (Tables, error) {
	t, ok := ModuleTables[module]
	if !ok {
		return Tables{}, apperror.NewValidation("unknown sales module").WithDetail("module", string(module))
	}
	return t, nil
}

// headerSelect lists the header columns aliased to the Cart db tags.
func (t Tables) headerSelect() []string {
	cols := []string{
		"id", "pos_id", "enterprise_id",
		t.Client + " AS client_id",
		t.Number + " AS number",
		"status", "payment_method", "subtotal", "tax_rate", "tax_amount",
		"discount_percent", "remise_amount",
		t.Total + " AS total_final",
	}
	cols = append(cols, t.Extra...)
	return append(cols, "user_id", "created_at", "updated_at")
}

// lineTable returns the table holding lines of kind, or "" if the module has none.
func (t Tables) lineTable(kind sales.LineKind) (table, itemCol string) {
	if kind == sales.LineService {
		return t.Services, "service_id"
	}
	return t.Products, "product_id"
}

// headerValues maps the writable header columns to the values of cart.
func (t Tables) headerValues(cart *sales.Cart) map[string]any {
	values := map[string]any{
		t.Client:           cart.ClientID,
		"status":           cart.Status,
		"payment_method":   cart.PaymentMethod,
		"subtotal":         cart.Subtotal,
		"tax_rate":         cart.TaxRate,
		"tax_amount":       cart.TaxAmount,
		"discount_percent": cart.DiscountPercent,
		"remise_amount":    cart.DiscountAmount,
		t.Total:            cart.TotalFinal,
		"updated_at":       cart.UpdatedAt,
	}
	for _, col := range t.Extra {
		switch col {
		case "table_id":
			values[col] = cart.TableID
		case "server_id":
			values[col] = cart.ServerID
		case "event_date":
			values[col] = cart.EventDate
		case "guest_count":
			values[col] = cart.Guests
		case "event_type":
			values[col] = cart.EventType
		}
	}
	return values
}
