package report_repo

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/reports"
	"ayanna/internal/infrastructure/storage/postgres/document_repo"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func TestOrdersQuery_EventUsesLegacyColumns(t *testing.T) {
	q, err := ordersQuery(builder, catalog.ModuleEvent)
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "'event' AS module")
	assert.Contains(t, sql, "h.reference AS number")
	assert.Contains(t, sql, "h.total_amount AS total_final")
	assert.Contains(t, sql, "FROM event_reservations h")
	assert.Contains(t, sql, "LEFT JOIN core_clients c ON c.id = h.partner_id")
	assert.Contains(t, sql, "LEFT JOIN event_services s ON s.id = l.service_id")
	assert.Contains(t, sql, "FROM event_payments WHERE reservation_id = h.id")
}

func TestOrdersQuery_RestaurantHasNoServices(t *testing.T) {
	q, err := ordersQuery(builder, catalog.ModuleRestaurant)
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "service_id")
	assert.Contains(t, sql, "FROM restau_produit_panier l")
}

func TestOrdersQuery_UnknownModule(t *testing.T) {
	_, err := ordersQuery(builder, "bar")
	assert.Error(t, err)
}

func TestApplyOrderFilter(t *testing.T) {
	q, err := ordersQuery(builder, catalog.ModuleShop)
	require.NoError(t, err)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err := applyOrderFilter(q, document_repo.ModuleTables[catalog.ModuleShop].Number, reports.OrderFilter{
		From:   from,
		Method: "Cash",
		Search: " cmd-1 ",
		Limit:  20,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "h.created_at >= $1")
	assert.Contains(t, sql, "LOWER(h.payment_method) = LOWER($2)")
	assert.Contains(t, sql, "(h.numero_commande ILIKE $3 OR c.name ILIKE $4)")
	assert.Contains(t, sql, "ORDER BY h.created_at DESC LIMIT 20")
	require.Len(t, args, 4)
	assert.Equal(t, from, args[0])
	assert.Equal(t, "%cmd-1%", args[2])
}

func TestPeriodOrdersQuery_ExcludesCancelled(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sql, args, err := periodOrdersQuery(builder, catalog.ModuleShop, from, to)
	require.NoError(t, err)

	assert.Contains(t, sql, "h.total_final - h.remise_amount AS net")
	assert.Contains(t, sql, "LOWER(TRIM(h.status)) NOT IN ($3,$4,$5)")
	require.Len(t, args, 2+len(reports.CancelledStatuses))
	assert.Equal(t, "cancelled", args[2])
}
