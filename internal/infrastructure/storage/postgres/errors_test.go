package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert account: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "compta_comptes_numero_enterprise_key",
	})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "compta_comptes_numero_enterprise_key"))
	assert.False(t, IsUniqueViolation(err, "other_key"))
	assert.False(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain"), ""))
}

func TestIsCheckViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23514", ConstraintName: "stock_produits_entrepot_quantity_check"}

	assert.True(t, IsCheckViolation(err))
	assert.False(t, IsUniqueViolation(err, ""))
}

func TestSchemaDeclaresLegacyTables(t *testing.T) {
	for _, table := range []string{
		"compta_journaux", "compta_ecritures", "compta_config", "stock_mouvements",
		"stock_produits_entrepot", "shop_paniers", "restau_paniers", "event_reservations",
		"sys_sequences", "sys_outbox", "sys_outbox_dlq", "sys_audit", "sys_idempotency",
	} {
		assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
}
