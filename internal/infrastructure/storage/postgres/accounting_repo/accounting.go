// Package accounting_repo provides PostgreSQL implementations of the chart of
// accounts, the posting configuration and the journal store.
package accounting_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/infrastructure/storage/postgres"
)

const (
	classesTable  = "compta_classes"
	accountsTable = "compta_comptes"
	configTable   = "compta_config"

	accountCodeConstraint = "compta_comptes_numero_enterprise_key"
)

var configColumns = []string{
	"id", "pos_id", "enterprise_id",
	"compte_caisse_id", "compte_client_id", "compte_vente_id",
	"compte_remise_id", "compte_achat_id", "compte_tva_id", "compte_stock_id", "compte_cout_id",
}

var _ accounting.Repository = (*AccountingRepo)(nil)

// AccountingRepo implements accounting.Repository and journal.AccountChecker.
type AccountingRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewAccountingRepo creates a new accounting repository.
func NewAccountingRepo(txm *postgres.TxManager) *AccountingRepo {
	return &AccountingRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetConfigByPOS returns the posting configuration of a POS.
func (r *AccountingRepo) GetConfigByPOS(ctx context.Context, posID id.ID) (*accounting.Config, error) {
	sql, args, err := r.builder.Select(configColumns...).
		From(configTable).
		Where(squirrel.Eq{"pos_id": posID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg accounting.Config
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("accounting config", posID)
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig upserts the configuration of a POS.
func (r *AccountingRepo) SaveConfig(ctx context.Context, cfg *accounting.Config) error {
	if id.IsNil(cfg.ID) {
		cfg.BaseEntity = entity.NewBaseEntity()
	}

	sql, args, err := r.saveConfigQuery(cfg).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save config for pos %s: %w", cfg.POSID, err)
	}
	return nil
}

func (r *AccountingRepo) saveConfigQuery(cfg *accounting.Config) squirrel.InsertBuilder {
	return r.builder.Insert(configTable).
		Columns(configColumns...).
		Values(
			cfg.ID, cfg.POSID, cfg.EnterpriseID,
			cfg.CashAccountID, cfg.ClientAccountID, cfg.SalesAccountID,
			cfg.DiscountAccountID, cfg.PurchaseAccountID, cfg.TaxAccountID, cfg.StockAccountID, cfg.CostOfGoodsAccountID,
		).
		Suffix(`ON CONFLICT (pos_id) DO UPDATE SET
			compte_caisse_id = EXCLUDED.compte_caisse_id,
			compte_client_id = EXCLUDED.compte_client_id,
			compte_vente_id = EXCLUDED.compte_vente_id,
			compte_remise_id = EXCLUDED.compte_remise_id,
			compte_achat_id = EXCLUDED.compte_achat_id,
			compte_tva_id = EXCLUDED.compte_tva_id,
			compte_stock_id = EXCLUDED.compte_stock_id,
			compte_cout_id = EXCLUDED.compte_cout_id`)
}

// ListAccounts returns the active accounts of an enterprise ordered by code.
func (r *AccountingRepo) ListAccounts(ctx context.Context, enterpriseID id.ID, classCode *int) ([]accounting.Account, error) {
	sql, args, err := r.listAccountsQuery(enterpriseID, classCode).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var accounts []accounting.Account
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountingRepo) listAccountsQuery(enterpriseID id.ID, classCode *int) squirrel.SelectBuilder {
	q := r.builder.Select(
		"a.id", "a.enterprise_id", "a.classe_id", "c.code AS class_code",
		"a.numero", "a.nom", "a.is_active",
	).
		From(accountsTable + " a").
		Join(classesTable + " c ON c.id = a.classe_id").
		Where(squirrel.Eq{"a.enterprise_id": enterpriseID, "a.is_active": true}).
		OrderBy("a.numero")
	if classCode != nil {
		q = q.Where(squirrel.Eq{"c.code": *classCode})
	}
	return q
}

// EnsureClass returns the class for (code, enterprise), creating it when absent.
func (r *AccountingRepo) EnsureClass(ctx context.Context, enterpriseID id.ID, code int, name string) (*accounting.Class, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	sql, args, err := r.builder.Insert(classesTable).
		Columns("id", "enterprise_id", "code", "name").
		Values(id.New(), enterpriseID, code, name).
		Suffix("ON CONFLICT (code, enterprise_id) DO UPDATE SET name = " + classesTable + ".name RETURNING id, enterprise_id, code, name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	var class accounting.Class
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &class, sql, args...); err != nil {
		return nil, fmt.Errorf("ensure class %d: %w", code, err)
	}
	return &class, nil
}

// CreateAccount inserts an account; a (code, enterprise) conflict yields DuplicateAccountCode.
func (r *AccountingRepo) CreateAccount(ctx context.Context, account *accounting.Account) error {
	sql, args, err := r.builder.Insert(accountsTable).
		Columns("id", "enterprise_id", "classe_id", "numero", "nom", "is_active").
		Values(account.ID, account.EnterpriseID, account.ClassID, account.Code, account.Name, account.IsActive).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, accountCodeConstraint) {
			return apperror.NewDuplicateAccountCode(account.Code, account.EnterpriseID).WithCause(err)
		}
		return fmt.Errorf("insert account %s: %w", account.Code, err)
	}
	return nil
}

// MissingAccounts returns the ids with no account row.
func (r *AccountingRepo) MissingAccounts(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.builder.Select("id").
		From(accountsTable).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []id.ID
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}

	present := make(map[id.ID]bool, len(found))
	for _, v := range found {
		present[v] = true
	}
	var missing []id.ID
	for _, v := range ids {
		if !present[v] {
			missing = append(missing, v)
		}
	}
	return missing, nil
}
