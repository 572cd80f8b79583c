// Package catalog_repo provides PostgreSQL implementations for the catalog:
// enterprises, points of sale, products, services and clients.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/infrastructure/storage/postgres"
)

// BaseRepo provides id-keyed reads and writes for one table whose row type T
// carries "db" tags.
type BaseRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
}

// NewBaseRepo creates a base repository; columns come from T's db tags.
func NewBaseRepo[T any](txm *postgres.TxManager, tableName, entityName string) *BaseRepo[T] {
	return &BaseRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.Columns[T](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new row using its "db" tags.
func (r *BaseRepo[T]) Create(ctx context.Context, row *T) error {
	data := r.columnsOf(row, false)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// Update rewrites every column but id.
func (r *BaseRepo[T]) Update(ctx context.Context, entityID id.ID, row *T) error {
	data := r.columnsOf(row, true)

	sql, args, err := r.Builder().Update(r.tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID)
	}
	return nil
}

// GetByID retrieves a row by id or a NotFound AppError.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (*T, error) {
	sql, args, err := r.Builder().Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := new(T)
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, entityID)
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return row, nil
}

// GetByIDs retrieves the rows found among ids.
func (r *BaseRepo[T]) GetByIDs(ctx context.Context, ids []id.ID) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.Builder().Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []T
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return rows, nil
}

func (r *BaseRepo[T]) columnsOf(row *T, skipID bool) map[string]any {
	all := postgres.ColumnValues(row)
	data := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if skipID && col == "id" {
			continue
		}
		if v, ok := all[col]; ok {
			data[col] = v
		}
	}
	return data
}
