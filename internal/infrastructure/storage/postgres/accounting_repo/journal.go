package accounting_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/journal"
	"ayanna/internal/infrastructure/storage/postgres"
)

const (
	journalsTable = "compta_journaux"
	linesTable    = "compta_ecritures"
)

var (
	journalColumns = []string{
		"id", "date_operation", "libelle", "montant", "type_operation", "reference", "description",
		"enterprise_id", "pos_id", "reversal_of", "user_id", "created_at", "updated_at",
	}
	lineColumns = []string{
		"id", "journal_id", "compte_comptable_id", "debit", "credit", "ordre", "libelle",
	}
)

var _ journal.Repository = (*JournalRepo)(nil)

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create writes the header, then every line in one batch.
func (r *JournalRepo) Create(ctx context.Context, j *journal.Journal) error {
	sql, args, err := r.builder.Insert(journalsTable).
		Columns(journalColumns...).
		Values(
			j.ID, j.Date, j.Label, j.Amount, j.Kind, j.Reference, j.Description,
			j.EnterpriseID, j.POSID, j.ReversalOf, j.UserID, j.CreatedAt, j.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	q := r.txm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal %s: %w", j.ID, err)
	}

	if len(j.Lines) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if r.txm.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(j.Lines))
		for _, l := range j.Lines {
			rows = append(rows, []any{
				l.ID, l.JournalID, l.AccountID,
				postgres.Numeric(l.Debit), postgres.Numeric(l.Credit), l.Ordinal, l.Label,
			})
		}
		if _, err := postgres.NewBatchInserter(r.txm).CopyFromSlice(ctx, linesTable, lineColumns, rows); err != nil {
			return fmt.Errorf("copy journal lines: %w", err)
		}
		return nil
	}

	sql, args, err = r.insertLinesQuery(j.Lines).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal lines: %w", err)
	}
	return nil
}

func (r *JournalRepo) insertLinesQuery(lines []journal.Line) squirrel.InsertBuilder {
	q := r.builder.Insert(linesTable).Columns(lineColumns...)
	for _, l := range lines {
		q = q.Values(l.ID, l.JournalID, l.AccountID, l.Debit, l.Credit, l.Ordinal, l.Label)
	}
	return q
}

// Get returns a journal with its lines ordered by ordinal.
func (r *JournalRepo) Get(ctx context.Context, journalID id.ID) (*journal.Journal, error) {
	journals, err := r.selectJournals(ctx, squirrel.Eq{"id": journalID})
	if err != nil {
		return nil, err
	}
	if len(journals) == 0 {
		return nil, apperror.NewNotFound("journal", journalID)
	}
	return &journals[0], nil
}

// FindByReference returns the journals of a kind carrying reference, oldest first.
func (r *JournalRepo) FindByReference(ctx context.Context, reference string, kind journal.Kind) ([]journal.Journal, error) {
	where := squirrel.Eq{"reference": reference}
	if kind != "" {
		where["type_operation"] = kind
	}
	return r.selectJournals(ctx, where)
}

// IsReversed reports whether a reversal of journalID exists.
func (r *JournalRepo) IsReversed(ctx context.Context, journalID id.ID) (bool, error) {
	var exists bool
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM compta_journaux WHERE reversal_of = $1)`, journalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reversal of %s: %w", journalID, err)
	}
	return exists, nil
}

func (r *JournalRepo) selectJournals(ctx context.Context, where squirrel.Sqlizer) ([]journal.Journal, error) {
	sql, args, err := r.builder.Select(journalColumns...).
		From(journalsTable).
		Where(where).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := r.txm.GetQuerier(ctx)
	var journals []journal.Journal
	if err := pgxscan.Select(ctx, q, &journals, sql, args...); err != nil {
		return nil, fmt.Errorf("select journals: %w", err)
	}
	if len(journals) == 0 {
		return nil, nil
	}

	ids := make([]id.ID, len(journals))
	for i, j := range journals {
		ids[i] = j.ID
	}
	sql, args, err = r.builder.Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"journal_id": ids}).
		OrderBy("journal_id", "ordre").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []journal.Line
	if err := pgxscan.Select(ctx, q, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select journal lines: %w", err)
	}

	byJournal := make(map[id.ID][]journal.Line, len(journals))
	for _, l := range lines {
		byJournal[l.JournalID] = append(byJournal[l.JournalID], l)
	}
	for i := range journals {
		journals[i].Lines = byJournal[journals[i].ID]
	}
	return journals, nil
}
