package journal

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

// Engine emits balanced journals and their reversals.
type Engine struct {
	repo     Repository
	accounts AccountChecker
	txm      tx.Manager
	strict   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrictInvariants makes invariant violations (unbalanced journal, unknown
// account) panic instead of returning an error. Meant for development builds.
func WithStrictInvariants(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// NewEngine creates a journal engine.
func NewEngine(repo Repository, accounts AccountChecker, txm tx.Manager, opts ...Option) *Engine {
	e := &Engine{repo: repo, accounts: accounts, txm: txm}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateLines checks the double-entry contract of lines without touching the store.
func ValidateLines(lines []LineInput) error {
	if len(lines) < 2 {
		return apperror.NewUnbalancedJournal("0", "0").
			WithDetail("reason", "a journal needs at least two lines")
	}
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return apperror.NewUnbalancedJournal(l.Debit.String(), l.Credit.String()).
				WithDetail("reason", "negative amount").
				WithDetail("ordinal", i+1)
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return apperror.NewUnbalancedJournal(l.Debit.String(), l.Credit.String()).
				WithDetail("reason", "exactly one of debit and credit must be positive").
				WithDetail("ordinal", i+1)
		}
	}
	debit, credit := Totals(lines)
	if !debit.IsPositive() || !debit.Equal(credit) {
		return apperror.NewUnbalancedJournal(debit.String(), credit.String())
	}
	return nil
}

// Post emits a journal within the caller's session.
// Fails with UnbalancedJournal when Σdebit ≠ Σcredit or either is zero, and with
// MissingAccount when a line references an unknown account.
func (e *Engine) Post(ctx context.Context, entry Entry) (*Journal, error) {
	if err := ValidateLines(entry.Lines); err != nil {
		return nil, e.invariant(ctx, entry, err)
	}

	var j *Journal
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		missing, err := e.accounts.MissingAccounts(ctx, lineAccounts(entry.Lines))
		if err != nil {
			return fmt.Errorf("check accounts: %w", err)
		}
		if len(missing) > 0 {
			return e.invariant(ctx, entry, apperror.NewMissingAccount(id.Strings(missing)))
		}

		j = build(ctx, entry)
		if err := e.repo.Create(ctx, j); err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "journal posted",
		"journal_id", j.ID,
		"kind", j.Kind,
		"reference", j.Reference,
		"amount", j.Amount,
	)
	return j, nil
}

// Reverse posts a `cancel` journal mirroring journalID: each line keeps its ordinal
// and account with debit and credit swapped. The original journal is left untouched.
func (e *Engine) Reverse(ctx context.Context, journalID id.ID, when time.Time, refSuffix string) (*Journal, error) {
	var mirror *Journal
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := e.repo.Get(ctx, journalID)
		if err != nil {
			return err
		}
		reversed, err := e.repo.IsReversed(ctx, journalID)
		if err != nil {
			return fmt.Errorf("check reversal: %w", err)
		}
		if reversed {
			return apperror.NewAlreadyCancelled("journal", journalID)
		}

		entry := Entry{
			Kind:         KindCancel,
			Label:        "Annulation " + original.Label,
			Reference:    original.Reference + refSuffix,
			Description:  fmt.Sprintf("reversal of %s journal %s", original.Kind, original.ID),
			EnterpriseID: original.EnterpriseID,
			POSID:        original.POSID,
			Date:         when,
			Lines:        make([]LineInput, len(original.Lines)),
		}
		for i, l := range original.Lines {
			entry.Lines[i] = LineInput{
				AccountID: l.AccountID,
				Debit:     l.Credit,
				Credit:    l.Debit,
				Label:     l.Label,
			}
		}
		if err := ValidateLines(entry.Lines); err != nil {
			return e.invariant(ctx, entry, err)
		}

		mirror = build(ctx, entry)
		mirror.ReversalOf = &original.ID
		return e.repo.Create(ctx, mirror)
	})
	if err != nil {
		return nil, fmt.Errorf("reverse journal %s: %w", journalID, err)
	}

	logger.Debug(ctx, "journal reversed", "journal_id", journalID, "reversal_id", mirror.ID)
	return mirror, nil
}

// Get returns a journal with its lines.
func (e *Engine) Get(ctx context.Context, journalID id.ID) (*Journal, error) {
	return e.repo.Get(ctx, journalID)
}

// FindByReference returns the journals of a kind posted under reference.
func (e *Engine) FindByReference(ctx context.Context, reference string, kind Kind) ([]Journal, error) {
	return e.repo.FindByReference(ctx, reference, kind)
}

func (e *Engine) invariant(ctx context.Context, entry Entry, err error) error {
	if e.strict {
		panic(err)
	}
	logger.Error(ctx, "journal invariant violated",
		"kind", entry.Kind,
		"reference", entry.Reference,
		"error", err,
	)
	return err
}

func build(ctx context.Context, entry Entry) *Journal {
	j := &Journal{
		BaseEntity:   entity.NewBaseEntity(),
		Date:         entry.Date,
		Label:        entry.Label,
		Kind:         entry.Kind,
		Reference:    entry.Reference,
		Description:  entry.Description,
		EnterpriseID: entry.EnterpriseID,
		POSID:        entry.POSID,
		Amount:       decimal.Zero,
		Lines:        make([]Line, len(entry.Lines)),
	}
	j.Stamp(ctx, time.Now().UTC())
	if j.Date.IsZero() {
		j.Date = j.CreatedAt
	}
	for i, l := range entry.Lines {
		j.Amount = j.Amount.Add(l.Debit)
		j.Lines[i] = Line{
			ID:        id.New(),
			JournalID: j.ID,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Ordinal:   i + 1,
			Label:     l.Label,
		}
	}
	return j
}

func lineAccounts(lines []LineInput) []id.ID {
	seen := make(map[id.ID]struct{}, len(lines))
	out := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		out = append(out, l.AccountID)
	}
	return out
}
