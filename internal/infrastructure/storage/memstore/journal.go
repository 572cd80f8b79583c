package memstore

import (
	"context"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/journal"
)

// JournalRepo implements journal.Repository.
type JournalRepo struct{ s *Store }

// JournalStore returns the journal repository.
func (s *Store) JournalStore() *JournalRepo { return &JournalRepo{s: s} }

func (r *JournalRepo) Create(_ context.Context, j *journal.Journal) error {
	r.s.read(func(d *data) { d.journals = append(d.journals, copyJournal(*j)) })
	return nil
}

func (r *JournalRepo) Get(_ context.Context, journalID id.ID) (*journal.Journal, error) {
	var (
		out journal.Journal
		ok  bool
	)
	r.s.read(func(d *data) {
		for _, j := range d.journals {
			if j.ID == journalID {
				out, ok = copyJournal(j), true
				return
			}
		}
	})
	if !ok {
		return nil, apperror.NewNotFound("journal", journalID)
	}
	return &out, nil
}

func (r *JournalRepo) FindByReference(_ context.Context, reference string, kind journal.Kind) ([]journal.Journal, error) {
	var out []journal.Journal
	r.s.read(func(d *data) {
		for _, j := range d.journals {
			if j.Reference == reference && (kind == "" || j.Kind == kind) {
				out = append(out, copyJournal(j))
			}
		}
	})
	return out, nil
}

func (r *JournalRepo) IsReversed(_ context.Context, journalID id.ID) (bool, error) {
	var reversed bool
	r.s.read(func(d *data) {
		for _, j := range d.journals {
			if j.ReversalOf != nil && *j.ReversalOf == journalID {
				reversed = true
				return
			}
		}
	})
	return reversed, nil
}

// Journals returns every committed journal in posting order.
func (s *Store) Journals() []journal.Journal {
	var out []journal.Journal
	s.read(func(d *data) {
		for _, j := range d.journals {
			out = append(out, copyJournal(j))
		}
	})
	return out
}
