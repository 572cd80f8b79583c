package memstore

import (
	"context"
	"slices"
	"strings"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/accounting"
)

// AccountingRepo implements accounting.Repository and journal.AccountChecker.
type AccountingRepo struct{ s *Store }

// Accounting returns the accounting repository.
func (s *Store) Accounting() *AccountingRepo { return &AccountingRepo{s: s} }

func (r *AccountingRepo) GetConfigByPOS(_ context.Context, posID id.ID) (*accounting.Config, error) {
	var (
		cfg accounting.Config
		ok  bool
	)
	r.s.read(func(d *data) { cfg, ok = d.configs[posID] })
	if !ok {
		return nil, apperror.NewNotFound("accounting config", posID)
	}
	return &cfg, nil
}

func (r *AccountingRepo) SaveConfig(_ context.Context, cfg *accounting.Config) error {
	r.s.read(func(d *data) { d.configs[cfg.POSID] = *cfg })
	return nil
}

func (r *AccountingRepo) ListAccounts(_ context.Context, enterpriseID id.ID, classCode *int) ([]accounting.Account, error) {
	var out []accounting.Account
	r.s.read(func(d *data) {
		for _, a := range d.accounts {
			if a.EnterpriseID != enterpriseID || !a.IsActive {
				continue
			}
			if classCode != nil && a.ClassCode != *classCode {
				continue
			}
			out = append(out, a)
		}
	})
	slices.SortFunc(out, func(a, b accounting.Account) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

func (r *AccountingRepo) EnsureClass(_ context.Context, enterpriseID id.ID, code int, name string) (*accounting.Class, error) {
	var class accounting.Class
	r.s.read(func(d *data) {
		for _, c := range d.classes {
			if c.EnterpriseID == enterpriseID && c.Code == code {
				class = c
				return
			}
		}
		class = accounting.Class{BaseEntity: entity.NewBaseEntity(), EnterpriseID: enterpriseID, Code: code, Name: name}
		d.classes = append(d.classes, class)
	})
	return &class, nil
}

func (r *AccountingRepo) CreateAccount(_ context.Context, account *accounting.Account) error {
	var err error
	r.s.read(func(d *data) {
		for _, a := range d.accounts {
			if a.EnterpriseID == account.EnterpriseID && a.Code == account.Code {
				err = apperror.NewDuplicateAccountCode(account.Code, account.EnterpriseID)
				return
			}
		}
		d.accounts[account.ID] = *account
	})
	return err
}

func (r *AccountingRepo) MissingAccounts(_ context.Context, ids []id.ID) ([]id.ID, error) {
	var missing []id.ID
	r.s.read(func(d *data) {
		for _, aid := range ids {
			if _, ok := d.accounts[aid]; !ok {
				missing = append(missing, aid)
			}
		}
	})
	return missing, nil
}

// PutAccount stores an account as is.
func (s *Store) PutAccount(a accounting.Account) {
	s.read(func(d *data) { d.accounts[a.ID] = a })
}

// PutConfig stores a posting configuration as is.
func (s *Store) PutConfig(cfg accounting.Config) {
	s.read(func(d *data) { d.configs[cfg.POSID] = cfg })
}
