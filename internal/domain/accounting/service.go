package accounting

import (
	"context"
	"fmt"
	"strings"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/entity"
	"ayanna/internal/core/id"
	"ayanna/internal/core/tx"
	"ayanna/pkg/logger"
)

// Service is the chart-of-accounts registry.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new registry service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// GetConfig returns the posting configuration of a POS.
// A POS without configuration yields a ConfigMissing AppError; callers record the
// business fact without accounting lines.
func (s *Service) GetConfig(ctx context.Context, posID id.ID) (*Config, error) {
	cfg, err := s.repo.GetConfigByPOS(ctx, posID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewConfigMissing(posID)
		}
		return nil, fmt.Errorf("get accounting config: %w", err)
	}
	return cfg, nil
}

// ListAccounts enumerates the accounts of an enterprise, optionally for one class.
func (s *Service) ListAccounts(ctx context.Context, enterpriseID id.ID, classCode *int) ([]Account, error) {
	if classCode != nil && (*classCode < 1 || *classCode > 9) {
		return nil, apperror.NewValidation("account class must be between 1 and 9").WithDetail("field", "class")
	}
	accounts, err := s.repo.ListAccounts(ctx, enterpriseID, classCode)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// UpsertAccountInput describes an account to register.
type UpsertAccountInput struct {
	EnterpriseID id.ID
	Code         string
	Name         string
	Class        int
}

// UpsertAccount registers an account, creating its class on demand.
// A duplicate (code, enterprise) is rejected with DuplicateAccountCode; the same
// code under another enterprise is allowed.
func (s *Service) UpsertAccount(ctx context.Context, in UpsertAccountInput) (*Account, error) {
	account := &Account{
		BaseEntity:   entity.NewBaseEntity(),
		EnterpriseID: in.EnterpriseID,
		ClassCode:    in.Class,
		Code:         strings.TrimSpace(in.Code),
		Name:         strings.TrimSpace(in.Name),
		IsActive:     true,
	}
	if err := account.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		class, err := s.repo.EnsureClass(ctx, account.EnterpriseID, account.ClassCode, ClassNames[account.ClassCode])
		if err != nil {
			return fmt.Errorf("ensure class %d: %w", account.ClassCode, err)
		}
		account.ClassID = class.ID
		return s.repo.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account registered",
		"account_id", account.ID,
		"code", account.Code,
		"enterprise_id", account.EnterpriseID,
	)
	return account, nil
}

// SaveConfig stores the posting configuration of a POS after checking every
// referenced account exists.
func (s *Service) SaveConfig(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(cfg.ID) {
		cfg.ID = id.New()
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		missing, err := s.repo.MissingAccounts(ctx, cfg.AccountIDs())
		if err != nil {
			return fmt.Errorf("check accounts: %w", err)
		}
		if len(missing) > 0 {
			return apperror.NewValidation("configuration references unknown accounts").
				WithDetail("account_ids", id.Strings(missing))
		}
		return s.repo.SaveConfig(ctx, cfg)
	})
}
