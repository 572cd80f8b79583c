package accounting

import (
	"context"

	"ayanna/internal/core/id"
)

// Repository persists classes, accounts and posting configurations.
type Repository interface {
	// GetConfigByPOS returns the configuration of a POS or a NotFound AppError.
	GetConfigByPOS(ctx context.Context, posID id.ID) (*Config, error)

	// SaveConfig inserts or replaces the configuration of a POS.
	SaveConfig(ctx context.Context, cfg *Config) error

	// ListAccounts returns active accounts of an enterprise ordered by code.
	// A nil classCode lists every class.
	ListAccounts(ctx context.Context, enterpriseID id.ID, classCode *int) ([]Account, error)

	// EnsureClass returns the class row for (code, enterprise), creating it if absent.
	EnsureClass(ctx context.Context, enterpriseID id.ID, code int, name string) (*Class, error)

	// CreateAccount inserts an account. A (code, enterprise) conflict yields DuplicateAccountCode.
	CreateAccount(ctx context.Context, account *Account) error

	// MissingAccounts returns the subset of ids that do not exist.
	MissingAccounts(ctx context.Context, ids []id.ID) ([]id.ID, error)
}
