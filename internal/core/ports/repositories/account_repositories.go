package repositories

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
)

// AccountReader defines read operations for chart-of-accounts data.
// Every operation is scoped by conjuntoID; accounts never leak across scopes.
type AccountReader interface {
	// FindAccountByID retrieves an account by its identifier.
	FindAccountByID(ctx context.Context, conjuntoID, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its hierarchical chart code.
	FindAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves a set of accounts keyed by account ID.
	// Returns apperrors.ErrNotFound if any of the IDs is missing.
	FindAccountsByIDs(ctx context.Context, conjuntoID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts returns the chart of accounts ordered by code.
	ListAccounts(ctx context.Context, conjuntoID string) ([]domain.Account, error)
}

// AccountWriter defines write operations for chart-of-accounts data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// SaveAccounts persists a batch of accounts atomically (chart seeding).
	SaveAccounts(ctx context.Context, accounts []domain.Account) error

	// UpdateAccount updates mutable fields (name, is_active, flags) of an
	// existing account. Accounts referenced by entries are never deleted.
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
