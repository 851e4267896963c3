package services

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts.
type AccountReaderSvc interface {
	// GetAccountByCode retrieves an account by its chart code.
	GetAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error)

	// ListAccounts returns the full chart of accounts for a conjunto.
	ListAccounts(ctx context.Context, conjuntoID string) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts.
type AccountWriterSvc interface {
	// CreateAccount adds an account to the chart, deriving level and nature
	// defaults from the code and type.
	CreateAccount(ctx context.Context, conjuntoID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)

	// UpdateAccount changes mutable account fields.
	UpdateAccount(ctx context.Context, conjuntoID, code string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error)

	// DeactivateAccount soft-retires an account; it stays resolvable for
	// historic entries but rejects new postings.
	DeactivateAccount(ctx context.Context, conjuntoID, code string, actorID string) error

	// SeedDefaultChart installs the default chart of accounts for a new
	// conjunto. Existing codes are left untouched.
	SeedDefaultChart(ctx context.Context, conjuntoID string, actorID string) ([]domain.Account, error)
}

// AccountSvcFacade combines all account service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
