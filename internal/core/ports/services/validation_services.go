package services

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/dto"
)

// ValidationSvcFacade is the stateless rule engine checking transactions
// against integrity, period and counterparty rules. Rule violations are
// returned inside the result, never as Go errors, so batches can be
// validated non-fatally; errors are reserved for lookup/infrastructure
// failures.
type ValidationSvcFacade interface {
	// ValidateTransactionIntegrity checks one transaction.
	ValidateTransactionIntegrity(ctx context.Context, conjuntoID, transactionID string) (*dto.ValidationResult, error)

	// ValidateTransactionsBatch checks each transaction independently and
	// returns aggregate counts without short-circuiting.
	ValidateTransactionsBatch(ctx context.Context, conjuntoID string, transactionIDs []string) (*dto.BatchValidationResult, error)

	// ValidatePeriodIntegrity validates every posted transaction in the
	// period and the cross-transaction period balance.
	ValidatePeriodIntegrity(ctx context.Context, conjuntoID string, month, year int) (*dto.PeriodValidationResult, error)
}
