package services

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// AppropriationOptions tune a single appropriation run.
type AppropriationOptions struct {
	// Force bypasses the once-per-period short-circuit and creates an
	// additional transaction even if one exists (additive, never replacing).
	Force bool
	// DryRun computes and reports the amount without creating a transaction.
	DryRun bool
	// ActorID is recorded as poster/approver; defaults to the configured
	// system actor when empty.
	ActorID string
}

// ReserveFundSvcFacade computes and posts the legally mandated monthly
// reserve fund appropriation and certifies yearly compliance.
type ReserveFundSvcFacade interface {
	// CalculateMonthlyReserve returns percentage * operating income posted in
	// the period, rounded; zero when no income was posted.
	CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error)

	// ExecuteMonthlyAppropriation creates and posts the appropriation
	// transaction for the period exactly once. Re-invocations return the
	// already_exists outcome instead of creating duplicates.
	ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, opts AppropriationOptions) (*dto.AppropriationResult, error)

	// GetReserveFundBalance returns the cumulative balance of the fund
	// account (credits minus debit reversals) for the conjunto.
	GetReserveFundBalance(ctx context.Context, conjuntoID string) (decimal.Decimal, error)

	// ValidateLegalCompliance aggregates appropriations vs. income across all
	// twelve periods of the year.
	ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*dto.ComplianceReport, error)
}
