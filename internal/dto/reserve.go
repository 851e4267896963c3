package dto

import (
	"github.com/shopspring/decimal"
)

// Appropriation outcomes. The scheduler distinguishes benign no-ops from
// created transactions and from hard failures via these values.
const (
	AppropriationCreated       = "created"
	AppropriationAlreadyExists = "already_exists"
	AppropriationNoIncome      = "no_income"
	AppropriationDryRun        = "dry_run"
)

// ExecuteAppropriationRequest defines the body for the appropriation endpoint.
// Month/year default to the previous calendar month when zero.
type ExecuteAppropriationRequest struct {
	Month  int  `json:"month" binding:"omitempty,min=1,max=12"`
	Year   int  `json:"year" binding:"omitempty,min=2000"`
	Force  bool `json:"force"`
	DryRun bool `json:"dryRun"`
}

// AppropriationResult reports what the reserve fund engine did for a period.
type AppropriationResult struct {
	Outcome            string               `json:"outcome"`
	Month              int                  `json:"month"`
	Year               int                  `json:"year"`
	MonthlyIncome      decimal.Decimal      `json:"monthlyIncome"`
	AppropriatedAmount decimal.Decimal      `json:"appropriatedAmount"`
	Transaction        *TransactionResponse `json:"transaction,omitempty"`
}

// ReserveBalanceResponse reports the cumulative reserve fund balance.
type ReserveBalanceResponse struct {
	ConjuntoID string          `json:"conjuntoID"`
	Balance    decimal.Decimal `json:"balance"`
}

// MonthlyCompliance is one month's income vs. appropriation.
type MonthlyCompliance struct {
	Month        int             `json:"month"`
	Income       decimal.Decimal `json:"income"`
	Appropriated decimal.Decimal `json:"appropriated"`
}

// ComplianceReport certifies whether the legally mandated percentage of
// operating income was appropriated across a year.
type ComplianceReport struct {
	ConjuntoID           string              `json:"conjuntoID"`
	Year                 int                 `json:"year"`
	TotalIncome          decimal.Decimal     `json:"totalIncome"`
	TotalAppropriated    decimal.Decimal     `json:"totalAppropriated"`
	CompliancePercentage decimal.Decimal     `json:"compliancePercentage"`
	MinimumPercentage    decimal.Decimal     `json:"minimumPercentage"`
	IsCompliant          bool                `json:"isCompliant"`
	Months               []MonthlyCompliance `json:"months"`
}
