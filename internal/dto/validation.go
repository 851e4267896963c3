package dto

import (
	"github.com/shopspring/decimal"
)

// Validation issue codes. Rule violations are accumulated, never thrown.
const (
	IssueUnbalanced        = "unbalanced"
	IssueClosedPeriod      = "closed_period"
	IssueFutureDate        = "future_date"
	IssueMissingThirdParty = "missing_third_party"
	IssuePostingNotAllowed = "posting_not_allowed"
	IssueInactiveAccount   = "inactive_account"
	IssueAgainstNature     = "against_nature"
	IssueNotFound          = "not_found"
)

// ValidationIssue is a single rule violation or advisory found in a
// transaction.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	EntryID string `json:"entryID,omitempty"`
}

// ValidationSummary carries the figures the rules were evaluated against.
type ValidationSummary struct {
	TransactionID string          `json:"transactionID"`
	Number        string          `json:"number"`
	Status        string          `json:"status"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	Difference    decimal.Decimal `json:"difference"`
	EntryCount    int             `json:"entryCount"`
}

// ValidationResult is the structured outcome of validating one transaction.
// Errors block posting; warnings are advisories only.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
	Summary  ValidationSummary `json:"summary"`
}

// BatchValidationRequest lists the transactions to validate non-fatally.
type BatchValidationRequest struct {
	TransactionIDs []string `json:"transactionIDs" binding:"required,min=1"`
}

// BatchValidationResult aggregates per-transaction results without
// short-circuiting on failures.
type BatchValidationResult struct {
	TotalTransactions int                `json:"totalTransactions"`
	ValidCount        int                `json:"validCount"`
	InvalidCount      int                `json:"invalidCount"`
	TotalErrors       int                `json:"totalErrors"`
	Results           []ValidationResult `json:"results"`
}

// PeriodBalanceCheck is the cross-transaction balance check over a period.
type PeriodBalanceCheck struct {
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	IsBalanced  bool            `json:"isBalanced"`
}

// PeriodChecks groups period-level integrity checks.
type PeriodChecks struct {
	BalanceCheck PeriodBalanceCheck `json:"balanceCheck"`
}

// PeriodValidationResult is the outcome of validating every posted
// transaction of a period plus the period-level checks.
type PeriodValidationResult struct {
	ConjuntoID        string             `json:"conjuntoID"`
	Month             int                `json:"month"`
	Year              int                `json:"year"`
	TotalTransactions int                `json:"totalTransactions"`
	ValidCount        int                `json:"validCount"`
	InvalidCount      int                `json:"invalidCount"`
	Results           []ValidationResult `json:"results"`
	PeriodChecks      PeriodChecks       `json:"periodChecks"`
}
