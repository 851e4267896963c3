package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/utils/accounting"
)

// Posting window relative to "today": postings further back than the closed
// window belong to a closed prior period, postings further ahead than the
// future window are rejected as future-dated.
const (
	closedPeriodMonths = 3
	futureWindowMonths = 1
)

// CheckPostingWindow applies the open-period rule to a transaction date.
// It returns nil when the date is inside the window. Taking "now" as a
// parameter keeps the rule a pure, deterministic function.
func CheckPostingWindow(date, now time.Time) *dto.ValidationIssue {
	if date.Before(now.AddDate(0, -closedPeriodMonths, 0)) {
		return &dto.ValidationIssue{
			Code:    dto.IssueClosedPeriod,
			Message: fmt.Sprintf("transaction date %s falls in a closed prior period (more than %d months before today)", date.Format("2006-01-02"), closedPeriodMonths),
		}
	}
	if date.After(now.AddDate(0, futureWindowMonths, 0)) {
		return &dto.ValidationIssue{
			Code:    dto.IssueFutureDate,
			Message: fmt.Sprintf("transaction date %s is too far in the future (more than %d month ahead)", date.Format("2006-01-02"), futureWindowMonths),
		}
	}
	return nil
}

// EvaluateTransaction applies every integrity rule to one transaction given
// its resolved accounts. Pure: no I/O, no clock access.
func EvaluateTransaction(txn domain.LedgerTransaction, accounts map[string]domain.Account, now time.Time) dto.ValidationResult {
	var result dto.ValidationResult
	result.Errors = []dto.ValidationIssue{}
	result.Warnings = []dto.ValidationIssue{}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, entry := range txn.Entries {
		totalDebit = totalDebit.Add(entry.Debit)
		totalCredit = totalCredit.Add(entry.Credit)
	}

	// Rule 1: double-entry balance. Amounts are stored as exact decimals, so
	// any mismatch is an error.
	if !totalDebit.Equal(totalCredit) {
		result.Errors = append(result.Errors, dto.ValidationIssue{
			Code: dto.IssueUnbalanced,
			Message: fmt.Sprintf("double-entry (partida doble) violated: total debits %s do not equal total credits %s",
				totalDebit.String(), totalCredit.String()),
		})
	}

	// Rule 2: open period window.
	if issue := CheckPostingWindow(txn.Date, now); issue != nil {
		result.Errors = append(result.Errors, *issue)
	}

	// Rules 3 and 4 plus chart invariants, per entry.
	for _, entry := range txn.Entries {
		account, ok := accounts[entry.AccountID]
		if !ok {
			result.Errors = append(result.Errors, dto.ValidationIssue{
				Code:    dto.IssueInactiveAccount,
				Message: fmt.Sprintf("account %s referenced by entry could not be resolved", entry.AccountCode),
				EntryID: entry.EntryID,
			})
			continue
		}

		if !account.AcceptsPosting {
			result.Errors = append(result.Errors, dto.ValidationIssue{
				Code:    dto.IssuePostingNotAllowed,
				Message: fmt.Sprintf("account %s is a summary account and does not accept direct postings", account.Code),
				EntryID: entry.EntryID,
			})
		}
		if !account.IsActive {
			result.Errors = append(result.Errors, dto.ValidationIssue{
				Code:    dto.IssueInactiveAccount,
				Message: fmt.Sprintf("account %s is inactive", account.Code),
				EntryID: entry.EntryID,
			})
		}

		// Rule 3: required counterparty.
		if account.RequiresThirdParty && (entry.ThirdPartyID == "" || entry.ThirdPartyType == "") {
			result.Errors = append(result.Errors, dto.ValidationIssue{
				Code:    dto.IssueMissingThirdParty,
				Message: fmt.Sprintf("account %s requires an identified counterparty but the entry carries none", account.Code),
				EntryID: entry.EntryID,
			})
		}

		// Rule 4: natural balance advisory. Unusual direction, never blocking.
		if accounting.MovesAgainstNature(entry, account.Nature) {
			result.Warnings = append(result.Warnings, dto.ValidationIssue{
				Code: dto.IssueAgainstNature,
				Message: fmt.Sprintf("entry decreases account %s against its %s nature",
					account.Code, account.Nature),
				EntryID: entry.EntryID,
			})
		}
	}

	result.IsValid = len(result.Errors) == 0
	result.Summary = dto.ValidationSummary{
		TransactionID: txn.TransactionID,
		Number:        txn.Number,
		Status:        string(txn.Status),
		TotalDebit:    totalDebit,
		TotalCredit:   totalCredit,
		Difference:    totalDebit.Sub(totalCredit),
		EntryCount:    len(txn.Entries),
	}
	return result
}

// validationService loads persisted transactions and applies the pure rule
// engine. Safe to call concurrently; it performs no writes.
type validationService struct {
	ledgerRepo  portsrepo.LedgerReader
	accountRepo portsrepo.AccountReader
	now         func() time.Time
}

// NewValidationService creates a new validation service.
func NewValidationService(ledgerRepo portsrepo.LedgerReader, accountRepo portsrepo.AccountReader) portssvc.ValidationSvcFacade {
	return &validationService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		now:         time.Now,
	}
}

// NewValidationServiceWithClock creates a validation service with a fixed
// clock, for deterministic period-window tests.
func NewValidationServiceWithClock(ledgerRepo portsrepo.LedgerReader, accountRepo portsrepo.AccountReader, now func() time.Time) portssvc.ValidationSvcFacade {
	return &validationService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		now:         now,
	}
}

var _ portssvc.ValidationSvcFacade = (*validationService)(nil)

func (s *validationService) resolveAccounts(ctx context.Context, conjuntoID string, txns ...domain.LedgerTransaction) (map[string]domain.Account, error) {
	idSet := make(map[string]struct{})
	ids := make([]string, 0)
	for _, txn := range txns {
		for _, entry := range txn.Entries {
			if _, ok := idSet[entry.AccountID]; !ok {
				idSet[entry.AccountID] = struct{}{}
				ids = append(ids, entry.AccountID)
			}
		}
	}
	if len(ids) == 0 {
		return map[string]domain.Account{}, nil
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, conjuntoID, ids)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve accounts: %w", err)
	}
	if accounts == nil {
		accounts = map[string]domain.Account{}
	}
	return accounts, nil
}

// ValidateTransactionIntegrity checks one transaction against all rules.
func (s *validationService) ValidateTransactionIntegrity(ctx context.Context, conjuntoID, transactionID string) (*dto.ValidationResult, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	accounts, err := s.resolveAccounts(ctx, conjuntoID, *txn)
	if err != nil {
		return nil, err
	}

	result := EvaluateTransaction(*txn, accounts, s.now().UTC())
	return &result, nil
}

// ValidateTransactionsBatch validates each transaction independently and
// returns aggregate counts without short-circuiting on failures.
func (s *validationService) ValidateTransactionsBatch(ctx context.Context, conjuntoID string, transactionIDs []string) (*dto.BatchValidationResult, error) {
	batch := &dto.BatchValidationResult{
		TotalTransactions: len(transactionIDs),
		Results:           make([]dto.ValidationResult, 0, len(transactionIDs)),
	}

	now := s.now().UTC()
	for _, transactionID := range transactionIDs {
		txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				result := dto.ValidationResult{
					IsValid: false,
					Errors: []dto.ValidationIssue{{
						Code:    dto.IssueNotFound,
						Message: fmt.Sprintf("transaction %s not found", transactionID),
					}},
					Warnings: []dto.ValidationIssue{},
					Summary:  dto.ValidationSummary{TransactionID: transactionID},
				}
				batch.Results = append(batch.Results, result)
				batch.InvalidCount++
				batch.TotalErrors++
				continue
			}
			return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
		}

		accounts, err := s.resolveAccounts(ctx, conjuntoID, *txn)
		if err != nil {
			return nil, err
		}

		result := EvaluateTransaction(*txn, accounts, now)
		batch.Results = append(batch.Results, result)
		if result.IsValid {
			batch.ValidCount++
		} else {
			batch.InvalidCount++
			batch.TotalErrors += len(result.Errors)
		}
	}

	return batch, nil
}

// ValidatePeriodIntegrity validates every posted transaction of a period and
// checks that debits equal credits across the entire period.
func (s *validationService) ValidatePeriodIntegrity(ctx context.Context, conjuntoID string, month, year int) (*dto.PeriodValidationResult, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", apperrors.ErrValidation, month)
	}

	posted := domain.Posted
	txns, err := s.ledgerRepo.ListTransactionsByPeriod(ctx, conjuntoID, month, year, &posted)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for period %d-%02d: %w", year, month, err)
	}

	accounts, err := s.resolveAccounts(ctx, conjuntoID, txns...)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result := &dto.PeriodValidationResult{
		ConjuntoID:        conjuntoID,
		Month:             month,
		Year:              year,
		TotalTransactions: len(txns),
		Results:           make([]dto.ValidationResult, 0, len(txns)),
	}

	periodDebit := decimal.Zero
	periodCredit := decimal.Zero
	for _, txn := range txns {
		r := EvaluateTransaction(txn, accounts, now)
		result.Results = append(result.Results, r)
		if r.IsValid {
			result.ValidCount++
		} else {
			result.InvalidCount++
		}
		periodDebit = periodDebit.Add(r.Summary.TotalDebit)
		periodCredit = periodCredit.Add(r.Summary.TotalCredit)
	}

	result.PeriodChecks.BalanceCheck = dto.PeriodBalanceCheck{
		TotalDebit:  periodDebit,
		TotalCredit: periodCredit,
		IsBalanced:  periodDebit.Equal(periodCredit),
	}
	return result, nil
}
