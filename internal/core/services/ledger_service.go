package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/middleware"
)

const defaultListLimit = 20

// ledgerService owns the lifecycle of ledger transactions: draft creation,
// entry management, posting, voiding and reversals.
type ledgerService struct {
	ledgerRepo   portsrepo.LedgerRepositoryWithTx
	accountRepo  portsrepo.AccountRepositoryFacade
	conjuntoRepo portsrepo.ConjuntoRepository
	events       portssvc.EventPublisher
	now          func() time.Time
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, conjuntoRepo portsrepo.ConjuntoRepository, events portssvc.EventPublisher) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:   ledgerRepo,
		accountRepo:  accountRepo,
		conjuntoRepo: conjuntoRepo,
		events:       events,
		now:          time.Now,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateTransaction creates a draft transaction, optionally with initial
// entries, and persists it atomically.
func (s *ledgerService) CreateTransaction(ctx context.Context, conjuntoID string, req dto.CreateTransactionRequest, actorID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.conjuntoRepo.FindConjuntoByID(ctx, conjuntoID); err != nil {
		return nil, fmt.Errorf("conjunto %s: %w", conjuntoID, err)
	}

	number, err := s.ledgerRepo.NextTransactionNumber(ctx, conjuntoID, req.Date.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to reserve transaction number: %w", err)
	}

	now := s.now().UTC()
	txn := domain.NewLedgerTransaction(uuid.NewString(), conjuntoID, number, req.Date, req.Description, actorID, now)
	txn.ReferenceType = req.ReferenceType
	txn.ReferenceID = req.ReferenceID
	if txn.ReferenceType == "" {
		txn.ReferenceType = domain.ReferenceManualEntry
	}

	if len(req.Entries) > 0 {
		if err := s.addEntriesFromRequests(ctx, &txn, req.Entries, actorID, now); err != nil {
			return nil, err
		}
	}

	if err := s.ledgerRepo.CreateTransaction(ctx, txn); err != nil {
		logger.Error("Failed to save transaction", slog.String("error", err.Error()), slog.String("conjunto_id", conjuntoID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger.Info("Transaction created", slog.String("transaction_id", txn.TransactionID), slog.String("number", txn.Number), slog.String("conjunto_id", conjuntoID))
	return &txn, nil
}

func (s *ledgerService) addEntriesFromRequests(ctx context.Context, txn *domain.LedgerTransaction, entries []dto.CreateEntryRequest, actorID string, now time.Time) error {
	for _, entryReq := range entries {
		account, err := s.accountRepo.FindAccountByCode(ctx, txn.ConjuntoID, entryReq.AccountCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, entryReq.AccountCode)
			}
			return fmt.Errorf("failed to resolve account %s: %w", entryReq.AccountCode, err)
		}
		if err := txn.AddEntry(uuid.NewString(), *account, entryReq.Description, entryReq.Debit, entryReq.Credit, entryReq.ThirdParty(), actorID, now); err != nil {
			return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
	}
	return nil
}

// GetTransaction retrieves a transaction with its entries.
func (s *ledgerService) GetTransaction(ctx context.Context, conjuntoID, transactionID string) (*domain.LedgerTransaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactions retrieves a token-paginated page of transactions.
func (s *ledgerService) ListTransactions(ctx context.Context, conjuntoID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	txns, nextToken, err := s.ledgerRepo.ListTransactions(ctx, conjuntoID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

// AddEntry appends a single entry to a persisted draft transaction.
func (s *ledgerService) AddEntry(ctx context.Context, conjuntoID, transactionID string, req dto.CreateEntryRequest, actorID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	account, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, req.AccountCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, req.AccountCode)
		}
		return nil, fmt.Errorf("failed to resolve account %s: %w", req.AccountCode, err)
	}

	now := s.now().UTC()
	if err := txn.AddEntry(uuid.NewString(), *account, req.Description, req.Debit, req.Credit, req.ThirdParty(), actorID, now); err != nil {
		if errors.Is(err, domain.ErrNotDraft) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	entry := txn.Entries[len(txn.Entries)-1]
	if err := s.ledgerRepo.AppendEntry(ctx, conjuntoID, entry, txn.TotalDebit, txn.TotalCredit); err != nil {
		logger.Error("Failed to append entry", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to append entry: %w", err)
	}

	logger.Info("Entry added", slog.String("transaction_id", transactionID), slog.String("account_code", req.AccountCode))
	return txn, nil
}

// RemoveEntry drops an entry from a persisted draft transaction.
func (s *ledgerService) RemoveEntry(ctx context.Context, conjuntoID, transactionID, entryID string, actorID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	now := s.now().UTC()
	if err := txn.RemoveEntry(entryID, actorID, now); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotDraft):
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
		case errors.Is(err, domain.ErrEntryNotFound):
			return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
		default:
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
	}

	if err := s.ledgerRepo.DeleteEntry(ctx, *txn, entryID); err != nil {
		logger.Error("Failed to delete entry", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}

	logger.Info("Entry removed", slog.String("transaction_id", transactionID), slog.String("entry_id", entryID))
	return txn, nil
}

// PostTransaction transitions a draft transaction to POSTED and publishes
// the TransactionPosted event. The status flip is guarded in storage so a
// concurrent double post surfaces as a conflict, not a duplicate posting.
func (s *ledgerService) PostTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	event, err := txn.Post(actorID, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPosted) || errors.Is(err, domain.ErrNotDraft) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	if err := s.ledgerRepo.MarkTransactionPosted(ctx, *txn); err != nil {
		logger.Error("Failed to mark transaction posted", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to post transaction: %w", err)
	}

	s.events.PublishTransactionPosted(ctx, *event)
	logger.Info("Transaction posted", slog.String("transaction_id", transactionID), slog.String("number", txn.Number), slog.String("posted_by", actorID))
	return txn, nil
}

// VoidTransaction transitions a draft transaction to VOID.
func (s *ledgerService) VoidTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", transactionID, err)
	}

	if err := txn.MarkVoid(actorID, s.now().UTC()); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, err.Error())
	}

	if err := s.ledgerRepo.MarkTransactionVoid(ctx, *txn); err != nil {
		return fmt.Errorf("failed to void transaction: %w", err)
	}

	logger.Info("Transaction voided", slog.String("transaction_id", transactionID))
	return nil
}

// ReverseTransaction creates and posts a new offsetting transaction for a
// posted one. Posted history is never mutated in place.
func (s *ledgerService) ReverseTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) (*domain.LedgerTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.ledgerRepo.FindTransactionByID(ctx, conjuntoID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, err)
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: only posted transactions can be reversed (status %s)", apperrors.ErrConflict, original.Status)
	}
	if original.ReferenceType == domain.ReferenceReversal {
		return nil, fmt.Errorf("%w: cannot reverse a reversal", apperrors.ErrConflict)
	}

	accountIDs := make([]string, 0, len(original.Entries))
	for _, entry := range original.Entries {
		accountIDs = append(accountIDs, entry.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, conjuntoID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accounts for reversal: %w", err)
	}

	now := s.now().UTC()
	number, err := s.ledgerRepo.NextTransactionNumber(ctx, conjuntoID, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to reserve transaction number: %w", err)
	}

	reversal := domain.NewLedgerTransaction(uuid.NewString(), conjuntoID, number, now,
		fmt.Sprintf("Reversal of %s: %s", original.Number, original.Description), actorID, now)
	reversal.ReferenceType = domain.ReferenceReversal
	reversal.ReferenceID = original.TransactionID

	for _, entry := range original.Entries {
		account, ok := accounts[entry.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: account %s referenced by entry %s", apperrors.ErrNotFound, entry.AccountID, entry.EntryID)
		}
		var thirdParty *domain.ThirdParty
		if entry.HasThirdParty() {
			thirdParty = &domain.ThirdParty{Type: entry.ThirdPartyType, ID: entry.ThirdPartyID}
		}
		// Swap sides so the reversal exactly offsets the original.
		if err := reversal.AddEntry(uuid.NewString(), account, entry.Description, entry.Credit, entry.Debit, thirdParty, actorID, now); err != nil {
			return nil, fmt.Errorf("failed to build reversal entry: %w", err)
		}
	}

	event, err := reversal.Post(actorID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to post reversal: %w", err)
	}

	if err := s.ledgerRepo.CreateTransaction(ctx, reversal); err != nil {
		logger.Error("Failed to save reversal", slog.String("error", err.Error()), slog.String("original_id", transactionID))
		return nil, fmt.Errorf("failed to save reversal: %w", err)
	}

	s.events.PublishTransactionPosted(ctx, *event)
	logger.Info("Transaction reversed", slog.String("original_id", transactionID), slog.String("reversal_id", reversal.TransactionID))
	return &reversal, nil
}
