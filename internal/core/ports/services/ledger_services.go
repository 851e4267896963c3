package services

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
)

// LedgerReaderSvc defines read operations for ledger transactions.
type LedgerReaderSvc interface {
	// GetTransaction retrieves a transaction with its entries.
	GetTransaction(ctx context.Context, conjuntoID, transactionID string) (*domain.LedgerTransaction, error)

	// ListTransactions retrieves a paginated list of transactions.
	ListTransactions(ctx context.Context, conjuntoID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// LedgerWriterSvc defines operations that mutate the ledger.
type LedgerWriterSvc interface {
	// CreateTransaction creates a draft transaction, optionally with initial
	// entries, and persists it atomically.
	CreateTransaction(ctx context.Context, conjuntoID string, req dto.CreateTransactionRequest, actorID string) (*domain.LedgerTransaction, error)

	// AddEntry appends an entry to a persisted draft transaction.
	AddEntry(ctx context.Context, conjuntoID, transactionID string, req dto.CreateEntryRequest, actorID string) (*domain.LedgerTransaction, error)

	// RemoveEntry drops an entry from a persisted draft transaction.
	RemoveEntry(ctx context.Context, conjuntoID, transactionID, entryID string, actorID string) (*domain.LedgerTransaction, error)

	// PostTransaction transitions a draft to POSTED and publishes the
	// TransactionPosted event. Fails without side effects when unbalanced or
	// already posted.
	PostTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) (*domain.LedgerTransaction, error)

	// VoidTransaction transitions a draft to VOID.
	VoidTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) error

	// ReverseTransaction creates and posts a new offsetting transaction for a
	// posted one. History is never mutated in place.
	ReverseTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) (*domain.LedgerTransaction, error)
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
