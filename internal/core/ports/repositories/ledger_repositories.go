package repositories

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReader defines read operations for ledger transactions and entries.
type LedgerReader interface {
	// FindTransactionByID retrieves a transaction with its entries.
	FindTransactionByID(ctx context.Context, conjuntoID, transactionID string) (*domain.LedgerTransaction, error)

	// ListTransactions retrieves a token-paginated list of transactions for a
	// conjunto, newest first, entries not populated.
	ListTransactions(ctx context.Context, conjuntoID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error)

	// ListTransactionsByPeriod retrieves every transaction dated within the
	// given month, entries populated. A nil status loads all states.
	ListTransactionsByPeriod(ctx context.Context, conjuntoID string, month, year int, status *domain.TransactionStatus) ([]domain.LedgerTransaction, error)

	// FindAppropriationByPeriod looks up the canonical reserve appropriation
	// transaction for a period, nil result mapped to apperrors.ErrNotFound.
	FindAppropriationByPeriod(ctx context.Context, conjuntoID string, month, year int) (*domain.LedgerTransaction, error)

	// SumCreditsByAccountPrefix sums credit entries posted within the period
	// to accounts whose code starts with the given prefix.
	SumCreditsByAccountPrefix(ctx context.Context, conjuntoID, codePrefix string, month, year int) (decimal.Decimal, error)

	// SumPostedByAccountCode returns cumulative posted credits and debits for
	// one account code across the whole history of the conjunto.
	SumPostedByAccountCode(ctx context.Context, conjuntoID, code string) (credits, debits decimal.Decimal, err error)

	// SumMonthlyCreditsByPrefixForYear returns posted credit totals to the
	// account prefix grouped by month (1-12) for a year.
	SumMonthlyCreditsByPrefixForYear(ctx context.Context, conjuntoID, codePrefix string, year int) (map[int]decimal.Decimal, error)

	// SumMonthlyAppropriationsForYear returns posted appropriation totals
	// (canonical and forced) grouped by month for a year.
	SumMonthlyAppropriationsForYear(ctx context.Context, conjuntoID string, year int) (map[int]decimal.Decimal, error)
}

// LedgerWriter defines write operations for ledger transactions.
type LedgerWriter interface {
	// NextTransactionNumber atomically reserves the next per-conjunto
	// transaction number for the given year (format "YYYY-NNNNNN").
	NextTransactionNumber(ctx context.Context, conjuntoID string, year int) (string, error)

	// CreateTransaction persists a transaction and all its entries inside a
	// single database transaction. The aggregate may already be POSTED
	// (system-generated postings); a partially persisted transaction is never
	// observable. Unique-key violations surface as apperrors.ErrDuplicate.
	CreateTransaction(ctx context.Context, txn domain.LedgerTransaction) error

	// AppendEntry adds an entry to a persisted draft and refreshes the cached
	// totals, guarded by status=DRAFT (apperrors.ErrConflict otherwise).
	AppendEntry(ctx context.Context, conjuntoID string, entry domain.Entry, totalDebit, totalCredit decimal.Decimal) error

	// DeleteEntry removes an entry from a persisted draft and refreshes the
	// cached totals from the aggregate, guarded by status=DRAFT.
	DeleteEntry(ctx context.Context, txn domain.LedgerTransaction, entryID string) error

	// MarkTransactionPosted flips a persisted draft to POSTED with its frozen
	// totals, guarded by status=DRAFT (apperrors.ErrConflict otherwise).
	MarkTransactionPosted(ctx context.Context, txn domain.LedgerTransaction) error

	// MarkTransactionVoid flips a persisted draft to VOID, guarded by
	// status=DRAFT.
	MarkTransactionVoid(ctx context.Context, txn domain.LedgerTransaction) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// LedgerRepositoryWithTx extends the facade with transaction management.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
