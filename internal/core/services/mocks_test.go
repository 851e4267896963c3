package services_test

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
)

// --- Mock ConjuntoRepository ---

type MockConjuntoRepository struct {
	mock.Mock
}

var _ portsrepo.ConjuntoRepository = (*MockConjuntoRepository)(nil)

func (m *MockConjuntoRepository) SaveConjunto(ctx context.Context, conjunto domain.Conjunto) error {
	args := m.Called(ctx, conjunto)
	return args.Error(0)
}

func (m *MockConjuntoRepository) FindConjuntoByID(ctx context.Context, conjuntoID string) (*domain.Conjunto, error) {
	args := m.Called(ctx, conjuntoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conjunto), args.Error(1)
}

func (m *MockConjuntoRepository) ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conjunto), args.Error(1)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, conjuntoID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, conjuntoID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, conjuntoID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, conjuntoID string) ([]domain.Account, error) {
	args := m.Called(ctx, conjuntoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	args := m.Called(ctx, accounts)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, conjuntoID, transactionID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, conjuntoID string, limit int, nextToken *string) ([]domain.LedgerTransaction, *string, error) {
	args := m.Called(ctx, conjuntoID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.LedgerTransaction), returnedNextToken, args.Error(2)
}

func (m *MockLedgerRepository) ListTransactionsByPeriod(ctx context.Context, conjuntoID string, month, year int, status *domain.TransactionStatus) ([]domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, month, year, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerTransaction), args.Error(1)
}

func (m *MockLedgerRepository) FindAppropriationByPeriod(ctx context.Context, conjuntoID string, month, year int) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}

func (m *MockLedgerRepository) SumCreditsByAccountPrefix(ctx context.Context, conjuntoID, codePrefix string, month, year int) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, codePrefix, month, year)
	if args.Get(0) == nil {
		return decimal.Zero, args.Error(1)
	}
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) SumPostedByAccountCode(ctx context.Context, conjuntoID, code string) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, code)
	if args.Get(0) == nil {
		return decimal.Zero, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockLedgerRepository) SumMonthlyCreditsByPrefixForYear(ctx context.Context, conjuntoID, codePrefix string, year int) (map[int]decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, codePrefix, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) SumMonthlyAppropriationsForYear(ctx context.Context, conjuntoID string, year int) (map[int]decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) NextTransactionNumber(ctx context.Context, conjuntoID string, year int) (string, error) {
	args := m.Called(ctx, conjuntoID, year)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerRepository) CreateTransaction(ctx context.Context, txn domain.LedgerTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) AppendEntry(ctx context.Context, conjuntoID string, entry domain.Entry, totalDebit, totalCredit decimal.Decimal) error {
	args := m.Called(ctx, conjuntoID, entry, totalDebit, totalCredit)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteEntry(ctx context.Context, txn domain.LedgerTransaction, entryID string) error {
	args := m.Called(ctx, txn, entryID)
	return args.Error(0)
}

func (m *MockLedgerRepository) MarkTransactionPosted(ctx context.Context, txn domain.LedgerTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) MarkTransactionVoid(ctx context.Context, txn domain.LedgerTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock EventPublisher ---

type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishTransactionPosted(ctx context.Context, event domain.TransactionPosted) {
	m.Called(ctx, event)
}

func (m *MockEventPublisher) PublishReserveAppropriationCreated(ctx context.Context, event domain.ReserveAppropriationCreated) {
	m.Called(ctx, event)
}
