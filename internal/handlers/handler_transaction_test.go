package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/handlers"
	"github.com/copropia/conjunto_ledger_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, conjuntoID, transactionID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}
func (m *MockLedgerService) ListTransactions(ctx context.Context, conjuntoID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, conjuntoID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}
func (m *MockLedgerService) CreateTransaction(ctx context.Context, conjuntoID string, req dto.CreateTransactionRequest, actorID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}
func (m *MockLedgerService) AddEntry(ctx context.Context, conjuntoID, transactionID string, req dto.CreateEntryRequest, actorID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}
func (m *MockLedgerService) RemoveEntry(ctx context.Context, conjuntoID, transactionID, entryID string, actorID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID, entryID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}
func (m *MockLedgerService) PostTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}
func (m *MockLedgerService) VoidTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) error {
	args := m.Called(ctx, conjuntoID, transactionID, actorID)
	return args.Error(0)
}
func (m *MockLedgerService) ReverseTransaction(ctx context.Context, conjuntoID, transactionID string, actorID string) (*domain.LedgerTransaction, error) {
	args := m.Called(ctx, conjuntoID, transactionID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerTransaction), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock ValidationService ---
type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) ValidateTransactionIntegrity(ctx context.Context, conjuntoID, transactionID string) (*dto.ValidationResult, error) {
	args := m.Called(ctx, conjuntoID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ValidationResult), args.Error(1)
}
func (m *MockValidationService) ValidateTransactionsBatch(ctx context.Context, conjuntoID string, transactionIDs []string) (*dto.BatchValidationResult, error) {
	args := m.Called(ctx, conjuntoID, transactionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BatchValidationResult), args.Error(1)
}
func (m *MockValidationService) ValidatePeriodIntegrity(ctx context.Context, conjuntoID string, month, year int) (*dto.PeriodValidationResult, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PeriodValidationResult), args.Error(1)
}

var _ portssvc.ValidationSvcFacade = (*MockValidationService)(nil)

// --- Mock ReserveFundService ---
type MockReserveFundService struct {
	mock.Mock
}

func (m *MockReserveFundService) CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockReserveFundService) ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, opts portssvc.AppropriationOptions) (*dto.AppropriationResult, error) {
	args := m.Called(ctx, conjuntoID, month, year, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AppropriationResult), args.Error(1)
}
func (m *MockReserveFundService) GetReserveFundBalance(ctx context.Context, conjuntoID string) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockReserveFundService) ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*dto.ComplianceReport, error) {
	args := m.Called(ctx, conjuntoID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ComplianceReport), args.Error(1)
}

var _ portssvc.ReserveFundSvcFacade = (*MockReserveFundService)(nil)

// --- Mock ConjuntoService ---
type MockConjuntoService struct {
	mock.Mock
}

func (m *MockConjuntoService) CreateConjunto(ctx context.Context, req dto.CreateConjuntoRequest, actorID string) (*domain.Conjunto, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conjunto), args.Error(1)
}
func (m *MockConjuntoService) GetConjunto(ctx context.Context, conjuntoID string) (*domain.Conjunto, error) {
	args := m.Called(ctx, conjuntoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conjunto), args.Error(1)
}
func (m *MockConjuntoService) ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conjunto), args.Error(1)
}

var _ portssvc.ConjuntoSvcFacade = (*MockConjuntoService)(nil)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, conjuntoID string) ([]domain.Account, error) {
	args := m.Called(ctx, conjuntoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) CreateAccount(ctx context.Context, conjuntoID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) UpdateAccount(ctx context.Context, conjuntoID, code string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, conjuntoID, code, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) DeactivateAccount(ctx context.Context, conjuntoID, code string, actorID string) error {
	args := m.Called(ctx, conjuntoID, code, actorID)
	return args.Error(0)
}
func (m *MockAccountService) SeedDefaultChart(ctx context.Context, conjuntoID string, actorID string) ([]domain.Account, error) {
	args := m.Called(ctx, conjuntoID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Test Suite ---
type TransactionHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockLedger     *MockLedgerService
	mockValidation *MockValidationService
	mockReserve    *MockReserveFundService
	mockConjunto   *MockConjuntoService
	mockAccounts   *MockAccountService
	conjuntoID     string
	actorID        string
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.mockLedger = new(MockLedgerService)
	suite.mockValidation = new(MockValidationService)
	suite.mockReserve = new(MockReserveFundService)
	suite.mockConjunto = new(MockConjuntoService)
	suite.mockAccounts = new(MockAccountService)

	container := &portssvc.ServiceContainer{
		Conjunto:    suite.mockConjunto,
		Account:     suite.mockAccounts,
		Ledger:      suite.mockLedger,
		Validation:  suite.mockValidation,
		ReserveFund: suite.mockReserve,
	}
	handlers.RegisterRoutes(suite.router, &config.Config{}, container)

	suite.conjuntoID = uuid.NewString()
	suite.actorID = uuid.NewString()
}

// doJSON sends a request with the actor header set and returns the recorder.
func (suite *TransactionHandlerTestSuite) doJSON(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", suite.actorID)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_Success() {
	txnDate := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	reqBody := dto.CreateTransactionRequest{
		Date:        txnDate,
		Description: "Pago administración marzo",
	}
	created := &domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		ConjuntoID:    suite.conjuntoID,
		Number:        "2026-000007",
		Date:          txnDate,
		Status:        domain.Draft,
		Description:   reqBody.Description,
	}

	suite.mockLedger.On("CreateTransaction",
		mock.Anything,
		suite.conjuntoID,
		mock.MatchedBy(func(r dto.CreateTransactionRequest) bool {
			return r.Description == reqBody.Description && r.Date.Equal(txnDate)
		}),
		suite.actorID,
	).Return(created, nil).Once()

	w := suite.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/conjuntos/%s/transactions", suite.conjuntoID), reqBody)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.TransactionResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(created.TransactionID, resp.TransactionID)
	suite.Equal("2026-000007", resp.Number)
	suite.Equal(string(domain.Draft), resp.Status)

	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestCreateTransaction_MissingActor() {
	reqBody := dto.CreateTransactionRequest{
		Date:        time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		Description: "Sin actor",
	}
	var buf bytes.Buffer
	suite.NoError(json.NewEncoder(&buf).Encode(reqBody))
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/conjuntos/%s/transactions", suite.conjuntoID), &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateTransaction")
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	transactionID := uuid.NewString()
	suite.mockLedger.On("GetTransaction", mock.Anything, suite.conjuntoID, transactionID).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/conjuntos/%s/transactions/%s", suite.conjuntoID, transactionID), nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestPostTransaction_Conflict() {
	transactionID := uuid.NewString()
	suite.mockLedger.On("PostTransaction", mock.Anything, suite.conjuntoID, transactionID, suite.actorID).
		Return(nil, fmt.Errorf("%w: transaction already posted", apperrors.ErrConflict)).Once()

	w := suite.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/conjuntos/%s/transactions/%s/post", suite.conjuntoID, transactionID), nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestValidateTransaction_InvalidResultIsStill200() {
	transactionID := uuid.NewString()
	result := &dto.ValidationResult{
		IsValid: false,
		Errors: []dto.ValidationIssue{
			{Code: dto.IssueUnbalanced, Message: "los débitos no igualan los créditos"},
		},
	}
	suite.mockValidation.On("ValidateTransactionIntegrity", mock.Anything, suite.conjuntoID, transactionID).
		Return(result, nil).Once()

	w := suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/conjuntos/%s/validation/transactions/%s", suite.conjuntoID, transactionID), nil)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.ValidationResult
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.IsValid)
	suite.Len(resp.Errors, 1)
	suite.Equal(dto.IssueUnbalanced, resp.Errors[0].Code)

	suite.mockValidation.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestValidatePeriod_BadMonthParam() {
	w := suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/conjuntos/%s/validation/period?month=abc&year=2026", suite.conjuntoID), nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockValidation.AssertNotCalled(suite.T(), "ValidatePeriodIntegrity")
}

func (suite *TransactionHandlerTestSuite) TestExecuteAppropriation_Created() {
	result := &dto.AppropriationResult{
		Outcome:            dto.AppropriationCreated,
		Month:              3,
		Year:               2026,
		MonthlyIncome:      decimal.NewFromInt(1000000),
		AppropriatedAmount: decimal.NewFromInt(300000),
	}
	suite.mockReserve.On("ExecuteMonthlyAppropriation",
		mock.Anything, suite.conjuntoID, 3, 2026,
		portssvc.AppropriationOptions{ActorID: suite.actorID},
	).Return(result, nil).Once()

	w := suite.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/conjuntos/%s/reserve-fund/appropriations", suite.conjuntoID),
		dto.ExecuteAppropriationRequest{Month: 3, Year: 2026})

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.AppropriationResult
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(dto.AppropriationCreated, resp.Outcome)
	suite.True(resp.AppropriatedAmount.Equal(decimal.NewFromInt(300000)))

	suite.mockReserve.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestExecuteAppropriation_AlreadyExistsIs200() {
	result := &dto.AppropriationResult{
		Outcome: dto.AppropriationAlreadyExists,
		Month:   3,
		Year:    2026,
	}
	suite.mockReserve.On("ExecuteMonthlyAppropriation",
		mock.Anything, suite.conjuntoID, 3, 2026,
		portssvc.AppropriationOptions{ActorID: suite.actorID},
	).Return(result, nil).Once()

	w := suite.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/conjuntos/%s/reserve-fund/appropriations", suite.conjuntoID),
		dto.ExecuteAppropriationRequest{Month: 3, Year: 2026})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockReserve.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestGetReserveBalance() {
	suite.mockReserve.On("GetReserveFundBalance", mock.Anything, suite.conjuntoID).
		Return(decimal.NewFromInt(800000), nil).Once()

	w := suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/conjuntos/%s/reserve-fund/balance", suite.conjuntoID), nil)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.ReserveBalanceResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(suite.conjuntoID, resp.ConjuntoID)
	suite.True(resp.Balance.Equal(decimal.NewFromInt(800000)))

	suite.mockReserve.AssertExpectations(suite.T())
}

func TestTransactionHandler(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
