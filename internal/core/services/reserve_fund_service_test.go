package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/core/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
)

var reserveNow = time.Date(2026, time.July, 1, 3, 0, 0, 0, time.UTC)

type ReserveFundServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo   *MockLedgerRepository
	mockAccountRepo  *MockAccountRepository
	mockConjuntoRepo *MockConjuntoRepository
	mockEvents       *MockEventPublisher
	service          portssvc.ReserveFundSvcFacade
	conjuntoID       string
	expenseAccount   domain.Account
	fundAccount      domain.Account
}

func (suite *ReserveFundServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockConjuntoRepo = new(MockConjuntoRepository)
	suite.mockEvents = new(MockEventPublisher)
	suite.service = services.NewReserveFundServiceWithClock(
		suite.mockLedgerRepo, suite.mockAccountRepo, suite.mockConjuntoRepo, suite.mockEvents,
		services.DefaultReserveFundConfig(), func() time.Time { return reserveNow })

	suite.conjuntoID = uuid.NewString()
	suite.expenseAccount = domain.Account{
		AccountID:      uuid.NewString(),
		ConjuntoID:     suite.conjuntoID,
		Code:           "530505",
		Name:           "Apropiación fondo de reserva",
		AccountType:    domain.Expense,
		Nature:         domain.NatureDebit,
		AcceptsPosting: true,
		IsActive:       true,
	}
	suite.fundAccount = domain.Account{
		AccountID:      uuid.NewString(),
		ConjuntoID:     suite.conjuntoID,
		Code:           "320505",
		Name:           "Fondo de reserva",
		AccountType:    domain.Equity,
		Nature:         domain.NatureCredit,
		AcceptsPosting: true,
		IsActive:       true,
	}
}

func (suite *ReserveFundServiceTestSuite) conjunto() *domain.Conjunto {
	return &domain.Conjunto{ConjuntoID: suite.conjuntoID, Name: "Conjunto Los Cerezos", IsActive: true}
}

func (suite *ReserveFundServiceTestSuite) TestCalculateMonthlyReserve_ThirtyPercent() {
	ctx := context.Background()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.NewFromInt(1000000), nil).Once()

	amount, err := suite.service.CalculateMonthlyReserve(ctx, suite.conjuntoID, 6, 2026)

	suite.Require().NoError(err)
	suite.True(amount.Equal(decimal.NewFromInt(300000)), "expected 300000, got %s", amount)
}

func (suite *ReserveFundServiceTestSuite) TestCalculateMonthlyReserve_RoundsToCentavos() {
	ctx := context.Background()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.RequireFromString("1000000.33"), nil).Once()

	amount, err := suite.service.CalculateMonthlyReserve(ctx, suite.conjuntoID, 6, 2026)

	suite.Require().NoError(err)
	// 300000.099 rounds to 300000.10
	suite.True(amount.Equal(decimal.RequireFromString("300000.10")), "got %s", amount)
}

func (suite *ReserveFundServiceTestSuite) TestCalculateMonthlyReserve_NoIncome() {
	ctx := context.Background()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.Zero, nil).Once()

	amount, err := suite.service.CalculateMonthlyReserve(ctx, suite.conjuntoID, 6, 2026)

	suite.Require().NoError(err)
	suite.True(amount.IsZero())
}

func (suite *ReserveFundServiceTestSuite) TestCalculateMonthlyReserve_BadMonth() {
	ctx := context.Background()

	_, err := suite.service.CalculateMonthlyReserve(ctx, suite.conjuntoID, 0, 2026)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_CreatesPostedTransaction() {
	ctx := context.Background()
	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.NewFromInt(1000000), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "530505").Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "320505").Return(&suite.fundAccount, nil).Once()
	suite.mockLedgerRepo.On("NextTransactionNumber", ctx, suite.conjuntoID, 2026).Return("2026-000120", nil).Once()

	var saved domain.LedgerTransaction
	suite.mockLedgerRepo.On("CreateTransaction", ctx, mock.AnythingOfType("domain.LedgerTransaction")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.LedgerTransaction) }).
		Return(nil).Once()
	suite.mockEvents.On("PublishReserveAppropriationCreated", ctx, mock.AnythingOfType("domain.ReserveAppropriationCreated")).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{ActorID: "admin-1"})

	suite.Require().NoError(err)
	suite.Equal(dto.AppropriationCreated, result.Outcome)
	suite.True(result.AppropriatedAmount.Equal(decimal.NewFromInt(300000)))
	suite.True(result.MonthlyIncome.Equal(decimal.NewFromInt(1000000)))
	suite.Require().NotNil(result.Transaction)

	// The persisted aggregate is already posted and balanced.
	suite.Equal(domain.Posted, saved.Status)
	suite.Equal(domain.ReferenceReserveAppropriation, saved.ReferenceType)
	suite.Equal("2026-06", saved.ReferenceID)
	suite.Equal(time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), saved.Date)
	suite.Require().Len(saved.Entries, 2)
	suite.True(saved.Entries[0].Debit.Equal(decimal.NewFromInt(300000)))
	suite.Equal(suite.expenseAccount.AccountID, saved.Entries[0].AccountID)
	suite.True(saved.Entries[1].Credit.Equal(decimal.NewFromInt(300000)))
	suite.Equal(suite.fundAccount.AccountID, saved.Entries[1].AccountID)

	suite.mockEvents.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_Idempotent() {
	ctx := context.Background()
	existing := domain.NewLedgerTransaction(uuid.NewString(), suite.conjuntoID, "2026-000120", reserveNow, "Apropiación fondo de reserva", "system", reserveNow)
	existing.Status = domain.Posted
	existing.ReferenceType = domain.ReferenceReserveAppropriation
	existing.ReferenceID = "2026-06"
	existing.TotalCredit = decimal.NewFromInt(300000)

	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(&existing, nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{})

	suite.Require().NoError(err)
	suite.Equal(dto.AppropriationAlreadyExists, result.Outcome)
	suite.True(result.AppropriatedAmount.Equal(decimal.NewFromInt(300000)))
	suite.Require().NotNil(result.Transaction)
	suite.Equal(existing.TransactionID, result.Transaction.TransactionID)

	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "PublishReserveAppropriationCreated", mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_RaceLostMapsToAlreadyExists() {
	ctx := context.Background()
	existing := domain.NewLedgerTransaction(uuid.NewString(), suite.conjuntoID, "2026-000121", reserveNow, "Apropiación fondo de reserva", "system", reserveNow)
	existing.Status = domain.Posted
	existing.TotalCredit = decimal.NewFromInt(300000)

	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.NewFromInt(1000000), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "530505").Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "320505").Return(&suite.fundAccount, nil).Once()
	suite.mockLedgerRepo.On("NextTransactionNumber", ctx, suite.conjuntoID, 2026).Return("2026-000122", nil).Once()

	// A concurrent run inserted first; the unique index rejects ours.
	suite.mockLedgerRepo.On("CreateTransaction", ctx, mock.AnythingOfType("domain.LedgerTransaction")).Return(apperrors.ErrDuplicate).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(&existing, nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{})

	suite.Require().NoError(err)
	suite.Equal(dto.AppropriationAlreadyExists, result.Outcome)
	suite.mockEvents.AssertNotCalled(suite.T(), "PublishReserveAppropriationCreated", mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_NoIncome() {
	ctx := context.Background()
	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.Zero, nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{})

	suite.Require().NoError(err)
	suite.Equal(dto.AppropriationNoIncome, result.Outcome)
	suite.True(result.AppropriatedAmount.IsZero())
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_DryRun() {
	ctx := context.Background()
	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.NewFromInt(800000), nil).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{DryRun: true})

	suite.Require().NoError(err)
	suite.Equal(dto.AppropriationDryRun, result.Outcome)
	suite.True(result.AppropriatedAmount.Equal(decimal.NewFromInt(240000)))
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "PublishReserveAppropriationCreated", mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_ForceIsAdditive() {
	ctx := context.Background()
	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.NewFromInt(500000), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "530505").Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "320505").Return(&suite.fundAccount, nil).Once()
	suite.mockLedgerRepo.On("NextTransactionNumber", ctx, suite.conjuntoID, 2026).Return("2026-000130", nil).Once()

	var saved domain.LedgerTransaction
	suite.mockLedgerRepo.On("CreateTransaction", ctx, mock.AnythingOfType("domain.LedgerTransaction")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.LedgerTransaction) }).
		Return(nil).Once()
	suite.mockEvents.On("PublishReserveAppropriationCreated", ctx, mock.AnythingOfType("domain.ReserveAppropriationCreated")).Once()

	result, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{Force: true})

	suite.Require().NoError(err)
	suite.Equal(dto.AppropriationCreated, result.Outcome)
	// Forced runs never consult the existing appropriation and are tagged so
	// they fall outside the once-per-period uniqueness key.
	suite.Equal(domain.ReferenceReserveAppropriationExtra, saved.ReferenceType)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindAppropriationByPeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestExecuteAppropriation_MissingFundAccount() {
	ctx := context.Background()
	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("FindAppropriationByPeriod", ctx, suite.conjuntoID, 6, 2026).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedgerRepo.On("SumCreditsByAccountPrefix", ctx, suite.conjuntoID, "41", 6, 2026).
		Return(decimal.NewFromInt(1000000), nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "530505").Return(&suite.expenseAccount, nil).Once()
	suite.mockAccountRepo.On("FindAccountByCode", ctx, suite.conjuntoID, "320505").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ExecuteMonthlyAppropriation(ctx, suite.conjuntoID, 6, 2026, portssvc.AppropriationOptions{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConfiguration)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *ReserveFundServiceTestSuite) TestGetReserveFundBalance() {
	ctx := context.Background()
	suite.mockLedgerRepo.On("SumPostedByAccountCode", ctx, suite.conjuntoID, "320505").
		Return(decimal.NewFromInt(900000), decimal.NewFromInt(100000), nil).Once()

	balance, err := suite.service.GetReserveFundBalance(ctx, suite.conjuntoID)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(800000)))
}

func (suite *ReserveFundServiceTestSuite) TestValidateLegalCompliance_Compliant() {
	ctx := context.Background()
	income := map[int]decimal.Decimal{}
	appropriated := map[int]decimal.Decimal{}
	for m := 1; m <= 6; m++ {
		income[m] = decimal.NewFromInt(1000000)
		appropriated[m] = decimal.NewFromInt(300000)
	}

	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("SumMonthlyCreditsByPrefixForYear", ctx, suite.conjuntoID, "41", 2026).Return(income, nil).Once()
	suite.mockLedgerRepo.On("SumMonthlyAppropriationsForYear", ctx, suite.conjuntoID, 2026).Return(appropriated, nil).Once()

	report, err := suite.service.ValidateLegalCompliance(ctx, suite.conjuntoID, 2026)

	suite.Require().NoError(err)
	suite.True(report.IsCompliant)
	suite.True(report.TotalIncome.Equal(decimal.NewFromInt(6000000)))
	suite.True(report.TotalAppropriated.Equal(decimal.NewFromInt(1800000)))
	suite.True(report.CompliancePercentage.Equal(decimal.NewFromInt(30)))
	suite.Len(report.Months, 12)
	suite.True(report.Months[11].Income.IsZero())
}

func (suite *ReserveFundServiceTestSuite) TestValidateLegalCompliance_Shortfall() {
	ctx := context.Background()
	income := map[int]decimal.Decimal{1: decimal.NewFromInt(1000000)}
	appropriated := map[int]decimal.Decimal{1: decimal.NewFromInt(150000)}

	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("SumMonthlyCreditsByPrefixForYear", ctx, suite.conjuntoID, "41", 2026).Return(income, nil).Once()
	suite.mockLedgerRepo.On("SumMonthlyAppropriationsForYear", ctx, suite.conjuntoID, 2026).Return(appropriated, nil).Once()

	report, err := suite.service.ValidateLegalCompliance(ctx, suite.conjuntoID, 2026)

	suite.Require().NoError(err)
	suite.False(report.IsCompliant)
	suite.True(report.CompliancePercentage.Equal(decimal.NewFromInt(15)))
}

func (suite *ReserveFundServiceTestSuite) TestValidateLegalCompliance_NoIncomeYear() {
	ctx := context.Background()
	suite.mockConjuntoRepo.On("FindConjuntoByID", ctx, suite.conjuntoID).Return(suite.conjunto(), nil).Once()
	suite.mockLedgerRepo.On("SumMonthlyCreditsByPrefixForYear", ctx, suite.conjuntoID, "41", 2026).Return(map[int]decimal.Decimal{}, nil).Once()
	suite.mockLedgerRepo.On("SumMonthlyAppropriationsForYear", ctx, suite.conjuntoID, 2026).Return(map[int]decimal.Decimal{}, nil).Once()

	report, err := suite.service.ValidateLegalCompliance(ctx, suite.conjuntoID, 2026)

	suite.Require().NoError(err)
	suite.True(report.IsCompliant)
	suite.True(report.CompliancePercentage.IsZero())
}

func TestReserveFundServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReserveFundServiceTestSuite))
}
