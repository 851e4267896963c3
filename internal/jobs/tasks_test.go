package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/jobs"
)

type mockConjuntoService struct {
	mock.Mock
}

func (m *mockConjuntoService) CreateConjunto(ctx context.Context, req dto.CreateConjuntoRequest, actorID string) (*domain.Conjunto, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conjunto), args.Error(1)
}
func (m *mockConjuntoService) GetConjunto(ctx context.Context, conjuntoID string) (*domain.Conjunto, error) {
	args := m.Called(ctx, conjuntoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conjunto), args.Error(1)
}
func (m *mockConjuntoService) ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conjunto), args.Error(1)
}

type mockReserveService struct {
	mock.Mock
}

func (m *mockReserveService) CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID, month, year)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *mockReserveService) ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, opts portssvc.AppropriationOptions) (*dto.AppropriationResult, error) {
	args := m.Called(ctx, conjuntoID, month, year, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AppropriationResult), args.Error(1)
}
func (m *mockReserveService) GetReserveFundBalance(ctx context.Context, conjuntoID string) (decimal.Decimal, error) {
	args := m.Called(ctx, conjuntoID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *mockReserveService) ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*dto.ComplianceReport, error) {
	args := m.Called(ctx, conjuntoID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ComplianceReport), args.Error(1)
}

func newTask(t *testing.T, payload jobs.ReserveAppropriationPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	assert.NoError(t, err)
	return asynq.NewTask(jobs.TaskReserveAppropriation, data)
}

func TestHandle_FansOutOverActiveConjuntos(t *testing.T) {
	conjuntos := new(mockConjuntoService)
	reserve := new(mockReserveService)
	job := jobs.NewReserveAppropriationJob(conjuntos, reserve, nil)

	conjuntos.On("ListActiveConjuntos", mock.Anything).Return([]domain.Conjunto{
		{ConjuntoID: "c-1", Name: "Torres del Parque", IsActive: true},
		{ConjuntoID: "c-2", Name: "Altos de la Colina", IsActive: true},
	}, nil).Once()

	created := &dto.AppropriationResult{Outcome: dto.AppropriationCreated, Month: 5, Year: 2026}
	exists := &dto.AppropriationResult{Outcome: dto.AppropriationAlreadyExists, Month: 5, Year: 2026}
	reserve.On("ExecuteMonthlyAppropriation", mock.Anything, "c-1", 5, 2026, portssvc.AppropriationOptions{}).
		Return(created, nil).Once()
	reserve.On("ExecuteMonthlyAppropriation", mock.Anything, "c-2", 5, 2026, portssvc.AppropriationOptions{}).
		Return(exists, nil).Once()

	err := job.Handle(context.Background(), newTask(t, jobs.ReserveAppropriationPayload{Month: 5, Year: 2026}))

	// The already_exists no-op must not fail the task.
	assert.NoError(t, err)
	conjuntos.AssertExpectations(t)
	reserve.AssertExpectations(t)
}

func TestHandle_SingleConjuntoSkipsFanOut(t *testing.T) {
	conjuntos := new(mockConjuntoService)
	reserve := new(mockReserveService)
	job := jobs.NewReserveAppropriationJob(conjuntos, reserve, nil)

	result := &dto.AppropriationResult{Outcome: dto.AppropriationNoIncome, Month: 2, Year: 2026}
	reserve.On("ExecuteMonthlyAppropriation", mock.Anything, "c-9", 2, 2026, portssvc.AppropriationOptions{DryRun: true}).
		Return(result, nil).Once()

	err := job.Handle(context.Background(), newTask(t, jobs.ReserveAppropriationPayload{
		ConjuntoID: "c-9",
		Month:      2,
		Year:       2026,
		DryRun:     true,
	}))

	assert.NoError(t, err)
	conjuntos.AssertNotCalled(t, "ListActiveConjuntos")
	reserve.AssertExpectations(t)
}

func TestHandle_PartialFailureFailsTask(t *testing.T) {
	conjuntos := new(mockConjuntoService)
	reserve := new(mockReserveService)
	job := jobs.NewReserveAppropriationJob(conjuntos, reserve, nil)

	conjuntos.On("ListActiveConjuntos", mock.Anything).Return([]domain.Conjunto{
		{ConjuntoID: "c-1", IsActive: true},
		{ConjuntoID: "c-2", IsActive: true},
	}, nil).Once()

	created := &dto.AppropriationResult{Outcome: dto.AppropriationCreated, Month: 5, Year: 2026}
	reserve.On("ExecuteMonthlyAppropriation", mock.Anything, "c-1", 5, 2026, portssvc.AppropriationOptions{}).
		Return(nil, errors.New("connection reset")).Once()
	reserve.On("ExecuteMonthlyAppropriation", mock.Anything, "c-2", 5, 2026, portssvc.AppropriationOptions{}).
		Return(created, nil).Once()

	err := job.Handle(context.Background(), newTask(t, jobs.ReserveAppropriationPayload{Month: 5, Year: 2026}))

	// One failing conjunto fails the task so asynq retries, but the second
	// conjunto was still processed.
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "c-1")
	reserve.AssertExpectations(t)
}

func TestHandle_MalformedPayloadSkipsRetry(t *testing.T) {
	job := jobs.NewReserveAppropriationJob(nil, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskReserveAppropriation, []byte("{not json")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}
