package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/middleware"
	"github.com/copropia/conjunto_ledger_app/internal/utils/accounting"
)

// ReserveFundConfig carries the legal parameters of the mandatory reserve
// fund and the chart codes the engine posts against. Ley 675 requires at
// least 1% of the annual ordinary budget; Colombian administrators commonly
// appropriate a higher percentage, configured per deployment.
type ReserveFundConfig struct {
	// Percentage of monthly operating income appropriated (e.g. 30 for 30%).
	Percentage decimal.Decimal
	// MinimumPercentage is the compliance floor certified yearly.
	MinimumPercentage decimal.Decimal
	// IncomeAccountPrefix selects the operating income accounts ("41").
	IncomeAccountPrefix string
	// ExpenseAccountCode is debited by the appropriation entry.
	ExpenseAccountCode string
	// FundAccountCode is credited by the appropriation entry.
	FundAccountCode string
	// SystemActorID is recorded when no actor is supplied (scheduled runs).
	SystemActorID string
}

// DefaultReserveFundConfig returns the standard configuration.
func DefaultReserveFundConfig() ReserveFundConfig {
	return ReserveFundConfig{
		Percentage:          decimal.NewFromInt(30),
		MinimumPercentage:   decimal.NewFromInt(30),
		IncomeAccountPrefix: "41",
		ExpenseAccountCode:  "530505",
		FundAccountCode:     "320505",
		SystemActorID:       "system",
	}
}

// reserveFundService computes and posts the monthly reserve appropriation
// and certifies yearly compliance.
type reserveFundService struct {
	ledgerRepo   portsrepo.LedgerRepositoryWithTx
	accountRepo  portsrepo.AccountRepositoryFacade
	conjuntoRepo portsrepo.ConjuntoRepository
	events       portssvc.EventPublisher
	cfg          ReserveFundConfig
	now          func() time.Time
}

// NewReserveFundService creates a new reserve fund service.
func NewReserveFundService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, conjuntoRepo portsrepo.ConjuntoRepository, events portssvc.EventPublisher, cfg ReserveFundConfig) portssvc.ReserveFundSvcFacade {
	return &reserveFundService{
		ledgerRepo:   ledgerRepo,
		accountRepo:  accountRepo,
		conjuntoRepo: conjuntoRepo,
		events:       events,
		cfg:          cfg,
		now:          time.Now,
	}
}

// NewReserveFundServiceWithClock creates a reserve fund service with a fixed
// clock for deterministic tests.
func NewReserveFundServiceWithClock(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, conjuntoRepo portsrepo.ConjuntoRepository, events portssvc.EventPublisher, cfg ReserveFundConfig, now func() time.Time) portssvc.ReserveFundSvcFacade {
	return &reserveFundService{
		ledgerRepo:   ledgerRepo,
		accountRepo:  accountRepo,
		conjuntoRepo: conjuntoRepo,
		events:       events,
		cfg:          cfg,
		now:          now,
	}
}

var _ portssvc.ReserveFundSvcFacade = (*reserveFundService)(nil)

func validPeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", apperrors.ErrValidation, month)
	}
	if year < 2000 {
		return fmt.Errorf("%w: year %d out of range", apperrors.ErrValidation, year)
	}
	return nil
}

// CalculateMonthlyReserve returns the configured percentage of operating
// income posted in the period, rounded to centavos. Zero when the period has
// no posted income; the calculation never fails on an empty ledger.
func (s *reserveFundService) CalculateMonthlyReserve(ctx context.Context, conjuntoID string, month, year int) (decimal.Decimal, error) {
	if err := validPeriod(month, year); err != nil {
		return decimal.Zero, err
	}

	income, err := s.ledgerRepo.SumCreditsByAccountPrefix(ctx, conjuntoID, s.cfg.IncomeAccountPrefix, month, year)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum operating income for %d-%02d: %w", year, month, err)
	}
	if income.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	return accounting.ApplyPercentage(income, s.cfg.Percentage), nil
}

// ExecuteMonthlyAppropriation creates and posts the reserve appropriation
// transaction for the period exactly once. The once-per-period guarantee is
// enforced twice: a lookup short-circuit here and a partial unique index in
// storage that closes the check-then-insert race.
func (s *reserveFundService) ExecuteMonthlyAppropriation(ctx context.Context, conjuntoID string, month, year int, opts portssvc.AppropriationOptions) (*dto.AppropriationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validPeriod(month, year); err != nil {
		return nil, err
	}
	if _, err := s.conjuntoRepo.FindConjuntoByID(ctx, conjuntoID); err != nil {
		return nil, fmt.Errorf("conjunto %s: %w", conjuntoID, err)
	}

	result := &dto.AppropriationResult{Month: month, Year: year}

	if !opts.Force {
		existing, err := s.ledgerRepo.FindAppropriationByPeriod(ctx, conjuntoID, month, year)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up existing appropriation: %w", err)
		}
		if existing != nil {
			resp := dto.ToTransactionResponse(existing)
			result.Outcome = dto.AppropriationAlreadyExists
			result.AppropriatedAmount = existing.TotalCredit
			result.Transaction = &resp
			logger.Info("Reserve appropriation already exists",
				slog.String("conjunto_id", conjuntoID), slog.Int("month", month), slog.Int("year", year),
				slog.String("transaction_id", existing.TransactionID))
			return result, nil
		}
	}

	income, err := s.ledgerRepo.SumCreditsByAccountPrefix(ctx, conjuntoID, s.cfg.IncomeAccountPrefix, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum operating income for %d-%02d: %w", year, month, err)
	}
	result.MonthlyIncome = income

	if income.LessThanOrEqual(decimal.Zero) {
		result.Outcome = dto.AppropriationNoIncome
		result.AppropriatedAmount = decimal.Zero
		logger.Info("No operating income, reserve appropriation skipped",
			slog.String("conjunto_id", conjuntoID), slog.Int("month", month), slog.Int("year", year))
		return result, nil
	}

	amount := accounting.ApplyPercentage(income, s.cfg.Percentage)
	result.AppropriatedAmount = amount

	if opts.DryRun {
		result.Outcome = dto.AppropriationDryRun
		return result, nil
	}

	txn, err := s.buildAppropriationTransaction(ctx, conjuntoID, month, year, amount, opts)
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.CreateTransaction(ctx, *txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) && !opts.Force {
			// A concurrent run won the race; treat it exactly like the lookup
			// short-circuit.
			existing, lookupErr := s.ledgerRepo.FindAppropriationByPeriod(ctx, conjuntoID, month, year)
			if lookupErr != nil {
				return nil, fmt.Errorf("appropriation exists but could not be loaded: %w", lookupErr)
			}
			resp := dto.ToTransactionResponse(existing)
			result.Outcome = dto.AppropriationAlreadyExists
			result.AppropriatedAmount = existing.TotalCredit
			result.Transaction = &resp
			return result, nil
		}
		return nil, fmt.Errorf("failed to save appropriation: %w", err)
	}

	resp := dto.ToTransactionResponse(txn)
	result.Outcome = dto.AppropriationCreated
	result.Transaction = &resp

	s.events.PublishReserveAppropriationCreated(ctx, domain.ReserveAppropriationCreated{
		ConjuntoID:         conjuntoID,
		TransactionID:      txn.TransactionID,
		Month:              month,
		Year:               year,
		AppropriatedAmount: amount,
		MonthlyIncome:      income,
		Forced:             opts.Force,
	})

	logger.Info("Reserve appropriation posted",
		slog.String("conjunto_id", conjuntoID), slog.Int("month", month), slog.Int("year", year),
		slog.String("transaction_id", txn.TransactionID), slog.String("amount", amount.String()),
		slog.Bool("forced", opts.Force))
	return result, nil
}

// buildAppropriationTransaction assembles and posts (in memory) the two-entry
// appropriation: debit the appropriation expense, credit the reserve fund.
func (s *reserveFundService) buildAppropriationTransaction(ctx context.Context, conjuntoID string, month, year int, amount decimal.Decimal, opts portssvc.AppropriationOptions) (*domain.LedgerTransaction, error) {
	expenseAccount, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, s.cfg.ExpenseAccountCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: appropriation expense account %s is missing from the chart", apperrors.ErrConfiguration, s.cfg.ExpenseAccountCode)
		}
		return nil, fmt.Errorf("failed to resolve expense account: %w", err)
	}
	fundAccount, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, s.cfg.FundAccountCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: reserve fund account %s is missing from the chart", apperrors.ErrConfiguration, s.cfg.FundAccountCode)
		}
		return nil, fmt.Errorf("failed to resolve fund account: %w", err)
	}

	actorID := opts.ActorID
	if actorID == "" {
		actorID = s.cfg.SystemActorID
	}

	// Dated on the last day of the period so the posting lands inside the
	// month it appropriates.
	date := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	now := s.now().UTC()

	number, err := s.ledgerRepo.NextTransactionNumber(ctx, conjuntoID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve transaction number: %w", err)
	}

	description := fmt.Sprintf("Apropiación fondo de reserva %d-%02d (%s%% de ingresos operacionales)", year, month, s.cfg.Percentage.String())
	txn := domain.NewLedgerTransaction(uuid.NewString(), conjuntoID, number, date, description, actorID, now)
	txn.ReferenceType = domain.ReferenceReserveAppropriation
	if opts.Force {
		txn.ReferenceType = domain.ReferenceReserveAppropriationExtra
	}
	txn.ReferenceID = fmt.Sprintf("%04d-%02d", year, month)

	if err := txn.AddEntry(uuid.NewString(), *expenseAccount, "Apropiación mensual fondo de reserva", amount, decimal.Zero, nil, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to build expense entry: %w", err)
	}
	if err := txn.AddEntry(uuid.NewString(), *fundAccount, "Apropiación mensual fondo de reserva", decimal.Zero, amount, nil, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to build fund entry: %w", err)
	}

	if _, err := txn.Post(actorID, now); err != nil {
		return nil, fmt.Errorf("failed to post appropriation: %w", err)
	}
	return &txn, nil
}

// GetReserveFundBalance returns the cumulative balance of the reserve fund
// account. The fund account is credit-natured, so balance is credits minus
// debits; debits only appear through authorized reversals.
func (s *reserveFundService) GetReserveFundBalance(ctx context.Context, conjuntoID string) (decimal.Decimal, error) {
	credits, debits, err := s.ledgerRepo.SumPostedByAccountCode(ctx, conjuntoID, s.cfg.FundAccountCode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum reserve fund postings: %w", err)
	}
	return credits.Sub(debits), nil
}

// ValidateLegalCompliance aggregates appropriations against operating income
// across all twelve periods of a year and certifies whether the minimum
// percentage was met.
func (s *reserveFundService) ValidateLegalCompliance(ctx context.Context, conjuntoID string, year int) (*dto.ComplianceReport, error) {
	if year < 2000 {
		return nil, fmt.Errorf("%w: year %d out of range", apperrors.ErrValidation, year)
	}
	if _, err := s.conjuntoRepo.FindConjuntoByID(ctx, conjuntoID); err != nil {
		return nil, fmt.Errorf("conjunto %s: %w", conjuntoID, err)
	}

	incomeByMonth, err := s.ledgerRepo.SumMonthlyCreditsByPrefixForYear(ctx, conjuntoID, s.cfg.IncomeAccountPrefix, year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum yearly income: %w", err)
	}
	appropriatedByMonth, err := s.ledgerRepo.SumMonthlyAppropriationsForYear(ctx, conjuntoID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum yearly appropriations: %w", err)
	}

	report := &dto.ComplianceReport{
		ConjuntoID:        conjuntoID,
		Year:              year,
		TotalIncome:       decimal.Zero,
		TotalAppropriated: decimal.Zero,
		MinimumPercentage: s.cfg.MinimumPercentage,
		Months:            make([]dto.MonthlyCompliance, 0, 12),
	}

	for month := 1; month <= 12; month++ {
		income := incomeByMonth[month]
		appropriated := appropriatedByMonth[month]
		report.TotalIncome = report.TotalIncome.Add(income)
		report.TotalAppropriated = report.TotalAppropriated.Add(appropriated)
		report.Months = append(report.Months, dto.MonthlyCompliance{
			Month:        month,
			Income:       income,
			Appropriated: appropriated,
		})
	}

	if report.TotalIncome.IsPositive() {
		report.CompliancePercentage = report.TotalAppropriated.
			Div(report.TotalIncome).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	} else {
		// Nothing to appropriate from; a year with no income is trivially
		// compliant.
		report.CompliancePercentage = decimal.Zero
		report.IsCompliant = true
		return report, nil
	}

	report.IsCompliant = report.CompliancePercentage.GreaterThanOrEqual(s.cfg.MinimumPercentage)
	return report, nil
}
