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

// accountService manages the chart of accounts of a conjunto.
type accountService struct {
	accountRepo  portsrepo.AccountRepositoryFacade
	conjuntoRepo portsrepo.ConjuntoRepository
	now          func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, conjuntoRepo portsrepo.ConjuntoRepository) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo:  accountRepo,
		conjuntoRepo: conjuntoRepo,
		now:          time.Now,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) requireConjunto(ctx context.Context, conjuntoID string) error {
	conjunto, err := s.conjuntoRepo.FindConjuntoByID(ctx, conjuntoID)
	if err != nil {
		return fmt.Errorf("conjunto %s: %w", conjuntoID, err)
	}
	if !conjunto.IsActive {
		return fmt.Errorf("%w: conjunto %s is inactive", apperrors.ErrValidation, conjuntoID)
	}
	return nil
}

// CreateAccount adds an account to the chart. Level and parent code are
// derived from the code; nature defaults to the conventional side for the
// account type when not given.
func (s *accountService) CreateAccount(ctx context.Context, conjuntoID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.requireConjunto(ctx, conjuntoID); err != nil {
		return nil, err
	}

	if existing, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, req.Code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, req.Code)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check account code %s: %w", req.Code, err)
	}

	parentCode := domain.ParentCodeFor(req.Code)
	if parentCode != "" {
		if _, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, parentCode); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent account %s does not exist for code %s", apperrors.ErrValidation, parentCode, req.Code)
			}
			return nil, fmt.Errorf("failed to resolve parent account %s: %w", parentCode, err)
		}
	}

	accountType := domain.AccountType(req.AccountType)
	nature := domain.AccountNature(req.Nature)
	if nature == "" {
		nature = accountType.DefaultNature()
	}

	now := s.now().UTC()
	account := domain.Account{
		AccountID:          uuid.NewString(),
		ConjuntoID:         conjuntoID,
		Code:               req.Code,
		Name:               req.Name,
		AccountType:        accountType,
		Nature:             nature,
		Level:              domain.LevelForCode(req.Code),
		ParentCode:         parentCode,
		AcceptsPosting:     req.AcceptsPosting,
		RequiresThirdParty: req.RequiresThirdParty,
		IsActive:           true,
		AuditFields:        domain.NewAuditFields(actorID, now),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code), slog.String("conjunto_id", conjuntoID))
	return &account, nil
}

// GetAccountByCode retrieves an account by its chart code.
func (s *accountService) GetAccountByCode(ctx context.Context, conjuntoID, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, code)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", code, err)
	}
	return account, nil
}

// ListAccounts returns the chart of accounts ordered by code.
func (s *accountService) ListAccounts(ctx context.Context, conjuntoID string) ([]domain.Account, error) {
	if err := s.requireConjunto(ctx, conjuntoID); err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, conjuntoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount changes mutable account fields.
func (s *accountService) UpdateAccount(ctx context.Context, conjuntoID, code string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, code)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", code, err)
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.RequiresThirdParty != nil {
		account.RequiresThirdParty = *req.RequiresThirdParty
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = s.now().UTC()
	account.LastUpdatedBy = actorID
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		return nil, fmt.Errorf("failed to update account %s: %w", code, err)
	}
	return account, nil
}

// DeactivateAccount soft-retires an account. Accounts referenced by entries
// are never deleted, only retired.
func (s *accountService) DeactivateAccount(ctx context.Context, conjuntoID, code string, actorID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByCode(ctx, conjuntoID, code)
	if err != nil {
		return fmt.Errorf("account %s: %w", code, err)
	}
	if !account.IsActive {
		return nil
	}

	account.IsActive = false
	account.LastUpdatedAt = s.now().UTC()
	account.LastUpdatedBy = actorID
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", code, err)
	}

	logger.Info("Account deactivated", slog.String("code", code), slog.String("conjunto_id", conjuntoID))
	return nil
}

// SeedDefaultChart installs the default chart for a new conjunto, skipping
// codes that already exist.
func (s *accountService) SeedDefaultChart(ctx context.Context, conjuntoID string, actorID string) ([]domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.requireConjunto(ctx, conjuntoID); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.ListAccounts(ctx, conjuntoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing accounts: %w", err)
	}
	existingCodes := make(map[string]struct{}, len(existing))
	for _, acc := range existing {
		existingCodes[acc.Code] = struct{}{}
	}

	now := s.now().UTC()
	created := make([]domain.Account, 0, len(defaultChart))
	for _, seed := range defaultChart {
		if _, ok := existingCodes[seed.Code]; ok {
			continue
		}
		created = append(created, domain.Account{
			AccountID:          uuid.NewString(),
			ConjuntoID:         conjuntoID,
			Code:               seed.Code,
			Name:               seed.Name,
			AccountType:        seed.Type,
			Nature:             seed.Type.DefaultNature(),
			Level:              domain.LevelForCode(seed.Code),
			ParentCode:         domain.ParentCodeFor(seed.Code),
			AcceptsPosting:     seed.AcceptsPosting,
			RequiresThirdParty: seed.RequiresThirdParty,
			IsActive:           true,
			AuditFields:        domain.NewAuditFields(actorID, now),
		})
	}

	if len(created) > 0 {
		if err := s.accountRepo.SaveAccounts(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to seed chart of accounts: %w", err)
		}
	}

	logger.Info("Default chart seeded", slog.String("conjunto_id", conjuntoID), slog.Int("created", len(created)), slog.Int("skipped", len(existing)))
	return created, nil
}

type chartSeed struct {
	Code               string
	Name               string
	Type               domain.AccountType
	AcceptsPosting     bool
	RequiresThirdParty bool
}

// defaultChart is the minimal chart a conjunto needs to operate: admin fee
// income, operating expenses, and the reserve fund account pair. Ordered so
// parents always precede children.
var defaultChart = []chartSeed{
	{Code: "1", Name: "Activo", Type: domain.Asset},
	{Code: "11", Name: "Disponible", Type: domain.Asset},
	{Code: "1105", Name: "Caja", Type: domain.Asset},
	{Code: "110505", Name: "Caja general", Type: domain.Asset, AcceptsPosting: true},
	{Code: "1110", Name: "Bancos", Type: domain.Asset},
	{Code: "111005", Name: "Cuenta corriente", Type: domain.Asset, AcceptsPosting: true},
	{Code: "13", Name: "Deudores", Type: domain.Asset},
	{Code: "1305", Name: "Cuotas de administración", Type: domain.Asset},
	{Code: "130505", Name: "Cuotas por cobrar", Type: domain.Asset, AcceptsPosting: true, RequiresThirdParty: true},

	{Code: "2", Name: "Pasivo", Type: domain.Liability},
	{Code: "23", Name: "Cuentas por pagar", Type: domain.Liability},
	{Code: "2335", Name: "Costos y gastos por pagar", Type: domain.Liability},
	{Code: "233595", Name: "Otros costos y gastos por pagar", Type: domain.Liability, AcceptsPosting: true, RequiresThirdParty: true},

	{Code: "3", Name: "Patrimonio", Type: domain.Equity},
	{Code: "32", Name: "Reservas", Type: domain.Equity},
	{Code: "3205", Name: "Reservas obligatorias", Type: domain.Equity},
	{Code: "320505", Name: "Fondo de reserva", Type: domain.Equity, AcceptsPosting: true},

	{Code: "4", Name: "Ingresos", Type: domain.Income},
	{Code: "41", Name: "Operacionales", Type: domain.Income},
	{Code: "4135", Name: "Cuotas de administración", Type: domain.Income},
	{Code: "413505", Name: "Cuotas de administración", Type: domain.Income, AcceptsPosting: true, RequiresThirdParty: true},
	{Code: "4175", Name: "Otros ingresos operacionales", Type: domain.Income},
	{Code: "417505", Name: "Zonas comunes y parqueaderos", Type: domain.Income, AcceptsPosting: true},

	{Code: "5", Name: "Gastos", Type: domain.Expense},
	{Code: "51", Name: "Operacionales de administración", Type: domain.Expense},
	{Code: "5135", Name: "Servicios", Type: domain.Expense},
	{Code: "513525", Name: "Acueducto y energía", Type: domain.Expense, AcceptsPosting: true},
	{Code: "53", Name: "Otros gastos", Type: domain.Expense},
	{Code: "5305", Name: "Apropiaciones", Type: domain.Expense},
	{Code: "530505", Name: "Apropiación fondo de reserva", Type: domain.Expense, AcceptsPosting: true},
}
