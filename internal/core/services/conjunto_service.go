package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
	"github.com/copropia/conjunto_ledger_app/internal/middleware"
)

// conjuntoService manages the registry of conjuntos.
type conjuntoService struct {
	conjuntoRepo portsrepo.ConjuntoRepository
	accountSvc   portssvc.AccountSvcFacade
	now          func() time.Time
}

// NewConjuntoService creates a new conjunto service. The account service is
// used to seed the default chart of accounts on registration.
func NewConjuntoService(conjuntoRepo portsrepo.ConjuntoRepository, accountSvc portssvc.AccountSvcFacade) portssvc.ConjuntoSvcFacade {
	return &conjuntoService{
		conjuntoRepo: conjuntoRepo,
		accountSvc:   accountSvc,
		now:          time.Now,
	}
}

var _ portssvc.ConjuntoSvcFacade = (*conjuntoService)(nil)

// CreateConjunto registers a conjunto and seeds its default chart of
// accounts so it is immediately usable for posting.
func (s *conjuntoService) CreateConjunto(ctx context.Context, req dto.CreateConjuntoRequest, actorID string) (*domain.Conjunto, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	conjunto := domain.Conjunto{
		ConjuntoID:  uuid.NewString(),
		Name:        req.Name,
		City:        req.City,
		IsActive:    true,
		AuditFields: domain.NewAuditFields(actorID, s.now()),
	}

	if err := s.conjuntoRepo.SaveConjunto(ctx, conjunto); err != nil {
		return nil, fmt.Errorf("failed to save conjunto: %w", err)
	}

	seeded, err := s.accountSvc.SeedDefaultChart(ctx, conjunto.ConjuntoID, actorID)
	if err != nil {
		// The conjunto itself is persisted; the chart can be re-seeded later.
		logger.Error("Failed to seed default chart for new conjunto",
			slog.String("conjunto_id", conjunto.ConjuntoID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to seed default chart for conjunto %s: %w", conjunto.ConjuntoID, err)
	}

	logger.Info("Conjunto created",
		slog.String("conjunto_id", conjunto.ConjuntoID),
		slog.Int("seeded_accounts", len(seeded)))
	return &conjunto, nil
}

func (s *conjuntoService) GetConjunto(ctx context.Context, conjuntoID string) (*domain.Conjunto, error) {
	conjunto, err := s.conjuntoRepo.FindConjuntoByID(ctx, conjuntoID)
	if err != nil {
		return nil, fmt.Errorf("conjunto %s: %w", conjuntoID, err)
	}
	return conjunto, nil
}

func (s *conjuntoService) ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error) {
	conjuntos, err := s.conjuntoRepo.ListActiveConjuntos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conjuntos: %w", err)
	}
	return conjuntos, nil
}
