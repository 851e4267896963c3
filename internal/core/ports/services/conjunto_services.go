package services

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
)

// ConjuntoSvcFacade manages the registry of conjuntos (tenant scopes).
type ConjuntoSvcFacade interface {
	// CreateConjunto registers a new conjunto and seeds its default chart of
	// accounts.
	CreateConjunto(ctx context.Context, req dto.CreateConjuntoRequest, actorID string) (*domain.Conjunto, error)

	// GetConjunto retrieves a conjunto by ID.
	GetConjunto(ctx context.Context, conjuntoID string) (*domain.Conjunto, error)

	// ListActiveConjuntos returns every active conjunto.
	ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error)
}
