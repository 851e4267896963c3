package repositories

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
)

// ConjuntoRepository defines persistence operations for conjuntos (scopes).
type ConjuntoRepository interface {
	// SaveConjunto persists a new conjunto.
	SaveConjunto(ctx context.Context, conjunto domain.Conjunto) error

	// FindConjuntoByID retrieves a conjunto by its identifier.
	FindConjuntoByID(ctx context.Context, conjuntoID string) (*domain.Conjunto, error)

	// ListActiveConjuntos returns every active conjunto. Used by the monthly
	// scheduler to fan out appropriation runs.
	ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error)
}
