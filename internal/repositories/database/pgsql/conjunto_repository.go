package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copropia/conjunto_ledger_app/internal/apperrors"
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
)

type PgxConjuntoRepository struct {
	pool *pgxpool.Pool
}

// newPgxConjuntoRepository creates a new repository for conjunto data.
func newPgxConjuntoRepository(pool *pgxpool.Pool) portsrepo.ConjuntoRepository {
	return &PgxConjuntoRepository{pool: pool}
}

var _ portsrepo.ConjuntoRepository = (*PgxConjuntoRepository)(nil)

// SaveConjunto inserts a new conjunto.
func (r *PgxConjuntoRepository) SaveConjunto(ctx context.Context, conjunto domain.Conjunto) error {
	query := `
		INSERT INTO conjuntos (conjunto_id, name, city, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.pool.Exec(ctx, query,
		conjunto.ConjuntoID,
		conjunto.Name,
		conjunto.City,
		conjunto.IsActive,
		conjunto.CreatedAt,
		conjunto.CreatedBy,
		conjunto.LastUpdatedAt,
		conjunto.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: conjunto %s already exists", apperrors.ErrDuplicate, conjunto.ConjuntoID)
		}
		return fmt.Errorf("failed to save conjunto %s: %w", conjunto.ConjuntoID, err)
	}
	return nil
}

// FindConjuntoByID retrieves a conjunto by its ID.
func (r *PgxConjuntoRepository) FindConjuntoByID(ctx context.Context, conjuntoID string) (*domain.Conjunto, error) {
	query := `
		SELECT conjunto_id, name, city, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM conjuntos
		WHERE conjunto_id = $1;
	`
	var c domain.Conjunto
	err := r.pool.QueryRow(ctx, query, conjuntoID).Scan(
		&c.ConjuntoID,
		&c.Name,
		&c.City,
		&c.IsActive,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find conjunto %s: %w", conjuntoID, err)
	}
	return &c, nil
}

// ListActiveConjuntos returns every active conjunto ordered by name.
func (r *PgxConjuntoRepository) ListActiveConjuntos(ctx context.Context) ([]domain.Conjunto, error) {
	query := `
		SELECT conjunto_id, name, city, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM conjuntos
		WHERE is_active = TRUE
		ORDER BY name;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active conjuntos: %w", err)
	}
	defer rows.Close()

	conjuntos := []domain.Conjunto{}
	for rows.Next() {
		var c domain.Conjunto
		if err := rows.Scan(
			&c.ConjuntoID,
			&c.Name,
			&c.City,
			&c.IsActive,
			&c.CreatedAt,
			&c.CreatedBy,
			&c.LastUpdatedAt,
			&c.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conjunto row: %w", err)
		}
		conjuntos = append(conjuntos, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conjunto rows: %w", err)
	}
	return conjuntos, nil
}
