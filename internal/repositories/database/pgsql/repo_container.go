package pgsql

import (
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ConjuntoRepo: newPgxConjuntoRepository(dbPool),
		AccountRepo:  newPgxAccountRepository(dbPool),
		LedgerRepo:   newPgxLedgerRepository(dbPool),
	}
}
