package repositories

// RepositoryProvider aggregates all repository implementations so they can be
// injected into the service container in one struct.
type RepositoryProvider struct {
	ConjuntoRepo ConjuntoRepository
	AccountRepo  AccountRepositoryFacade
	LedgerRepo   LedgerRepositoryWithTx
}
