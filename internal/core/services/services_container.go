package services

import (
	portsrepo "github.com/copropia/conjunto_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
)

// NewServiceContainer wires all services against the repository provider and
// a shared event dispatcher.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, reserveCfg ReserveFundConfig, events *EventDispatcher) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.AccountRepo, repos.ConjuntoRepo)
	return &portssvc.ServiceContainer{
		Conjunto:    NewConjuntoService(repos.ConjuntoRepo, accountSvc),
		Account:     accountSvc,
		Ledger:      NewLedgerService(repos.LedgerRepo, repos.AccountRepo, repos.ConjuntoRepo, events),
		Validation:  NewValidationService(repos.LedgerRepo, repos.AccountRepo),
		ReserveFund: NewReserveFundService(repos.LedgerRepo, repos.AccountRepo, repos.ConjuntoRepo, events, reserveCfg),
		Events:      events,
	}
}
