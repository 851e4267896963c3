package services

// ServiceContainer aggregates all service facades for injection into
// handlers and jobs.
type ServiceContainer struct {
	Conjunto    ConjuntoSvcFacade
	Account     AccountSvcFacade
	Ledger      LedgerSvcFacade
	Validation  ValidationSvcFacade
	ReserveFund ReserveFundSvcFacade
	Events      EventPublisher
}
