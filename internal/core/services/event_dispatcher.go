package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
)

// TransactionPostedListener reacts to a posted ledger transaction.
type TransactionPostedListener func(ctx context.Context, event domain.TransactionPosted)

// ReserveAppropriationListener reacts to a created reserve appropriation.
type ReserveAppropriationListener func(ctx context.Context, event domain.ReserveAppropriationCreated)

// EventDispatcher is an in-process publisher with explicitly registered
// listeners. The ledger and reserve engine publish here instead of calling
// notification/reporting workflows inline.
type EventDispatcher struct {
	mu               sync.RWMutex
	postedListeners  []TransactionPostedListener
	reserveListeners []ReserveAppropriationListener
	logger           *slog.Logger
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher(logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{logger: logger}
}

var _ portssvc.EventPublisher = (*EventDispatcher)(nil)

// OnTransactionPosted registers a listener for posted transactions.
func (d *EventDispatcher) OnTransactionPosted(l TransactionPostedListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postedListeners = append(d.postedListeners, l)
}

// OnReserveAppropriationCreated registers a listener for appropriations.
func (d *EventDispatcher) OnReserveAppropriationCreated(l ReserveAppropriationListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reserveListeners = append(d.reserveListeners, l)
}

// PublishTransactionPosted fans the event out to registered listeners.
func (d *EventDispatcher) PublishTransactionPosted(ctx context.Context, event domain.TransactionPosted) {
	d.mu.RLock()
	listeners := make([]TransactionPostedListener, len(d.postedListeners))
	copy(listeners, d.postedListeners)
	d.mu.RUnlock()

	d.logger.Debug("Dispatching transaction posted event",
		slog.String("transaction_id", event.TransactionID),
		slog.String("conjunto_id", event.ConjuntoID),
		slog.Int("listener_count", len(listeners)))
	for _, l := range listeners {
		l(ctx, event)
	}
}

// PublishReserveAppropriationCreated fans the event out to registered listeners.
func (d *EventDispatcher) PublishReserveAppropriationCreated(ctx context.Context, event domain.ReserveAppropriationCreated) {
	d.mu.RLock()
	listeners := make([]ReserveAppropriationListener, len(d.reserveListeners))
	copy(listeners, d.reserveListeners)
	d.mu.RUnlock()

	d.logger.Debug("Dispatching reserve appropriation event",
		slog.String("transaction_id", event.TransactionID),
		slog.String("conjunto_id", event.ConjuntoID),
		slog.Int("listener_count", len(listeners)))
	for _, l := range listeners {
		l(ctx, event)
	}
}
