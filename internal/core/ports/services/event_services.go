package services

import (
	"context"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
)

// EventPublisher forwards domain events to registered listeners. Posting is
// the sole trigger point for downstream notification; workflows that react
// to posted transactions register as listeners instead of being called
// inline by the ledger.
type EventPublisher interface {
	PublishTransactionPosted(ctx context.Context, event domain.TransactionPosted)
	PublishReserveAppropriationCreated(ctx context.Context, event domain.ReserveAppropriationCreated)
}
