package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	portssvc "github.com/copropia/conjunto_ledger_app/internal/core/ports/services"
	"github.com/copropia/conjunto_ledger_app/internal/dto"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReserveAppropriation is the task type for the monthly reserve fund
	// appropriation run.
	TaskReserveAppropriation = "reserve:appropriation"
)

// ReserveAppropriationPayload selects what the appropriation run covers.
// An empty ConjuntoID fans out over every active conjunto; a zero month or
// year defaults to the previous calendar month.
type ReserveAppropriationPayload struct {
	ConjuntoID string `json:"conjuntoID,omitempty"`
	Month      int    `json:"month,omitempty"`
	Year       int    `json:"year,omitempty"`
	Force      bool   `json:"force,omitempty"`
	DryRun     bool   `json:"dryRun,omitempty"`
}

// NewReserveAppropriationTask constructs an Asynq task.
func NewReserveAppropriationTask(payload ReserveAppropriationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReserveAppropriation, data), nil
}

// ReserveAppropriationJob runs the monthly reserve fund appropriation for
// one or all active conjuntos.
type ReserveAppropriationJob struct {
	Conjuntos portssvc.ConjuntoSvcFacade
	Reserve   portssvc.ReserveFundSvcFacade
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewReserveAppropriationJob wires dependencies for the appropriation handler.
func NewReserveAppropriationJob(conjuntos portssvc.ConjuntoSvcFacade, reserve portssvc.ReserveFundSvcFacade, logger *slog.Logger) *ReserveAppropriationJob {
	return &ReserveAppropriationJob{
		Conjuntos: conjuntos,
		Reserve:   reserve,
		Logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes reserve appropriation tasks. Per-conjunto failures are
// collected so one failing scope does not block the rest; any failure fails
// the task so asynq retries it. The once-per-period short-circuit makes the
// retry safe for scopes that already succeeded.
func (j *ReserveAppropriationJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reserve appropriation: handler not configured")
	}
	var payload ReserveAppropriationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	month, year := payload.Month, payload.Year
	if month == 0 || year == 0 {
		now := j.clock()
		lastOfPrev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		month, year = int(lastOfPrev.Month()), lastOfPrev.Year()
	}

	logger := j.logger().With(slog.Int("month", month), slog.Int("year", year))

	conjuntoIDs, err := j.targetConjuntos(ctx, payload.ConjuntoID)
	if err != nil {
		logger.Error("Failed to resolve appropriation targets", slog.String("error", err.Error()))
		return err
	}
	if len(conjuntoIDs) == 0 {
		logger.Info("No active conjuntos, nothing to appropriate")
		return nil
	}

	opts := portssvc.AppropriationOptions{Force: payload.Force, DryRun: payload.DryRun}

	var failed []string
	for _, conjuntoID := range conjuntoIDs {
		result, err := j.Reserve.ExecuteMonthlyAppropriation(ctx, conjuntoID, month, year, opts)
		if err != nil {
			failed = append(failed, conjuntoID)
			logger.Error("Appropriation run failed",
				slog.String("conjunto_id", conjuntoID),
				slog.String("error", err.Error()))
			continue
		}
		switch result.Outcome {
		case dto.AppropriationCreated:
			logger.Info("Appropriation created",
				slog.String("conjunto_id", conjuntoID),
				slog.String("amount", result.AppropriatedAmount.String()))
		default:
			logger.Info("Appropriation run was a no-op",
				slog.String("conjunto_id", conjuntoID),
				slog.String("outcome", result.Outcome))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("appropriation failed for %d of %d conjuntos: %v", len(failed), len(conjuntoIDs), failed)
	}
	logger.Info("Appropriation run finished", slog.Int("conjuntos", len(conjuntoIDs)))
	return nil
}

func (j *ReserveAppropriationJob) targetConjuntos(ctx context.Context, conjuntoID string) ([]string, error) {
	if conjuntoID != "" {
		return []string{conjuntoID}, nil
	}
	conjuntos, err := j.Conjuntos.ListActiveConjuntos(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(conjuntos))
	for i := range conjuntos {
		ids[i] = conjuntos[i].ConjuntoID
	}
	return ids, nil
}

func (j *ReserveAppropriationJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
