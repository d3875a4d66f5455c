package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dmarkin/tillpos/internal/gateway"
	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CardAttemptRepository is interface for pending card charge attempts
type CardAttemptRepository interface {
	// GetStaleCardAttempts returns PENDING attempts created before the cutoff
	GetStaleCardAttempts(ctx context.Context, cutoff time.Time) ([]models.CardAttempt, error)
	// UpdateCardAttemptStatus records the reconciled outcome
	UpdateCardAttemptStatus(ctx context.Context, idempotencyKey uuid.UUID, status string) error
}

// CardGateway is interface for querying charge outcomes by idempotency key
type CardGateway interface {
	Status(ctx context.Context, idempotencyKey uuid.UUID) (*gateway.ChargeResult, error)
}

// ChargeReconciler resolves card attempts whose close request never learned
// the gateway outcome (timeout, crash). The gateway, queried by idempotency
// key, is the source of truth for whether the charge captured.
type ChargeReconciler struct {
	attempts   CardAttemptRepository
	gateway    CardGateway
	logger     *zap.Logger
	interval   time.Duration
	staleAfter time.Duration
}

// NewChargeReconciler creates new charge reconciler
func NewChargeReconciler(attempts CardAttemptRepository, gw CardGateway, logger *zap.Logger) *ChargeReconciler {
	return &ChargeReconciler{
		attempts:   attempts,
		gateway:    gw,
		logger:     logger,
		interval:   30 * time.Second,
		staleAfter: 2 * time.Minute,
	}
}

// Run reconciles stale attempts until the context is cancelled
func (cr *ChargeReconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(cr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cr.logger.Debug("charge reconciler is done")
			return
		case <-ticker.C:
			if err := cr.reconcile(ctx); err != nil {
				cr.logger.Error("reconciling card attempts", zap.Error(err))
			}
		}
	}
}

func (cr *ChargeReconciler) reconcile(ctx context.Context) error {
	attempts, err := cr.attempts.GetStaleCardAttempts(ctx, time.Now().Add(-cr.staleAfter))
	if err != nil {
		return err
	}

	for _, attempt := range attempts {
		result, err := cr.gateway.Status(ctx, attempt.IdempotencyKey)
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				// the gateway never saw the key, the charge cannot have captured
				if err := cr.attempts.UpdateCardAttemptStatus(ctx, attempt.IdempotencyKey, models.CardAttemptFailed); err != nil {
					cr.logger.Error("updating card attempt", zap.Error(err))
				}
				continue
			}
			cr.logger.Error("querying charge status",
				zap.String("idempotency_key", attempt.IdempotencyKey.String()),
				zap.Error(err))
			continue
		}

		status := models.CardAttemptFailed
		if result.Success {
			status = models.CardAttemptSucceeded
		}

		cr.logger.Info("reconciled card attempt",
			zap.String("idempotency_key", attempt.IdempotencyKey.String()),
			zap.String("order", attempt.OrderID.String()),
			zap.String("status", status))

		if err := cr.attempts.UpdateCardAttemptStatus(ctx, attempt.IdempotencyKey, status); err != nil {
			cr.logger.Error("updating card attempt", zap.Error(err))
		}
	}

	return nil
}
