package worker

import (
	"context"
	"testing"
	"time"

	"github.com/dmarkin/tillpos/internal/gateway"
	"github.com/dmarkin/tillpos/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAttemptRepo struct {
	stale    []models.CardAttempt
	statuses map[uuid.UUID]string
}

func (f *fakeAttemptRepo) GetStaleCardAttempts(_ context.Context, _ time.Time) ([]models.CardAttempt, error) {
	return f.stale, nil
}

func (f *fakeAttemptRepo) UpdateCardAttemptStatus(_ context.Context, idempotencyKey uuid.UUID, status string) error {
	if f.statuses == nil {
		f.statuses = map[uuid.UUID]string{}
	}
	f.statuses[idempotencyKey] = status
	return nil
}

type fakeStatusGateway struct {
	results map[uuid.UUID]*gateway.ChargeResult
	errs    map[uuid.UUID]error
}

func (f *fakeStatusGateway) Status(_ context.Context, idempotencyKey uuid.UUID) (*gateway.ChargeResult, error) {
	if err, ok := f.errs[idempotencyKey]; ok {
		return nil, err
	}
	if result, ok := f.results[idempotencyKey]; ok {
		return result, nil
	}
	return nil, models.ErrDataNotFound
}

func TestChargeReconciler_Reconcile(t *testing.T) {
	captured := uuid.New()
	declined := uuid.New()
	neverSeen := uuid.New()
	unreachable := uuid.New()

	repo := &fakeAttemptRepo{
		stale: []models.CardAttempt{
			{IdempotencyKey: captured, OrderID: uuid.New()},
			{IdempotencyKey: declined, OrderID: uuid.New()},
			{IdempotencyKey: neverSeen, OrderID: uuid.New()},
			{IdempotencyKey: unreachable, OrderID: uuid.New()},
		},
	}
	gw := &fakeStatusGateway{
		results: map[uuid.UUID]*gateway.ChargeResult{
			captured: {Success: true, TransactionID: "txn_1"},
			declined: {Success: false, ErrorMessage: "card declined"},
		},
		errs: map[uuid.UUID]error{
			unreachable: &models.GatewayError{Message: "timeout"},
		},
	}

	cr := NewChargeReconciler(repo, gw, zap.NewNop())
	require.NoError(t, cr.reconcile(context.Background()))

	assert.Equal(t, models.CardAttemptSucceeded, repo.statuses[captured])
	assert.Equal(t, models.CardAttemptFailed, repo.statuses[declined])
	// the gateway never saw the key, the charge cannot have captured
	assert.Equal(t, models.CardAttemptFailed, repo.statuses[neverSeen])
	// outcome still unknown, the attempt stays pending for the next pass
	_, updated := repo.statuses[unreachable]
	assert.False(t, updated)
}

func TestChargeReconciler_RunStopsOnCancel(t *testing.T) {
	cr := NewChargeReconciler(&fakeAttemptRepo{}, &fakeStatusGateway{}, zap.NewNop())
	cr.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cr.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop on cancel")
	}
}
