package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, isRetryable(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")))
	assert.False(t, isRetryable(errors.New("syntax error")))
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	r := &PostgresRepository{}
	calls := 0
	permanent := errors.New("permanent")

	err := r.withRetry(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsWhenContextDone(t *testing.T) {
	r := &PostgresRepository{}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	start := time.Now()
	err := r.withRetry(ctx, func() error {
		calls++
		cancel()
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), retryDelays[0])
}

func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	r, err := NewPostgresRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = r.pool.Exec(context.Background(), `TRUNCATE orders CASCADE`)
		_ = r.Close()
	})
	_, err = r.pool.Exec(context.Background(), `TRUNCATE orders CASCADE`)
	require.NoError(t, err)
	return r
}

func TestPostgresRepository_OrdersLifecycle(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)

	orders := []model.Order{
		{
			ID: 1, OrderNumber: "ORD-001", CustomerName: "Anna", Total: decimal.RequireFromString("64.50"),
			Status: model.OrderStatusPending, CreatedAt: created, UpdatedAt: created,
			Items: []model.OrderItem{{ID: 1, Name: "Pierogi", Price: decimal.RequireFromString("32.25"), Quantity: 2}},
		},
		{
			ID: 2, OrderNumber: "ORD-002", Total: decimal.NewFromInt(40),
			Status: model.OrderStatusCompleted, CreatedAt: created.Add(time.Minute), UpdatedAt: created.Add(time.Minute),
		},
	}
	require.NoError(t, r.UpsertOrders(ctx, orders))

	active, err := r.GetOrdersByStatus(ctx, []model.OrderStatus{model.OrderStatusPending, model.OrderStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ORD-001", active[0].OrderNumber)
	assert.True(t, active[0].Total.Equal(decimal.RequireFromString("64.5")))
	require.Len(t, active[0].Items, 1)
	assert.Equal(t, "Pierogi", active[0].Items[0].Name)

	require.NoError(t, r.UpdateOrderStatus(ctx, 1, model.OrderStatusConfirmed, created.Add(2*time.Minute)))

	stale := orders[0]
	stale.Status = model.OrderStatusPending
	require.NoError(t, r.UpsertOrders(ctx, []model.Order{stale}))

	got, err := r.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)

	_, err = r.GetOrder(ctx, 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, r.UpdateOrderStatus(ctx, 404, model.OrderStatusReady, created), ErrOrderNotFound)
}

func TestPostgresRepository_UpstreamChangeAfterLocalTransition(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)

	// API заказов не прислал updated_at.
	order := model.Order{ID: 3, OrderNumber: "ORD-003", Status: model.OrderStatusPreparing, CreatedAt: created}
	require.NoError(t, r.UpsertOrders(ctx, []model.Order{order}))

	require.NoError(t, r.UpdateOrderStatus(ctx, 3, model.OrderStatusReady, time.Time{}))

	got, err := r.GetOrder(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReady, got.Status)
	assert.True(t, got.UpdatedAt.Equal(created))

	order.Status = model.OrderStatusCancelled
	require.NoError(t, r.UpsertOrders(ctx, []model.Order{order}))

	got, err = r.GetOrder(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
}

func TestPostgresRepository_StatusHistory(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.UpsertOrders(ctx, []model.Order{{
		ID: 7, OrderNumber: "ORD-007", Status: model.OrderStatusPreparing, CreatedAt: created, UpdatedAt: created,
	}}))

	require.NoError(t, r.AddStatusChange(ctx, model.StatusChange{
		OrderID: 7, From: model.OrderStatusPreparing, To: model.OrderStatusReady,
		Outcome: model.StatusChangeFailed, Error: "orders api: status 502", CreatedAt: created.Add(time.Minute),
	}))
	require.NoError(t, r.AddStatusChange(ctx, model.StatusChange{
		OrderID: 7, From: model.OrderStatusPreparing, To: model.OrderStatusReady,
		Outcome: model.StatusChangeApplied, CreatedAt: created.Add(2 * time.Minute),
	}))

	history, err := r.GetStatusHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusChangeFailed, history[0].Outcome)
	assert.Equal(t, model.StatusChangeApplied, history[1].Outcome)

	err = r.AddStatusChange(ctx, model.StatusChange{OrderID: 999, From: model.OrderStatusPending, To: model.OrderStatusConfirmed, Outcome: model.StatusChangeApplied})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
