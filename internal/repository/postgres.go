// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrOrderNotFound возвращается, если заказа нет в локальной копии.
	ErrOrderNotFound = errors.New("order not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(retryDelays) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelays[i]):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping проверяет соединение с БД.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const upsertOrderSQL = `
INSERT INTO orders (id, order_number, customer_name, customer_phone, delivery_postal_code, total,
                    payment_method, status, special_instructions, items, created_at, updated_at, synced_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (id) DO UPDATE SET
    order_number         = EXCLUDED.order_number,
    customer_name        = EXCLUDED.customer_name,
    customer_phone       = EXCLUDED.customer_phone,
    delivery_postal_code = EXCLUDED.delivery_postal_code,
    total                = EXCLUDED.total,
    payment_method       = EXCLUDED.payment_method,
    status               = EXCLUDED.status,
    special_instructions = EXCLUDED.special_instructions,
    items                = EXCLUDED.items,
    updated_at           = EXCLUDED.updated_at,
    synced_at            = now()
WHERE orders.updated_at <= EXCLUDED.updated_at`

// UpsertOrders сохраняет полученные из API заказы. Более старая версия заказа не перезаписывает новую.
func (r *PostgresRepository) UpsertOrders(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		batch := &pgx.Batch{}
		for _, o := range orders {
			items, err := json.Marshal(itemsOrEmpty(o.Items))
			if err != nil {
				return fmt.Errorf("encode items of order %d: %w", o.ID, err)
			}
			updatedAt := o.UpdatedAt
			if updatedAt.IsZero() {
				updatedAt = o.CreatedAt
			}
			batch.Queue(upsertOrderSQL,
				o.ID, o.OrderNumber, o.CustomerName, o.CustomerPhone, o.DeliveryPostalCode,
				o.Total.String(), o.PaymentMethod, string(o.Status), o.SpecialInstructions,
				items, o.CreatedAt, updatedAt,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert orders: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func itemsOrEmpty(items []model.OrderItem) []model.OrderItem {
	if items == nil {
		return []model.OrderItem{}
	}
	return items
}

const selectOrderColumns = `id, order_number, customer_name, customer_phone, delivery_postal_code, total::text,
       payment_method, status, special_instructions, items, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		total  string
		status string
		items  []byte
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &o.DeliveryPostalCode, &total,
		&o.PaymentMethod, &status, &o.SpecialInstructions, &items, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = model.OrderStatus(status)
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total of order %d: %w", o.ID, err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %d: %w", o.ID, err)
	}

	return &o, nil
}

// GetOrdersByStatus возвращает заказы в указанных статусах, от старых к новым.
func (r *PostgresRepository) GetOrdersByStatus(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+selectOrderColumns+`
		 FROM orders
		 WHERE status = ANY($1)
		 ORDER BY created_at, id`,
		values,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectOrderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return o, nil
}

// UpdateOrderStatus записывает подтверждённый статус заказа.
// Нулевой updatedAt оставляет updated_at прежним: время версии задаёт только API заказов.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus, updatedAt time.Time) error {
	var version *time.Time
	if !updatedAt.IsZero() {
		version = &updatedAt
	}

	return r.withRetry(ctx, func() error {
		cmdTag, err := r.pool.Exec(ctx,
			`UPDATE orders SET status = $2, updated_at = GREATEST(updated_at, COALESCE($3::timestamptz, updated_at)) WHERE id = $1`,
			id, string(status), version,
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

// AddStatusChange сохраняет запись журнала смены статусов.
func (r *PostgresRepository) AddStatusChange(ctx context.Context, change model.StatusChange) error {
	createdAt := change.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_status_history (order_id, from_status, to_status, outcome, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		change.OrderID, string(change.From), string(change.To), string(change.Outcome), change.Error, createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%w: %d", ErrOrderNotFound, change.OrderID)
		}
		return fmt.Errorf("insert status change: %w", err)
	}

	return nil
}

// GetStatusHistory возвращает журнал смены статусов заказа в хронологическом порядке.
func (r *PostgresRepository) GetStatusHistory(ctx context.Context, orderID int64) ([]model.StatusChange, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, from_status, to_status, outcome, error, created_at
		 FROM order_status_history
		 WHERE order_id = $1
		 ORDER BY created_at, id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select status history: %w", err)
	}
	defer rows.Close()

	var res []model.StatusChange
	for rows.Next() {
		var (
			c             model.StatusChange
			from, to, out string
		)
		if err := rows.Scan(&c.OrderID, &from, &to, &out, &c.Error, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		c.From = model.OrderStatus(from)
		c.To = model.OrderStatus(to)
		c.Outcome = model.StatusChangeOutcome(out)
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
