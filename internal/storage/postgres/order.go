package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shiptrack/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, status, email, total_cost, data, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	upsertOrderSQL = insertOrderSQL + `
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		email = EXCLUDED.email,
		total_cost = EXCLUDED.total_cost,
		data = EXCLUDED.data,
		updated_at = EXCLUDED.updated_at`

	selectOrderSQL          = `SELECT data FROM orders WHERE id = $1`
	selectOrderForUpdateSQL = selectOrderSQL + ` FOR UPDATE`

	updateOrderSQL = `UPDATE orders
	SET status = $2, email = $3, total_cost = $4, data = $5, updated_at = $6
	WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1 RETURNING data`

	listOrdersSQL        = `SELECT data FROM orders`
	listOrdersStatusSQL  = listOrdersSQL + ` WHERE status = $1`
	listOrdersByEmailSQL = listOrdersSQL + ` WHERE lower(email) = lower($1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The full
// record lives in a JSONB column; status, email and total are mirrored into
// columns for filtering.
type OrderRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.write(ctx, insertOrderSQL, o); err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// Save upserts o. Used for push-replica ingestion.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	if err := r.write(ctx, upsertOrderSQL, o); err != nil {
		return errors.Wrapf(err, "save order %q", o.ID)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrderSQL, id))
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

// Update locks the row, merges the patch in Go and writes the result back in
// one transaction.
func (r *OrderRepository) Update(ctx context.Context, id string, p order.Patch) (*order.Order, error) {
	var updated *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, selectOrderForUpdateSQL, id))
		if err != nil {
			return err
		}
		p.Apply(o, r.now())

		data, err := json.Marshal(o)
		if err != nil {
			return errors.Wrap(err, "marshal order")
		}
		if _, err := tx.Exec(ctx, updateOrderSQL,
			o.ID, string(o.Status), o.Email, o.TotalCost.Decimal, data, o.UpdatedAt,
		); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "update order %q", id)
	}
	return updated, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, deleteOrderSQL, id))
	if err != nil {
		return nil, errors.Wrapf(err, "delete order %q", id)
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.query(ctx, listOrdersSQL)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, s order.Status) ([]order.Order, error) {
	return r.query(ctx, listOrdersStatusSQL, string(s))
}

func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	return r.query(ctx, listOrdersByEmailSQL, email)
}

func (r *OrderRepository) write(ctx context.Context, sql string, o *order.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}
	_, err = r.pool.Exec(ctx, sql,
		o.ID, string(o.Status), o.Email, o.TotalCost.Decimal, data, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return order.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "collect orders")
	}
	return orders, nil
}

// scanOrder decodes the JSONB payload of a single row, translating a missing
// row into order.ErrNotFound.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	var o order.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, errors.Wrap(err, "unmarshal order")
	}
	return &o, nil
}
