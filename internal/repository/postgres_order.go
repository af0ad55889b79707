package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

var _ OrderRepository = (*PostgresOrderRepo)(nil)

// PostgresOrderRepo implements OrderRepository on pgx.
type PostgresOrderRepo struct {
	db *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: pool}
}

const orderColumns = `id, course_id, user_id, payment_intent_id, payment_status, payment_amount, payment_currency, created_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.CourseID,
		&o.UserID,
		&o.Payment.IntentID,
		&o.Payment.Status,
		&o.Payment.Amount,
		&o.Payment.Currency,
		&o.CreatedAt,
	)
	return o, err
}

func (r *PostgresOrderRepo) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO orders (id, course_id, user_id, payment_intent_id, payment_status, payment_amount, payment_currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+orderColumns,
		order.ID,
		order.CourseID,
		order.UserID,
		order.Payment.IntentID,
		order.Payment.Status,
		order.Payment.Amount,
		order.Payment.Currency,
	)
	created, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

func (r *PostgresOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresOrderRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}
