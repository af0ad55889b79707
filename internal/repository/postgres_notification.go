package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

var _ NotificationRepository = (*PostgresNotificationRepo)(nil)

// PostgresNotificationRepo implements NotificationRepository on pgx.
type PostgresNotificationRepo struct {
	db *pgxpool.Pool
}

func NewPostgresNotificationRepo(pool *pgxpool.Pool) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: pool}
}

const notificationColumns = `id, user_id, title, message, status, created_at, updated_at`

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *PostgresNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, title, message, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+notificationColumns,
		n.ID, n.UserID, n.Title, n.Message, domain.NotificationUnread,
	)
	created, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return created, nil
}

func (r *PostgresNotificationRepo) List(ctx context.Context) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, id int64) (domain.Notification, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE notifications SET status = $2, updated_at = now() WHERE id = $1
		 RETURNING `+notificationColumns,
		id, domain.NotificationRead,
	)
	updated, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
		}
		return domain.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return updated, nil
}

func (r *PostgresNotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM notifications WHERE status = $1 AND created_at < $2`,
		domain.NotificationRead, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
