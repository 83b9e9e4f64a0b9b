package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const notificationColumns = "id, type, kiosk_id, customer_id, message, read, priority, created_at"

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.Type, &n.KioskID, &n.CustomerID, &n.Message, &n.Read, &n.Priority, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification inserts an in-app notification.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO notifications ("+notificationColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		n.ID, n.Type, n.KioskID, n.CustomerID, n.Message, n.Read, n.Priority, n.CreatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// GetNotification loads one notification.
func (r *PostgresRepository) GetNotification(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	n, err := scanNotification(r.db.QueryRow(ctx, "SELECT "+notificationColumns+" FROM notifications WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, ErrNotificationNotFound)
	}
	return n, nil
}

// ListNotifications returns notifications newest first.
func (r *PostgresRepository) ListNotifications(ctx context.Context, filter Filter) ([]domain.Notification, error) {
	w := &where{}
	if filter.CustomerID != nil {
		w.add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.KioskID != nil {
		w.add("kiosk_id = $%d", *filter.KioskID)
	}
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.UnreadOnly {
		w.addRaw("read = false")
	}
	query := "SELECT " + notificationColumns + " FROM notifications" + w.String() + " ORDER BY created_at DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, storeError(err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one notification as read.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "UPDATE notifications SET read = true WHERE id = $1", id)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification, or only those
// of one customer, as read.
func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, customerID *uuid.UUID) (int64, error) {
	w := &where{}
	w.addRaw("read = false")
	if customerID != nil {
		w.add("customer_id = $%d", *customerID)
	}
	tag, err := r.db.Exec(ctx, "UPDATE notifications SET read = true"+w.String(), w.args...)
	if err != nil {
		return 0, storeError(err)
	}
	return tag.RowsAffected(), nil
}
