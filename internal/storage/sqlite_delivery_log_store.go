package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteDeliveryLogStore implements DeliveryLogStore backed by SQLite.
type SQLiteDeliveryLogStore struct {
	db *sql.DB
}

// NewSQLiteDeliveryLogStore returns a new SQLiteDeliveryLogStore.
func NewSQLiteDeliveryLogStore(db *sql.DB) *SQLiteDeliveryLogStore {
	return &SQLiteDeliveryLogStore{db: db}
}

// LogDelivery inserts a presentation record into the database.
func (s *SQLiteDeliveryLogStore) LogDelivery(ctx context.Context, entry DeliveryLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_log (notification_id, provider, subject, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.NotificationID, entry.Provider, entry.Subject,
		entry.Status, entry.ErrorMsg, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting delivery log: %w", err)
	}
	return nil
}

// ListDeliveries returns the most recent log entries ordered by created_at descending.
func (s *SQLiteDeliveryLogStore) ListDeliveries(ctx context.Context, limit int) (entries []DeliveryLogEntry, err error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, notification_id, provider, subject, status, error_msg, created_at
		FROM delivery_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying delivery log: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	entries = make([]DeliveryLogEntry, 0)
	for rows.Next() {
		var e DeliveryLogEntry
		if err := rows.Scan(&e.ID, &e.NotificationID, &e.Provider, &e.Subject,
			&e.Status, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery log rows: %w", err)
	}
	return entries, nil
}
