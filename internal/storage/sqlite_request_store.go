package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// SQLiteRequestStore implements RequestStore backed by a SQLite database.
type SQLiteRequestStore struct {
	db *sql.DB
}

// NewSQLiteRequestStore returns a new SQLiteRequestStore.
func NewSQLiteRequestStore(db *sql.DB) *SQLiteRequestStore {
	return &SQLiteRequestStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeRequest(req notification.Request) (content, trigger string, err error) {
	c, err := json.Marshal(req.Content)
	if err != nil {
		return "", "", fmt.Errorf("marshaling content of %q: %w", req.ID, err)
	}
	t, err := json.Marshal(notification.EncodeTrigger(req.Trigger))
	if err != nil {
		return "", "", fmt.Errorf("marshaling trigger of %q: %w", req.ID, err)
	}
	return string(c), string(t), nil
}

func decodeRequest(req *notification.Request, content, trigger string) error {
	if err := json.Unmarshal([]byte(content), &req.Content); err != nil {
		return fmt.Errorf("unmarshaling content of %q: %w", req.ID, err)
	}
	var spec notification.TriggerSpec
	if err := json.Unmarshal([]byte(trigger), &spec); err != nil {
		return fmt.Errorf("unmarshaling trigger of %q: %w", req.ID, err)
	}
	t, err := notification.DecodeTrigger(spec)
	if err != nil {
		return fmt.Errorf("decoding trigger of %q: %w", req.ID, err)
	}
	req.Trigger = t
	return nil
}

func scanPending(row rowScanner) (notification.Request, error) {
	var (
		req              notification.Request
		content, trigger string
	)
	if err := row.Scan(&req.ID, &content, &trigger, &req.SubmittedAt); err != nil {
		return req, err
	}
	return req, decodeRequest(&req, content, trigger)
}

func scanDelivered(row rowScanner) (notification.Delivered, error) {
	var (
		d                notification.Delivered
		content, trigger string
	)
	if err := row.Scan(&d.Request.ID, &content, &trigger, &d.Request.SubmittedAt, &d.DeliveredAt); err != nil {
		return d, err
	}
	return d, decodeRequest(&d.Request, content, trigger)
}

// placeholders returns "?, ?, ..." for n parameters along with ids as args.
func placeholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// SavePending upserts a pending request.
func (s *SQLiteRequestStore) SavePending(ctx context.Context, req notification.Request) error {
	content, trigger, err := encodeRequest(req)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_requests (id, thread_id, content, trigger_spec, submitted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thread_id = excluded.thread_id,
			content = excluded.content,
			trigger_spec = excluded.trigger_spec,
			submitted_at = excluded.submitted_at`,
		req.ID, req.Content.ThreadID, content, trigger, req.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving pending request %q: %w", req.ID, err)
	}
	return nil
}

// GetPending returns a pending request by id, or nil if not found.
func (s *SQLiteRequestStore) GetPending(ctx context.Context, id string) (*notification.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, trigger_spec, submitted_at
		FROM pending_requests WHERE id = ?`, id)
	req, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pending request %q: %w", id, err)
	}
	return &req, nil
}

// ListPending returns every pending request in submission order.
func (s *SQLiteRequestStore) ListPending(ctx context.Context) ([]notification.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, trigger_spec, submitted_at
		FROM pending_requests
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]notification.Request, 0)
	for rows.Next() {
		req, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// DeletePending removes the given pending requests.
func (s *SQLiteRequestStore) DeletePending(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph, args := placeholders(ids)
	//nolint:gosec // only placeholders are interpolated
	res, err := s.db.ExecContext(ctx, "DELETE FROM pending_requests WHERE id IN ("+ph+")", args...)
	if err != nil {
		return 0, fmt.Errorf("deleting pending requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted pending requests: %w", err)
	}
	return int(n), nil
}

// DeleteAllPending removes every pending request.
func (s *SQLiteRequestStore) DeleteAllPending(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pending_requests"); err != nil {
		return fmt.Errorf("deleting all pending requests: %w", err)
	}
	return nil
}

// MarkDelivered moves a request into the delivered history in one transaction.
func (s *SQLiteRequestStore) MarkDelivered(ctx context.Context, d notification.Delivered, keepPending bool) error {
	content, trigger, err := encodeRequest(d.Request)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark delivered %q: %w", d.Request.ID, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO delivered_notifications (id, thread_id, content, trigger_spec, submitted_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thread_id = excluded.thread_id,
			content = excluded.content,
			trigger_spec = excluded.trigger_spec,
			submitted_at = excluded.submitted_at,
			delivered_at = excluded.delivered_at`,
		d.Request.ID, d.Request.Content.ThreadID, content, trigger,
		d.Request.SubmittedAt.UTC(), d.DeliveredAt.UTC(),
	); err != nil {
		return fmt.Errorf("recording delivery of %q: %w", d.Request.ID, err)
	}

	if !keepPending {
		if _, err := tx.ExecContext(ctx, "DELETE FROM pending_requests WHERE id = ?", d.Request.ID); err != nil {
			return fmt.Errorf("removing delivered request %q from pending: %w", d.Request.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark delivered %q: %w", d.Request.ID, err)
	}
	return nil
}

// ListDelivered returns the delivered history, most recent first.
func (s *SQLiteRequestStore) ListDelivered(ctx context.Context) ([]notification.Delivered, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, trigger_spec, submitted_at, delivered_at
		FROM delivered_notifications
		ORDER BY delivered_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing delivered notifications: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]notification.Delivered, 0)
	for rows.Next() {
		d, err := scanDelivered(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning delivered notification: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDelivered returns a delivered notification by id, or nil if not found.
func (s *SQLiteRequestStore) GetDelivered(ctx context.Context, id string) (*notification.Delivered, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, trigger_spec, submitted_at, delivered_at
		FROM delivered_notifications WHERE id = ?`, id)
	d, err := scanDelivered(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting delivered notification %q: %w", id, err)
	}
	return &d, nil
}

// DeleteDelivered removes the given delivered notifications.
func (s *SQLiteRequestStore) DeleteDelivered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ph, args := placeholders(ids)
	//nolint:gosec // only placeholders are interpolated
	if _, err := s.db.ExecContext(ctx, "DELETE FROM delivered_notifications WHERE id IN ("+ph+")", args...); err != nil {
		return fmt.Errorf("deleting delivered notifications: %w", err)
	}
	return nil
}

// DeleteAllDelivered clears the delivered history.
func (s *SQLiteRequestStore) DeleteAllDelivered(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM delivered_notifications"); err != nil {
		return fmt.Errorf("deleting all delivered notifications: %w", err)
	}
	return nil
}

// PruneDelivered keeps only the newest keep delivered notifications.
func (s *SQLiteRequestStore) PruneDelivered(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM delivered_notifications
		WHERE id NOT IN (
			SELECT id FROM delivered_notifications
			ORDER BY delivered_at DESC, id
			LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning delivered notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned delivered notifications: %w", err)
	}
	return int(n), nil
}

// GetState returns the center state row, or defaults if it was never saved.
func (s *SQLiteRequestStore) GetState(ctx context.Context) (CenterState, error) {
	var (
		st               CenterState
		auth, opts, cats string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT auth_status, options, badge, categories
		FROM center_state WHERE id = 1`).Scan(&auth, &opts, &st.Badge, &cats)
	if errors.Is(err, sql.ErrNoRows) {
		return CenterState{Authorization: AuthorizationNotDetermined}, nil
	}
	if err != nil {
		return CenterState{}, fmt.Errorf("getting center state: %w", err)
	}

	st.Authorization = AuthorizationStatus(auth)
	if err := json.Unmarshal([]byte(opts), &st.Options); err != nil {
		return CenterState{}, fmt.Errorf("unmarshaling authorization options: %w", err)
	}
	if err := json.Unmarshal([]byte(cats), &st.Categories); err != nil {
		return CenterState{}, fmt.Errorf("unmarshaling categories: %w", err)
	}
	return st, nil
}

// SaveState upserts the singleton center state row.
func (s *SQLiteRequestStore) SaveState(ctx context.Context, st CenterState) error {
	if st.Authorization == "" {
		st.Authorization = AuthorizationNotDetermined
	}
	opts, err := json.Marshal(st.Options)
	if err != nil {
		return fmt.Errorf("marshaling authorization options: %w", err)
	}
	cats := st.Categories
	if cats == nil {
		cats = []notification.CategoryDefinition{}
	}
	catsJSON, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("marshaling categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO center_state (id, auth_status, options, badge, categories)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			auth_status = excluded.auth_status,
			options = excluded.options,
			badge = excluded.badge,
			categories = excluded.categories`,
		string(st.Authorization), string(opts), st.Badge, string(catsJSON),
	)
	if err != nil {
		return fmt.Errorf("saving center state: %w", err)
	}
	return nil
}
