package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// PostgresStore persists notifications in the notifications table. The unique
// index on (movimentation_id, kind) backs the Save conflict contract.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, notif *Notification) error {
	const query = `
		INSERT INTO notifications
			(id, movimentation_id, client_id, kind, message, status, error_code, schedule_ref, scheduled_at, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		notif.ID.String(), notif.MovimentationID.String(), notif.ClientID.String(),
		string(notif.Kind), notif.Message, string(notif.Status),
		nullString(string(notif.ErrorCode)), nullString(notif.ScheduleRef),
		notif.ScheduledAt, notif.SentAt,
	).Scan(&notif.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("notification %s for movimentation %s: %w",
			notif.Kind, notif.MovimentationID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, notif *Notification) error {
	const query = `
		UPDATE notifications
		SET status = $2, error_code = $3, schedule_ref = $4, scheduled_at = $5, sent_at = $6
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		notif.ID.String(), string(notif.Status),
		nullString(string(notif.ErrorCode)), nullString(notif.ScheduleRef),
		notif.ScheduledAt, notif.SentAt,
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return requireRow(res, fmt.Sprintf("notification %s", notif.ID))
}

func (s *PostgresStore) FindByID(ctx context.Context, notifID id.NotificationID) (*Notification, error) {
	const query = selectNotification + ` WHERE id = $1`

	notif, err := scanNotificationRow(s.db.QueryRowContext(ctx, query, notifID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", notifID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return notif, nil
}

func (s *PostgresStore) FindByMovimentationAndKind(ctx context.Context, movID id.MovimentationID, kind Kind) (*Notification, error) {
	const query = selectNotification + ` WHERE movimentation_id = $1 AND kind = $2`

	notif, err := scanNotificationRow(s.db.QueryRowContext(ctx, query, movID.String(), string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s for movimentation %s: %w", kind, movID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find notification by movimentation and kind: %w", err)
	}
	return notif, nil
}

func (s *PostgresStore) ListByMovimentation(ctx context.Context, movID id.MovimentationID) ([]*Notification, error) {
	const query = selectNotification + ` WHERE movimentation_id = $1 ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, movID.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		notif, err := scanNotificationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

const selectNotification = `
	SELECT id, movimentation_id, client_id, kind, message, status, error_code, schedule_ref, scheduled_at, sent_at, created_at
	FROM notifications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotificationRow(row rowScanner) (*Notification, error) {
	var (
		notif             Notification
		rawID, rawMov     string
		rawClient, kind   string
		status            string
		errCode, schedRef sql.NullString
		scheduledAt       sql.NullTime
		sentAt            sql.NullTime
	)
	err := row.Scan(&rawID, &rawMov, &rawClient, &kind, &notif.Message, &status,
		&errCode, &schedRef, &scheduledAt, &sentAt, &notif.CreatedAt)
	if err != nil {
		return nil, err
	}
	if notif.ID, err = id.ParseNotificationID(rawID); err != nil {
		return nil, fmt.Errorf("parse notification id: %w", err)
	}
	if notif.MovimentationID, err = id.ParseMovimentationID(rawMov); err != nil {
		return nil, fmt.Errorf("parse movimentation id: %w", err)
	}
	if notif.ClientID, err = id.ParseClientID(rawClient); err != nil {
		return nil, fmt.Errorf("parse client id: %w", err)
	}
	notif.Kind = Kind(kind)
	notif.Status = Status(status)
	if errCode.Valid {
		notif.ErrorCode = ErrorCode(errCode.String)
	}
	if schedRef.Valid {
		notif.ScheduleRef = schedRef.String
	}
	if scheduledAt.Valid {
		notif.ScheduledAt = &scheduledAt.Time
	}
	if sentAt.Valid {
		notif.SentAt = &sentAt.Time
	}
	return &notif, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func requireRow(res sql.Result, subject string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", subject, sentinel.ErrNotFound)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
