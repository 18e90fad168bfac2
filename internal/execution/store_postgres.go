package execution

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pretor/internal/notification"
	id "pretor/pkg/domain"
)

// PostgresStore persists executions and snapshots.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveExecution(ctx context.Context, exec *Execution) error {
	const query = `
		INSERT INTO executions (id, created_at)
		VALUES ($1, NOW())
		RETURNING created_at`

	if err := s.db.QueryRowContext(ctx, query, exec.ID.String()).Scan(&exec.CreatedAt); err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	const query = `
		INSERT INTO notification_snapshots (id, execution_id, notification_id, status, error_code, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`

	var code any
	if snap.ErrorCode != "" {
		code = string(snap.ErrorCode)
	}
	err := s.db.QueryRowContext(ctx, query,
		snap.ID.String(), snap.ExecutionID.String(), snap.NotificationID.String(),
		string(snap.Status), code,
	).Scan(&snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, execID id.ExecutionID) ([]Snapshot, error) {
	const query = `
		SELECT id, execution_id, notification_id, status, error_code, created_at
		FROM notification_snapshots
		WHERE execution_id = $1
		ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, execID.String())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap                     Snapshot
			rawID, rawExec, rawNotif string
			status                   string
			code                     sql.NullString
		)
		if err := rows.Scan(&rawID, &rawExec, &rawNotif, &status, &code, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if snap.ID, err = id.ParseSnapshotID(rawID); err != nil {
			return nil, fmt.Errorf("parse snapshot id: %w", err)
		}
		if snap.ExecutionID, err = id.ParseExecutionID(rawExec); err != nil {
			return nil, fmt.Errorf("parse execution id: %w", err)
		}
		if snap.NotificationID, err = id.ParseNotificationID(rawNotif); err != nil {
			return nil, fmt.Errorf("parse notification id: %w", err)
		}
		snap.Status = notification.Status(status)
		if code.Valid {
			snap.ErrorCode = notification.ErrorCode(code.String)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListExecutionsSince(ctx context.Context, after time.Time) ([]Execution, error) {
	const query = `
		SELECT id, created_at
		FROM executions
		WHERE created_at > $1
		ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var (
			exec  Execution
			rawID string
		)
		if err := rows.Scan(&rawID, &exec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		if exec.ID, err = id.ParseExecutionID(rawID); err != nil {
			return nil, fmt.Errorf("parse execution id: %w", err)
		}
		out = append(out, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return out, nil
}

var _ Store = (*PostgresStore)(nil)
