package movimentation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// PostgresStore persists movimentations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, mov *Movimentation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movimentations (id, registry_id, lawsuit_id, kind, variant, date, last_modified, active, link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(mov.ID), mov.RegistryID, uuid.UUID(mov.LawsuitID), string(mov.Kind),
		mov.Variant, mov.Date, mov.LastModified, mov.Active, mov.Link,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimentation registry id %d: %w", mov.RegistryID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save movimentation: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetActive(ctx context.Context, movID id.MovimentationID, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE movimentations SET active = $2 WHERE id = $1`,
		uuid.UUID(movID), active,
	)
	if err != nil {
		return fmt.Errorf("set movimentation active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set movimentation active: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("movimentation %s: %w", movID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, movID id.MovimentationID) (*Movimentation, error) {
	return scanMovimentation(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, lawsuit_id, kind, variant, date, last_modified, active, link, created_at
		FROM movimentations WHERE id = $1`, uuid.UUID(movID)),
		fmt.Sprintf("movimentation %s", movID))
}

func (s *PostgresStore) FindByRegistryID(ctx context.Context, registryID int64) (*Movimentation, error) {
	return scanMovimentation(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, lawsuit_id, kind, variant, date, last_modified, active, link, created_at
		FROM movimentations WHERE registry_id = $1`, registryID),
		fmt.Sprintf("movimentation registry id %d", registryID))
}

func (s *PostgresStore) ListByLawsuit(ctx context.Context, lawsuitID id.LawsuitID) ([]*Movimentation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registry_id, lawsuit_id, kind, variant, date, last_modified, active, link, created_at
		FROM movimentations WHERE lawsuit_id = $1 ORDER BY created_at`, uuid.UUID(lawsuitID))
	if err != nil {
		return nil, fmt.Errorf("list movimentations: %w", err)
	}
	defer rows.Close()

	var out []*Movimentation
	for rows.Next() {
		mov, err := scanMovimentationRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movimentations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovimentation(row *sql.Row, desc string) (*Movimentation, error) {
	mov, err := scanMovimentationRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", desc, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", desc, err)
	}
	return mov, nil
}

func scanMovimentationRow(row rowScanner) (*Movimentation, error) {
	var mov Movimentation
	var movID, lawsuitID uuid.UUID
	var kind string
	err := row.Scan(&movID, &mov.RegistryID, &lawsuitID, &kind, &mov.Variant,
		&mov.Date, &mov.LastModified, &mov.Active, &mov.Link, &mov.CreatedAt)
	if err != nil {
		return nil, err
	}
	mov.ID = id.MovimentationID(movID)
	mov.LawsuitID = id.LawsuitID(lawsuitID)
	mov.Kind = Kind(kind)
	return &mov, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

var _ Store = (*PostgresStore)(nil)
