package publication

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// PostgresStore persists publications in the publications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, pub *Publication) error {
	const query = `
		INSERT INTO publications (id, registry_id, lawsuit_id, movimentation_id, expedition_date, treated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`

	var movID any
	if pub.MovimentationID != nil {
		movID = pub.MovimentationID.String()
	}
	err := s.db.QueryRowContext(ctx, query,
		pub.ID.String(), pub.RegistryID, pub.LawsuitID.String(), movID, pub.ExpeditionDate, pub.Treated,
	).Scan(&pub.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("publication registry id %d: %w", pub.RegistryID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByRegistryID(ctx context.Context, registryID int64) (*Publication, error) {
	const query = `
		SELECT id, registry_id, lawsuit_id, movimentation_id, expedition_date, treated, created_at
		FROM publications
		WHERE registry_id = $1`

	pub, err := scanPublicationRow(s.db.QueryRowContext(ctx, query, registryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publication registry id %d: %w", registryID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find publication by registry id: %w", err)
	}
	return pub, nil
}

func (s *PostgresStore) ListUntreated(ctx context.Context) ([]*Publication, error) {
	const query = `
		SELECT id, registry_id, lawsuit_id, movimentation_id, expedition_date, treated, created_at
		FROM publications
		WHERE NOT treated
		ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list untreated publications: %w", err)
	}
	defer rows.Close()

	var out []*Publication
	for rows.Next() {
		pub, err := scanPublicationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		out = append(out, pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list untreated publications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkTreated(ctx context.Context, pubID id.PublicationID, movID *id.MovimentationID) error {
	const query = `
		UPDATE publications
		SET treated = TRUE, movimentation_id = COALESCE($2, movimentation_id)
		WHERE id = $1`

	var mov any
	if movID != nil {
		mov = movID.String()
	}
	res, err := s.db.ExecContext(ctx, query, pubID.String(), mov)
	if err != nil {
		return fmt.Errorf("mark publication treated: %w", err)
	}
	return requireRow(res, fmt.Sprintf("publication %s", pubID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublicationRow(row rowScanner) (*Publication, error) {
	var (
		pub              Publication
		rawID, rawSuit   string
		rawMovimentation sql.NullString
	)
	err := row.Scan(&rawID, &pub.RegistryID, &rawSuit, &rawMovimentation, &pub.ExpeditionDate, &pub.Treated, &pub.CreatedAt)
	if err != nil {
		return nil, err
	}
	if pub.ID, err = id.ParsePublicationID(rawID); err != nil {
		return nil, fmt.Errorf("parse publication id: %w", err)
	}
	if pub.LawsuitID, err = id.ParseLawsuitID(rawSuit); err != nil {
		return nil, fmt.Errorf("parse lawsuit id: %w", err)
	}
	if rawMovimentation.Valid {
		movID, err := id.ParseMovimentationID(rawMovimentation.String)
		if err != nil {
			return nil, fmt.Errorf("parse movimentation id: %w", err)
		}
		pub.MovimentationID = &movID
	}
	return &pub, nil
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
