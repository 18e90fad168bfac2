package lawsuit

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

// PostgresStore persists clients and lawsuits in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveClient(ctx context.Context, client *Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, registry_id, name, tax_id, phones)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(client.ID), client.RegistryID, client.Name, client.TaxID, pq.Array(client.Phones),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("client registry id %d: %w", client.RegistryID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, client *Client) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name = $2, tax_id = $3, phones = $4
		WHERE id = $1`,
		uuid.UUID(client.ID), client.Name, client.TaxID, pq.Array(client.Phones),
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(res, fmt.Sprintf("client %s", client.ID))
}

func (s *PostgresStore) FindClientByID(ctx context.Context, clientID id.ClientID) (*Client, error) {
	return s.scanClient(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, name, tax_id, phones, created_at
		FROM clients WHERE id = $1`, uuid.UUID(clientID)),
		fmt.Sprintf("client %s", clientID))
}

func (s *PostgresStore) FindClientByRegistryID(ctx context.Context, registryID int64) (*Client, error) {
	return s.scanClient(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, name, tax_id, phones, created_at
		FROM clients WHERE registry_id = $1`, registryID),
		fmt.Sprintf("client registry id %d", registryID))
}

func (s *PostgresStore) scanClient(row *sql.Row, desc string) (*Client, error) {
	var client Client
	var clientID uuid.UUID
	var phones pq.StringArray
	err := row.Scan(&clientID, &client.RegistryID, &client.Name, &client.TaxID, &phones, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", desc, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", desc, err)
	}
	client.ID = id.ClientID(clientID)
	client.Phones = phones
	return &client, nil
}

func (s *PostgresStore) SaveLawsuit(ctx context.Context, lawsuit *Lawsuit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lawsuits (id, registry_id, cnj, client_id)
		VALUES ($1, $2, $3, $4)`,
		uuid.UUID(lawsuit.ID), lawsuit.RegistryID, lawsuit.CNJ, uuid.UUID(lawsuit.ClientID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lawsuit registry id %d: %w", lawsuit.RegistryID, sentinel.ErrConflict)
		}
		return fmt.Errorf("save lawsuit: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateLawsuit(ctx context.Context, lawsuit *Lawsuit) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lawsuits SET cnj = $2, client_id = $3
		WHERE id = $1`,
		uuid.UUID(lawsuit.ID), lawsuit.CNJ, uuid.UUID(lawsuit.ClientID),
	)
	if err != nil {
		return fmt.Errorf("update lawsuit: %w", err)
	}
	return requireRow(res, fmt.Sprintf("lawsuit %s", lawsuit.ID))
}

func (s *PostgresStore) FindLawsuitByID(ctx context.Context, lawsuitID id.LawsuitID) (*Lawsuit, error) {
	return s.scanLawsuit(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, cnj, client_id, created_at
		FROM lawsuits WHERE id = $1`, uuid.UUID(lawsuitID)),
		fmt.Sprintf("lawsuit %s", lawsuitID))
}

func (s *PostgresStore) FindLawsuitByRegistryID(ctx context.Context, registryID int64) (*Lawsuit, error) {
	return s.scanLawsuit(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, cnj, client_id, created_at
		FROM lawsuits WHERE registry_id = $1`, registryID),
		fmt.Sprintf("lawsuit registry id %d", registryID))
}

func (s *PostgresStore) FindLawsuitByCNJ(ctx context.Context, cnj string) (*Lawsuit, error) {
	return s.scanLawsuit(s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, cnj, client_id, created_at
		FROM lawsuits WHERE cnj = $1`, cnj),
		fmt.Sprintf("lawsuit cnj %s", cnj))
}

func (s *PostgresStore) scanLawsuit(row *sql.Row, desc string) (*Lawsuit, error) {
	var lawsuit Lawsuit
	var lawsuitID, clientID uuid.UUID
	err := row.Scan(&lawsuitID, &lawsuit.RegistryID, &lawsuit.CNJ, &clientID, &lawsuit.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", desc, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", desc, err)
	}
	lawsuit.ID = id.LawsuitID(lawsuitID)
	lawsuit.ClientID = id.ClientID(clientID)
	return &lawsuit, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func requireRow(res sql.Result, desc string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", desc, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", desc, sentinel.ErrNotFound)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
