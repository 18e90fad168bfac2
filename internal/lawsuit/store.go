package lawsuit

import (
	"context"

	id "pretor/pkg/domain"
)

// Store persists clients and lawsuits. Lookups return sentinel.ErrNotFound
// (wrapped) when no row matches.
type Store interface {
	SaveClient(ctx context.Context, client *Client) error
	UpdateClient(ctx context.Context, client *Client) error
	FindClientByID(ctx context.Context, clientID id.ClientID) (*Client, error)
	FindClientByRegistryID(ctx context.Context, registryID int64) (*Client, error)

	SaveLawsuit(ctx context.Context, lawsuit *Lawsuit) error
	UpdateLawsuit(ctx context.Context, lawsuit *Lawsuit) error
	FindLawsuitByID(ctx context.Context, lawsuitID id.LawsuitID) (*Lawsuit, error)
	FindLawsuitByRegistryID(ctx context.Context, registryID int64) (*Lawsuit, error)
	FindLawsuitByCNJ(ctx context.Context, cnj string) (*Lawsuit, error)
}
