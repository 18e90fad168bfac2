package movimentation

import (
	"context"

	id "pretor/pkg/domain"
)

// Store persists movimentations. Lookups return sentinel.ErrNotFound (wrapped)
// when no row matches.
type Store interface {
	Save(ctx context.Context, mov *Movimentation) error
	SetActive(ctx context.Context, movID id.MovimentationID, active bool) error
	FindByID(ctx context.Context, movID id.MovimentationID) (*Movimentation, error)
	FindByRegistryID(ctx context.Context, registryID int64) (*Movimentation, error)
	ListByLawsuit(ctx context.Context, lawsuitID id.LawsuitID) ([]*Movimentation, error)
}
