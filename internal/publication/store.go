package publication

import (
	"context"

	id "pretor/pkg/domain"
)

// Store persists publications. Lookups return sentinel.ErrNotFound (wrapped)
// when no row matches.
type Store interface {
	Save(ctx context.Context, pub *Publication) error
	FindByRegistryID(ctx context.Context, registryID int64) (*Publication, error)
	ListUntreated(ctx context.Context) ([]*Publication, error)
	// MarkTreated sets the treated flag and, when movID is non-nil, links the
	// derived movimentation.
	MarkTreated(ctx context.Context, pubID id.PublicationID, movID *id.MovimentationID) error
}
