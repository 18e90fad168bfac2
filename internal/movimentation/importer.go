package movimentation

import (
	"context"
	"errors"
	"fmt"

	"pretor/internal/registry"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// Importer turns registry hearings into local movimentations, deduplicating by
// registry id. Used by the lawsuit sync on first import and by the
// reconciliation engine on refresh.
type Importer struct {
	store Store
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// ImportHearing creates the movimentation for a hearing unless one already
// exists. Reports whether a row was created.
func (i *Importer) ImportHearing(ctx context.Context, lawsuitID id.LawsuitID, hearing registry.Hearing) (bool, error) {
	_, err := i.store.FindByRegistryID(ctx, hearing.RegistryID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, fmt.Errorf("lookup movimentation %d: %w", hearing.RegistryID, err)
	}

	mov := &Movimentation{
		ID:           id.NewMovimentationID(),
		RegistryID:   hearing.RegistryID,
		LawsuitID:    lawsuitID,
		Kind:         KindFromHearing(hearing.Kind),
		Variant:      hearing.Variant,
		Date:         hearing.Date,
		LastModified: hearing.LastModified,
		Active:       true,
		Link:         hearing.Link,
	}
	if err := i.store.Save(ctx, mov); err != nil {
		// A concurrent import may have won the race; that is not a failure.
		if errors.Is(err, sentinel.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("create movimentation %d: %w", hearing.RegistryID, err)
	}
	return true, nil
}
