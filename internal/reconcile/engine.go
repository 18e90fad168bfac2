// Package reconcile diffs the registry's open-publication list against the
// local mirror and turns closed publications into new movimentations.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"pretor/internal/lawsuit"
	"pretor/internal/movimentation"
	"pretor/internal/publication"
	"pretor/internal/registry"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// LawsuitResolver resolves the local lawsuit owning a publication. Implemented
// by lawsuit.SyncService.
type LawsuitResolver interface {
	GetOrCreateByCNJ(ctx context.Context, cnj string) (*lawsuit.Lawsuit, error)
}

// Engine keeps local movimentations and publications in step with the
// registry. Fan-out stages run each item independently: one item's failure is
// logged and counted, never propagated to its siblings.
type Engine struct {
	client         registry.Client
	resolver       LawsuitResolver
	lawsuits       lawsuit.Store
	movimentations movimentation.Store
	publications   publication.Store
	logger         *slog.Logger
	metrics        *Metrics
}

func NewEngine(
	client registry.Client,
	resolver LawsuitResolver,
	lawsuits lawsuit.Store,
	movimentations movimentation.Store,
	publications publication.Store,
	logger *slog.Logger,
	metrics *Metrics,
) *Engine {
	return &Engine{
		client:         client,
		resolver:       resolver,
		lawsuits:       lawsuits,
		movimentations: movimentations,
		publications:   publications,
		logger:         logger,
		metrics:        metrics,
	}
}

// RefreshMovimentations fetches the lawsuit's current hearings and upserts the
// local mirror: unknown hearings become new rows, known ones only have their
// active flag realigned. Returns the full current set, new and pre-existing.
func (e *Engine) RefreshMovimentations(ctx context.Context, suit *lawsuit.Lawsuit) ([]*movimentation.Movimentation, error) {
	hearings, err := e.client.GetLawsuitHearings(ctx, suit.RegistryID)
	if err != nil {
		return nil, fmt.Errorf("fetch hearings for lawsuit %s: %w", suit.CNJ, err)
	}

	var out []*movimentation.Movimentation
	for _, hearing := range hearings {
		if hearing.RegistryID == 0 || hearing.Date.IsZero() || hearing.Kind == "" {
			e.logger.WarnContext(ctx, "skipping malformed hearing",
				"lawsuit_id", suit.ID.String(),
				"hearing_registry_id", hearing.RegistryID,
			)
			continue
		}

		existing, err := e.movimentations.FindByRegistryID(ctx, hearing.RegistryID)
		switch {
		case err == nil:
			if !existing.Active {
				if err := e.movimentations.SetActive(ctx, existing.ID, true); err != nil {
					return nil, fmt.Errorf("reactivate movimentation %d: %w", hearing.RegistryID, err)
				}
				existing.Active = true
			}
			out = append(out, existing)

		case errors.Is(err, sentinel.ErrNotFound):
			mov := &movimentation.Movimentation{
				ID:           id.NewMovimentationID(),
				RegistryID:   hearing.RegistryID,
				LawsuitID:    suit.ID,
				Kind:         movimentation.KindFromHearing(hearing.Kind),
				Variant:      hearing.Variant,
				Date:         hearing.Date,
				LastModified: hearing.LastModified,
				Active:       true,
				Link:         hearing.Link,
			}
			if err := e.movimentations.Save(ctx, mov); err != nil && !errors.Is(err, sentinel.ErrConflict) {
				return nil, fmt.Errorf("create movimentation %d: %w", hearing.RegistryID, err)
			}
			out = append(out, mov)

		default:
			return nil, fmt.Errorf("lookup movimentation %d: %w", hearing.RegistryID, err)
		}
	}

	if err := e.deactivateMissing(ctx, suit.ID, hearings); err != nil {
		return nil, err
	}
	return out, nil
}

// deactivateMissing clears the active flag on local movimentations the
// registry no longer lists for the lawsuit.
func (e *Engine) deactivateMissing(ctx context.Context, lawsuitID id.LawsuitID, hearings []registry.Hearing) error {
	current := make(map[int64]struct{}, len(hearings))
	for _, hearing := range hearings {
		current[hearing.RegistryID] = struct{}{}
	}

	local, err := e.movimentations.ListByLawsuit(ctx, lawsuitID)
	if err != nil {
		return fmt.Errorf("list movimentations for lawsuit %s: %w", lawsuitID, err)
	}
	for _, mov := range local {
		if _, ok := current[mov.RegistryID]; ok || !mov.Active {
			continue
		}
		if err := e.movimentations.SetActive(ctx, mov.ID, false); err != nil {
			return fmt.Errorf("deactivate movimentation %d: %w", mov.RegistryID, err)
		}
	}
	return nil
}

// FetchOpenPublications fetches the registry's open-publication list and
// get-or-creates a local row per item. Items whose lawsuit cannot be resolved
// are dropped from the result, not retried. Returns the resolved open set.
func (e *Engine) FetchOpenPublications(ctx context.Context) ([]*publication.Publication, error) {
	summaries, err := e.client.ListOpenPublications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open publications: %w", err)
	}
	e.metrics.SetOpenPublications(len(summaries))

	var (
		mu  sync.Mutex
		out []*publication.Publication
	)
	var g errgroup.Group
	for _, summary := range summaries {
		g.Go(func() error {
			pub, err := e.resolvePublication(ctx, summary)
			if err != nil {
				e.metrics.IncrementItemFailure("open_publication")
				e.logger.WarnContext(ctx, "dropping unresolvable publication",
					"publication_registry_id", summary.RegistryID,
					"cnj", summary.CNJ,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			out = append(out, pub)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // item failures are absorbed above, never returned
	return out, nil
}

// resolvePublication returns the local row for an open item, creating it on
// first sight.
func (e *Engine) resolvePublication(ctx context.Context, summary registry.PublicationSummary) (*publication.Publication, error) {
	existing, err := e.publications.FindByRegistryID(ctx, summary.RegistryID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("lookup publication %d: %w", summary.RegistryID, err)
	}

	suit, err := e.resolver.GetOrCreateByCNJ(ctx, summary.CNJ)
	if err != nil {
		return nil, fmt.Errorf("resolve lawsuit %s: %w", summary.CNJ, err)
	}

	pub := &publication.Publication{
		ID:             id.NewPublicationID(),
		RegistryID:     summary.RegistryID,
		LawsuitID:      suit.ID,
		ExpeditionDate: summary.ExpeditionDate,
	}
	if err := e.publications.Save(ctx, pub); err != nil {
		// A concurrent pass may have created it first.
		if errors.Is(err, sentinel.ErrConflict) {
			return e.publications.FindByRegistryID(ctx, summary.RegistryID)
		}
		return nil, fmt.Errorf("create publication %d: %w", summary.RegistryID, err)
	}
	return pub, nil
}

// FetchClosedPublications returns the untreated local publications absent from
// the registry's fresh open set. Those have been closed or withdrawn on the
// registry side and are ready for derivation.
func (e *Engine) FetchClosedPublications(ctx context.Context) ([]*publication.Publication, error) {
	open, err := e.FetchOpenPublications(ctx)
	if err != nil {
		return nil, err
	}
	openIDs := make(map[int64]struct{}, len(open))
	for _, pub := range open {
		openIDs[pub.RegistryID] = struct{}{}
	}

	untreated, err := e.publications.ListUntreated(ctx)
	if err != nil {
		return nil, fmt.Errorf("list untreated publications: %w", err)
	}

	var closed []*publication.Publication
	for _, pub := range untreated {
		if _, stillOpen := openIDs[pub.RegistryID]; !stillOpen {
			closed = append(closed, pub)
			e.metrics.IncrementClosed()
		}
	}
	return closed, nil
}

// DeriveNewMovimentations processes every closed publication concurrently:
// re-fetch the lawsuit's hearings, pick the first one in registry order whose
// last-modified stamp is strictly after the publication's expedition date, and
// create the movimentation unless one with that registry id already exists.
// The publication is marked treated regardless of match outcome. Returns only
// the newly created movimentations.
func (e *Engine) DeriveNewMovimentations(ctx context.Context) ([]*movimentation.Movimentation, error) {
	closed, err := e.FetchClosedPublications(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		derived []*movimentation.Movimentation
	)
	var g errgroup.Group
	for _, pub := range closed {
		g.Go(func() error {
			mov, err := e.deriveFromPublication(ctx, pub)
			if err != nil {
				e.metrics.IncrementItemFailure("derive")
				e.logger.ErrorContext(ctx, "deriving movimentation failed",
					"publication_registry_id", pub.RegistryID,
					"error", err,
				)
				return nil
			}
			if mov != nil {
				mu.Lock()
				derived = append(derived, mov)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // item failures are absorbed above, never returned
	return derived, nil
}

// deriveFromPublication handles one closed publication. Returns the created
// movimentation, or nil when no hearing matched or the match was already
// known locally.
func (e *Engine) deriveFromPublication(ctx context.Context, pub *publication.Publication) (*movimentation.Movimentation, error) {
	suit, err := e.lawsuitByID(ctx, pub.LawsuitID)
	if err != nil {
		return nil, err
	}

	hearings, err := e.client.GetLawsuitHearings(ctx, suit.RegistryID)
	if err != nil {
		return nil, fmt.Errorf("fetch hearings for lawsuit %s: %w", suit.CNJ, err)
	}

	match, found := matchHearing(hearings, pub)
	if !found {
		return nil, e.markTreated(ctx, pub, nil)
	}

	existing, err := e.movimentations.FindByRegistryID(ctx, match.RegistryID)
	switch {
	case err == nil:
		return nil, e.markTreated(ctx, pub, &existing.ID)

	case errors.Is(err, sentinel.ErrNotFound):
		mov := &movimentation.Movimentation{
			ID:           id.NewMovimentationID(),
			RegistryID:   match.RegistryID,
			LawsuitID:    suit.ID,
			Kind:         movimentation.KindFromHearing(match.Kind),
			Variant:      match.Variant,
			Date:         match.Date,
			LastModified: match.LastModified,
			Active:       true,
			Link:         match.Link,
		}
		if err := e.movimentations.Save(ctx, mov); err != nil {
			// A concurrent run created it first; link the winner instead.
			if errors.Is(err, sentinel.ErrConflict) {
				winner, ferr := e.movimentations.FindByRegistryID(ctx, match.RegistryID)
				if ferr != nil {
					return nil, fmt.Errorf("lookup movimentation %d: %w", match.RegistryID, ferr)
				}
				return nil, e.markTreated(ctx, pub, &winner.ID)
			}
			return nil, fmt.Errorf("create movimentation %d: %w", match.RegistryID, err)
		}
		e.metrics.IncrementDerived()
		return mov, e.markTreated(ctx, pub, &mov.ID)

	default:
		return nil, fmt.Errorf("lookup movimentation %d: %w", match.RegistryID, err)
	}
}

// matchHearing selects the first hearing in registry order modified strictly
// after the publication's expedition date. Registry order is the only
// tie-break.
func matchHearing(hearings []registry.Hearing, pub *publication.Publication) (registry.Hearing, bool) {
	for _, hearing := range hearings {
		if hearing.RegistryID == 0 || hearing.LastModified.IsZero() {
			continue
		}
		if hearing.LastModified.After(pub.ExpeditionDate) {
			return hearing, true
		}
	}
	return registry.Hearing{}, false
}

func (e *Engine) markTreated(ctx context.Context, pub *publication.Publication, movID *id.MovimentationID) error {
	if err := e.publications.MarkTreated(ctx, pub.ID, movID); err != nil {
		return fmt.Errorf("mark publication %d treated: %w", pub.RegistryID, err)
	}
	return nil
}

// lawsuitByID loads the lawsuit owning a publication.
func (e *Engine) lawsuitByID(ctx context.Context, lawsuitID id.LawsuitID) (*lawsuit.Lawsuit, error) {
	suit, err := e.lawsuits.FindLawsuitByID(ctx, lawsuitID)
	if err != nil {
		return nil, fmt.Errorf("lookup lawsuit %s: %w", lawsuitID, err)
	}
	return suit, nil
}
