package lawsuit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pretor/internal/registry"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// HearingImporter creates the local movimentation for a registry hearing if it
// does not exist yet. Implemented by the movimentation module.
type HearingImporter interface {
	ImportHearing(ctx context.Context, lawsuitID id.LawsuitID, hearing registry.Hearing) (created bool, err error)
}

// SyncService upserts local clients and lawsuits from registry data. All
// operations are idempotent under repeated calls with unchanged registry state.
type SyncService struct {
	store    Store
	client   registry.Client
	importer HearingImporter
	logger   *slog.Logger
}

func NewSyncService(store Store, client registry.Client, importer HearingImporter, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:    store,
		client:   client,
		importer: importer,
		logger:   logger,
	}
}

// SyncClient fetches the registry's view of a client and upserts the local
// mirror. A missing cell number is not an error: the phone list is simply empty.
func (s *SyncService) SyncClient(ctx context.Context, registryID int64) (*Client, error) {
	info, err := s.client.GetClientInfo(ctx, registryID)
	if err != nil {
		return nil, fmt.Errorf("fetch client %d: %w", registryID, err)
	}

	var phones []string
	if info.CellPhone != "" {
		phones = []string{info.CellPhone}
	}

	existing, err := s.store.FindClientByRegistryID(ctx, registryID)
	switch {
	case err == nil:
		existing.Name = info.Name
		existing.TaxID = info.TaxID
		existing.Phones = phones
		if err := s.store.UpdateClient(ctx, existing); err != nil {
			return nil, fmt.Errorf("update client %d: %w", registryID, err)
		}
		return existing, nil

	case errors.Is(err, sentinel.ErrNotFound):
		client := &Client{
			ID:         id.NewClientID(),
			RegistryID: registryID,
			Name:       info.Name,
			TaxID:      info.TaxID,
			Phones:     phones,
		}
		if err := s.store.SaveClient(ctx, client); err != nil {
			return nil, fmt.Errorf("create client %d: %w", registryID, err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("lookup client %d: %w", registryID, err)
	}
}

// SyncLawsuit fetches the lawsuit bundle, syncs the owning client, and upserts
// the local lawsuit. Pure upsert: nothing changes when registry data is stable.
func (s *SyncService) SyncLawsuit(ctx context.Context, registryID int64) (*Lawsuit, error) {
	info, err := s.client.GetLawsuitInfo(ctx, registryID)
	if err != nil {
		return nil, fmt.Errorf("fetch lawsuit %d: %w", registryID, err)
	}

	client, err := s.SyncClient(ctx, info.ClientRegistryID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindLawsuitByRegistryID(ctx, registryID)
	switch {
	case err == nil:
		existing.CNJ = info.CNJ
		existing.ClientID = client.ID
		if err := s.store.UpdateLawsuit(ctx, existing); err != nil {
			return nil, fmt.Errorf("update lawsuit %d: %w", registryID, err)
		}
		return existing, nil

	case errors.Is(err, sentinel.ErrNotFound):
		lawsuit := &Lawsuit{
			ID:         id.NewLawsuitID(),
			RegistryID: registryID,
			CNJ:        info.CNJ,
			ClientID:   client.ID,
		}
		if err := s.store.SaveLawsuit(ctx, lawsuit); err != nil {
			// A concurrent sync created it first; adopt the winner.
			if errors.Is(err, sentinel.ErrConflict) {
				winner, ferr := s.store.FindLawsuitByRegistryID(ctx, registryID)
				if ferr != nil {
					return nil, fmt.Errorf("lookup lawsuit %d: %w", registryID, ferr)
				}
				return winner, nil
			}
			return nil, fmt.Errorf("create lawsuit %d: %w", registryID, err)
		}
		s.importHearings(ctx, lawsuit.ID, info.Hearings)
		s.logger.InfoContext(ctx, "created lawsuit", "cnj", lawsuit.CNJ)
		return lawsuit, nil

	default:
		return nil, fmt.Errorf("lookup lawsuit %d: %w", registryID, err)
	}
}

// RegistryID resolves a CNJ to its registry id.
func (s *SyncService) RegistryID(ctx context.Context, cnj string) (int64, error) {
	summary, err := s.client.SearchLawsuitByCNJ(ctx, cnj)
	if err != nil {
		if registry.IsNotFound(err) {
			return 0, fmt.Errorf("lawsuit cnj %s: %w", cnj, sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("search lawsuit %s: %w", cnj, err)
	}
	return summary.RegistryID, nil
}

// GetOrCreateByCNJ returns the local lawsuit for a CNJ, importing it from the
// registry on first sight. Returns sentinel.ErrNotFound (wrapped) when the
// registry does not know the CNJ either.
func (s *SyncService) GetOrCreateByCNJ(ctx context.Context, cnj string) (*Lawsuit, error) {
	local, err := s.store.FindLawsuitByCNJ(ctx, cnj)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("lookup lawsuit %s: %w", cnj, err)
	}

	registryID, err := s.RegistryID(ctx, cnj)
	if err != nil {
		return nil, err
	}
	return s.SyncLawsuit(ctx, registryID)
}

// importHearings creates a movimentation per well-formed hearing. Malformed
// entries are logged and skipped, never fatal.
func (s *SyncService) importHearings(ctx context.Context, lawsuitID id.LawsuitID, hearings []registry.Hearing) {
	for _, hearing := range hearings {
		if hearing.RegistryID == 0 || hearing.Date.IsZero() || hearing.Kind == "" {
			s.logger.WarnContext(ctx, "skipping malformed hearing",
				"lawsuit_id", lawsuitID.String(),
				"hearing_registry_id", hearing.RegistryID,
			)
			continue
		}
		if _, err := s.importer.ImportHearing(ctx, lawsuitID, hearing); err != nil {
			s.logger.ErrorContext(ctx, "import hearing failed",
				"lawsuit_id", lawsuitID.String(),
				"hearing_registry_id", hearing.RegistryID,
				"error", err,
			)
		}
	}
}
