package publication

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// InMemoryStore is the test double for Store. Safe for concurrent use.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[id.PublicationID]*Publication
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[id.PublicationID]*Publication)}
}

func (s *InMemoryStore) Save(_ context.Context, pub *Publication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.RegistryID == pub.RegistryID {
			return fmt.Errorf("publication registry id %d: %w", pub.RegistryID, sentinel.ErrConflict)
		}
	}
	if pub.CreatedAt.IsZero() {
		pub.CreatedAt = time.Now()
	}
	copied := *pub
	s.rows[pub.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByRegistryID(_ context.Context, registryID int64) (*Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, pub := range s.rows {
		if pub.RegistryID == registryID {
			copied := *pub
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("publication registry id %d: %w", registryID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListUntreated(_ context.Context) ([]*Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Publication
	for _, pub := range s.rows {
		if !pub.Treated {
			copied := *pub
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) MarkTreated(_ context.Context, pubID id.PublicationID, movID *id.MovimentationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.rows[pubID]
	if !ok {
		return fmt.Errorf("publication %s: %w", pubID, sentinel.ErrNotFound)
	}
	pub.Treated = true
	if movID != nil {
		copied := *movID
		pub.MovimentationID = &copied
	}
	return nil
}

var _ Store = (*InMemoryStore)(nil)
