package movimentation

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
	rows map[id.MovimentationID]*Movimentation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[id.MovimentationID]*Movimentation)}
}

func (s *InMemoryStore) Save(_ context.Context, mov *Movimentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.RegistryID == mov.RegistryID {
			return fmt.Errorf("movimentation registry id %d: %w", mov.RegistryID, sentinel.ErrConflict)
		}
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now()
	}
	copied := *mov
	s.rows[mov.ID] = &copied
	return nil
}

func (s *InMemoryStore) SetActive(_ context.Context, movID id.MovimentationID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mov, ok := s.rows[movID]
	if !ok {
		return fmt.Errorf("movimentation %s: %w", movID, sentinel.ErrNotFound)
	}
	mov.Active = active
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, movID id.MovimentationID) (*Movimentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mov, ok := s.rows[movID]
	if !ok {
		return nil, fmt.Errorf("movimentation %s: %w", movID, sentinel.ErrNotFound)
	}
	copied := *mov
	return &copied, nil
}

func (s *InMemoryStore) FindByRegistryID(_ context.Context, registryID int64) (*Movimentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, mov := range s.rows {
		if mov.RegistryID == registryID {
			copied := *mov
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("movimentation registry id %d: %w", registryID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListByLawsuit(_ context.Context, lawsuitID id.LawsuitID) ([]*Movimentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Movimentation
	for _, mov := range s.rows {
		if mov.LawsuitID == lawsuitID {
			copied := *mov
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
