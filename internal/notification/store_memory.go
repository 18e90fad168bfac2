package notification

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
	rows map[id.NotificationID]*Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[id.NotificationID]*Notification)}
}

func (s *InMemoryStore) Save(_ context.Context, notif *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.MovimentationID == notif.MovimentationID && existing.Kind == notif.Kind {
			return fmt.Errorf("notification %s for movimentation %s: %w",
				notif.Kind, notif.MovimentationID, sentinel.ErrConflict)
		}
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	copied := *notif
	s.rows[notif.ID] = &copied
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, notif *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[notif.ID]; !ok {
		return fmt.Errorf("notification %s: %w", notif.ID, sentinel.ErrNotFound)
	}
	copied := *notif
	s.rows[notif.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, notifID id.NotificationID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notif, ok := s.rows[notifID]
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", notifID, sentinel.ErrNotFound)
	}
	copied := *notif
	return &copied, nil
}

func (s *InMemoryStore) FindByMovimentationAndKind(_ context.Context, movID id.MovimentationID, kind Kind) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, notif := range s.rows {
		if notif.MovimentationID == movID && notif.Kind == kind {
			copied := *notif
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("notification %s for movimentation %s: %w", kind, movID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListByMovimentation(_ context.Context, movID id.MovimentationID) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Notification
	for _, notif := range s.rows {
		if notif.MovimentationID == movID {
			copied := *notif
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
