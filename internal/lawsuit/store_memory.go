package lawsuit

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// InMemoryStore is the test double for Store. Safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	clients  map[id.ClientID]*Client
	lawsuits map[id.LawsuitID]*Lawsuit
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		clients:  make(map[id.ClientID]*Client),
		lawsuits: make(map[id.LawsuitID]*Lawsuit),
	}
}

func (s *InMemoryStore) SaveClient(_ context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if existing.RegistryID == client.RegistryID {
			return fmt.Errorf("client registry id %d: %w", client.RegistryID, sentinel.ErrConflict)
		}
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	copied := *client
	s.clients[client.ID] = &copied
	return nil
}

func (s *InMemoryStore) UpdateClient(_ context.Context, client *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return fmt.Errorf("client %s: %w", client.ID, sentinel.ErrNotFound)
	}
	copied := *client
	s.clients[client.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindClientByID(_ context.Context, clientID id.ClientID) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, sentinel.ErrNotFound)
	}
	copied := *client
	return &copied, nil
}

func (s *InMemoryStore) FindClientByRegistryID(_ context.Context, registryID int64) (*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		if client.RegistryID == registryID {
			copied := *client
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("client registry id %d: %w", registryID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) SaveLawsuit(_ context.Context, lawsuit *Lawsuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.lawsuits {
		if existing.RegistryID == lawsuit.RegistryID {
			return fmt.Errorf("lawsuit registry id %d: %w", lawsuit.RegistryID, sentinel.ErrConflict)
		}
	}
	if lawsuit.CreatedAt.IsZero() {
		lawsuit.CreatedAt = time.Now()
	}
	copied := *lawsuit
	s.lawsuits[lawsuit.ID] = &copied
	return nil
}

func (s *InMemoryStore) UpdateLawsuit(_ context.Context, lawsuit *Lawsuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lawsuits[lawsuit.ID]; !ok {
		return fmt.Errorf("lawsuit %s: %w", lawsuit.ID, sentinel.ErrNotFound)
	}
	copied := *lawsuit
	s.lawsuits[lawsuit.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindLawsuitByID(_ context.Context, lawsuitID id.LawsuitID) (*Lawsuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lawsuit, ok := s.lawsuits[lawsuitID]
	if !ok {
		return nil, fmt.Errorf("lawsuit %s: %w", lawsuitID, sentinel.ErrNotFound)
	}
	copied := *lawsuit
	return &copied, nil
}

func (s *InMemoryStore) FindLawsuitByRegistryID(_ context.Context, registryID int64) (*Lawsuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lawsuit := range s.lawsuits {
		if lawsuit.RegistryID == registryID {
			copied := *lawsuit
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("lawsuit registry id %d: %w", registryID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindLawsuitByCNJ(_ context.Context, cnj string) (*Lawsuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lawsuit := range s.lawsuits {
		if lawsuit.CNJ == cnj {
			copied := *lawsuit
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("lawsuit cnj %s: %w", cnj, sentinel.ErrNotFound)
}

var _ Store = (*InMemoryStore)(nil)
