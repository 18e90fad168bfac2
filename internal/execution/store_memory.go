package execution

import (
	"context"
	"sort"
	"sync"
	"time"

	id "pretor/pkg/domain"
)

// InMemoryStore is the test double for Store. Safe for concurrent use.
type InMemoryStore struct {
	mu         sync.RWMutex
	executions map[id.ExecutionID]*Execution
	snapshots  []Snapshot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{executions: make(map[id.ExecutionID]*Execution)}
}

func (s *InMemoryStore) SaveExecution(_ context.Context, exec *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = time.Now()
	}
	copied := *exec
	s.executions[exec.ID] = &copied
	return nil
}

func (s *InMemoryStore) SaveSnapshot(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	s.snapshots = append(s.snapshots, *snap)
	return nil
}

func (s *InMemoryStore) ListSnapshots(_ context.Context, execID id.ExecutionID) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Snapshot
	for _, snap := range s.snapshots {
		if snap.ExecutionID == execID {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListExecutionsSince(_ context.Context, after time.Time) ([]Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Execution
	for _, exec := range s.executions {
		if exec.CreatedAt.After(after) {
			out = append(out, *exec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
