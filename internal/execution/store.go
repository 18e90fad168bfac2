package execution

import (
	"context"
	"time"

	id "pretor/pkg/domain"
)

// Store persists executions and their snapshots. Snapshots are insert-only.
type Store interface {
	SaveExecution(ctx context.Context, exec *Execution) error
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	ListSnapshots(ctx context.Context, execID id.ExecutionID) ([]Snapshot, error)
	ListExecutionsSince(ctx context.Context, after time.Time) ([]Execution, error)
}
