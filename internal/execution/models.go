// Package execution is the audit trail of orchestration runs. Each run is
// anchored by an Execution row; the notifications it examined are captured as
// append-only snapshots, so historical reports survive later status changes
// on the notification rows themselves.
package execution

import (
	"time"

	"pretor/internal/notification"
	id "pretor/pkg/domain"
)

// Execution identifies one orchestration run.
type Execution struct {
	ID        id.ExecutionID
	CreatedAt time.Time
}

// Snapshot captures a notification's (status, error) at snapshot time. Rows
// are never mutated.
type Snapshot struct {
	ID             id.SnapshotID
	ExecutionID    id.ExecutionID
	NotificationID id.NotificationID
	Status         notification.Status
	ErrorCode      notification.ErrorCode
	CreatedAt      time.Time
}

// Report is an execution with the snapshots it recorded, for historical
// listing.
type Report struct {
	Execution Execution
	Snapshots []Snapshot
}
