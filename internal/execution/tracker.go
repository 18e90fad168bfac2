package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pretor/internal/notification"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// Tracker anchors orchestration runs and records notification snapshots
// against them.
type Tracker struct {
	store         Store
	notifications notification.Store
	logger        *slog.Logger
}

func NewTracker(store Store, notifications notification.Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:         store,
		notifications: notifications,
		logger:        logger,
	}
}

// Begin opens a new execution.
func (t *Tracker) Begin(ctx context.Context) (*Execution, error) {
	exec := &Execution{ID: id.NewExecutionID()}
	if err := t.store.SaveExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("begin execution: %w", err)
	}
	return exec, nil
}

// RecordSnapshot reads the notification's current status and error into an
// append-only snapshot. Returns nil without error when the notification no
// longer exists.
func (t *Tracker) RecordSnapshot(ctx context.Context, execID id.ExecutionID, notifID id.NotificationID) (*Snapshot, error) {
	notif, err := t.notifications.FindByID(ctx, notifID)
	if errors.Is(err, sentinel.ErrNotFound) {
		t.logger.WarnContext(ctx, "notification vanished before snapshot",
			"notification_id", notifID.String(),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup notification %s: %w", notifID, err)
	}

	snap := &Snapshot{
		ID:             id.NewSnapshotID(),
		ExecutionID:    execID,
		NotificationID: notifID,
		Status:         notif.Status,
		ErrorCode:      notif.ErrorCode,
	}
	if err := t.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("record snapshot: %w", err)
	}
	return snap, nil
}

// ListSince returns every execution after the given time with its snapshots.
func (t *Tracker) ListSince(ctx context.Context, after time.Time) ([]Report, error) {
	executions, err := t.store.ListExecutionsSince(ctx, after)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}

	reports := make([]Report, 0, len(executions))
	for _, exec := range executions {
		snapshots, err := t.store.ListSnapshots(ctx, exec.ID)
		if err != nil {
			return nil, fmt.Errorf("list snapshots for execution %s: %w", exec.ID, err)
		}
		reports = append(reports, Report{Execution: exec, Snapshots: snapshots})
	}
	return reports, nil
}
