package execution

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pretor/internal/notification"
	id "pretor/pkg/domain"
)

func newTracker(t *testing.T) (*Tracker, *notification.InMemoryStore) {
	t.Helper()
	notifications := notification.NewInMemoryStore()
	tracker := NewTracker(NewInMemoryStore(), notifications,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return tracker, notifications
}

func seedNotification(t *testing.T, store *notification.InMemoryStore, status notification.Status, code notification.ErrorCode) *notification.Notification {
	t.Helper()
	notif := &notification.Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: id.NewMovimentationID(),
		ClientID:        id.NewClientID(),
		Kind:            notification.KindInitial,
		Message:         "mensagem",
		Status:          status,
		ErrorCode:       code,
	}
	require.NoError(t, store.Save(context.Background(), notif))
	return notif
}

func TestSnapshotsAreImmutableAcrossStatusChanges(t *testing.T) {
	tracker, notifications := newTracker(t)
	ctx := context.Background()

	exec, err := tracker.Begin(ctx)
	require.NoError(t, err)

	notif := seedNotification(t, notifications, notification.StatusNotSent, "")

	first, err := tracker.RecordSnapshot(ctx, exec.ID, notif.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, notification.StatusNotSent, first.Status)

	// The notification moves on; the first snapshot must not follow it.
	notif.Status = notification.StatusError
	notif.ErrorCode = notification.CodeNotOnWhatsapp
	require.NoError(t, notifications.Update(ctx, notif))

	second, err := tracker.RecordSnapshot(ctx, exec.ID, notif.ID)
	require.NoError(t, err)
	require.NotNil(t, second)

	reports, err := tracker.ListSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Snapshots, 2)
	assert.Equal(t, notification.StatusNotSent, reports[0].Snapshots[0].Status)
	assert.Equal(t, notification.ErrorCode(""), reports[0].Snapshots[0].ErrorCode)
	assert.Equal(t, notification.StatusError, reports[0].Snapshots[1].Status)
	assert.Equal(t, notification.CodeNotOnWhatsapp, reports[0].Snapshots[1].ErrorCode)
}

func TestRecordSnapshotIsNilForMissingNotification(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	exec, err := tracker.Begin(ctx)
	require.NoError(t, err)

	snap, err := tracker.RecordSnapshot(ctx, exec.ID, id.NewNotificationID())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestListSinceFiltersByTime(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	old, err := tracker.Begin(ctx)
	require.NoError(t, err)

	cutoff := old.CreatedAt.Add(time.Millisecond)

	recent := &Execution{ID: id.NewExecutionID(), CreatedAt: cutoff.Add(time.Second)}
	require.NoError(t, tracker.store.SaveExecution(ctx, recent))

	reports, err := tracker.ListSince(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, recent.ID, reports[0].Execution.ID)
}
