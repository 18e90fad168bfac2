//go:build integration

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pretor/pkg/domain"
	"pretor/pkg/testutil/containers"
)

func TestRedisSchedulerOrdering(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	sched := NewRedisScheduler(rc.Client)

	now := time.Now()
	past := id.NewNotificationID()
	soon := id.NewNotificationID()
	future := id.NewNotificationID()

	ref, err := sched.ScheduleAt(ctx, now.Add(-time.Hour), past)
	require.NoError(t, err)
	assert.Contains(t, ref, past.String())

	_, err = sched.ScheduleAt(ctx, now.Add(-time.Minute), soon)
	require.NoError(t, err)
	_, err = sched.ScheduleAt(ctx, now.Add(time.Hour), future)
	require.NoError(t, err)

	due, err := sched.Due(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []id.NotificationID{past, soon}, due)

	// Claimed entries do not come back; the future one is still pending.
	due, err = sched.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = sched.Due(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []id.NotificationID{future}, due)
}

func TestRedisSchedulerReschedulingMovesTrigger(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	sched := NewRedisScheduler(rc.Client)

	notifID := id.NewNotificationID()
	now := time.Now()

	_, err := sched.ScheduleAt(ctx, now.Add(-time.Minute), notifID)
	require.NoError(t, err)

	// Re-scheduling the same notification replaces the score.
	_, err = sched.ScheduleAt(ctx, now.Add(time.Hour), notifID)
	require.NoError(t, err)

	due, err := sched.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}
