package notification

import (
	"context"
	"time"

	id "pretor/pkg/domain"
)

// Scheduler arranges a future send trigger for a notification. The returned
// ref identifies the schedule entry in the external system; the scheduler
// guarantees an eventual callback into the lifecycle at or after the given
// time.
type Scheduler interface {
	ScheduleAt(ctx context.Context, at time.Time, notificationID id.NotificationID) (ref string, err error)
}
