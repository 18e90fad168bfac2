package scheduler

import (
	"context"
	"log/slog"
	"time"

	"pretor/internal/notification"
	id "pretor/pkg/domain"
)

// Sender is the lifecycle entry point invoked when a schedule fires.
type Sender interface {
	SendScheduled(ctx context.Context, notificationID id.NotificationID) (*notification.Notification, error)
}

// Queue yields due schedule entries. Implemented by RedisScheduler.
type Queue interface {
	Due(ctx context.Context, now time.Time) ([]id.NotificationID, error)
}

// Worker polls the schedule queue and fires due reminders. One notification's
// send failure never stops the poll loop.
type Worker struct {
	queue    Queue
	sender   Sender
	interval time.Duration
	logger   *slog.Logger
}

func NewWorker(queue Queue, sender Sender, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		sender:   sender,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.fireDue(ctx, time.Now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fireDue claims and sends every due entry.
func (w *Worker) fireDue(ctx context.Context, now time.Time) {
	due, err := w.queue.Due(ctx, now)
	if err != nil {
		w.logger.ErrorContext(ctx, "polling due schedules failed", "error", err)
		return
	}

	for _, notifID := range due {
		if _, err := w.sender.SendScheduled(ctx, notifID); err != nil {
			w.logger.ErrorContext(ctx, "scheduled send failed",
				"notification_id", notifID.String(),
				"error", err,
			)
		}
	}
}
