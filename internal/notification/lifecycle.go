package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pretor/internal/lawsuit"
	"pretor/internal/movimentation"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// ErrReminderInPast is returned by CreateReminder when the computed trigger
// time has already passed. Callers must treat it as expected for events too
// close or already over, not as a failure of the run.
var ErrReminderInPast = errors.New("reminder time already in the past")

// ClientSyncer refreshes the local client mirror from the registry.
// Implemented by lawsuit.SyncService.
type ClientSyncer interface {
	SyncClient(ctx context.Context, registryID int64) (*lawsuit.Client, error)
}

// Lifecycle owns notification creation and the delivery state machine.
type Lifecycle struct {
	store        Store
	movs         movimentation.Store
	lawsuits     lawsuit.Store
	clients      ClientSyncer
	renderer     *Renderer
	channel      Channel
	scheduler    Scheduler
	reminderLead time.Duration
	logger       *slog.Logger
	metrics      *Metrics
	now          func() time.Time
}

func NewLifecycle(
	store Store,
	movs movimentation.Store,
	lawsuits lawsuit.Store,
	clients ClientSyncer,
	renderer *Renderer,
	channel Channel,
	scheduler Scheduler,
	reminderLead time.Duration,
	logger *slog.Logger,
	metrics *Metrics,
) *Lifecycle {
	return &Lifecycle{
		store:        store,
		movs:         movs,
		lawsuits:     lawsuits,
		clients:      clients,
		renderer:     renderer,
		channel:      channel,
		scheduler:    scheduler,
		reminderLead: reminderLead,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// bundle is a movimentation with its owning lawsuit and client loaded.
type bundle struct {
	mov    *movimentation.Movimentation
	suit   *lawsuit.Lawsuit
	client *lawsuit.Client
}

func (l *Lifecycle) loadBundle(ctx context.Context, movID id.MovimentationID) (*bundle, error) {
	mov, err := l.movs.FindByID(ctx, movID)
	if err != nil {
		return nil, fmt.Errorf("lookup movimentation %s: %w", movID, err)
	}
	suit, err := l.lawsuits.FindLawsuitByID(ctx, mov.LawsuitID)
	if err != nil {
		return nil, fmt.Errorf("lookup lawsuit %s: %w", mov.LawsuitID, err)
	}
	client, err := l.lawsuits.FindClientByID(ctx, suit.ClientID)
	if err != nil {
		return nil, fmt.Errorf("lookup client %s: %w", suit.ClientID, err)
	}
	return &bundle{mov: mov, suit: suit, client: client}, nil
}

func (l *Lifecycle) messageData(b *bundle) MessageData {
	return MessageData{
		FirstName: FirstName(b.client.Name),
		CNJ:       b.suit.CNJ,
		When:      FormatWhen(b.mov.Date),
		Link:      b.mov.Link,
	}
}

// CreateInitial renders and stores the immediate notification for a
// movimentation. Returns nil without error when the movimentation's
// sub-variant suppresses notifications. Creation is idempotent: when a
// concurrent run wins the race, the existing row is returned.
func (l *Lifecycle) CreateInitial(ctx context.Context, movID id.MovimentationID) (*Notification, error) {
	b, err := l.loadBundle(ctx, movID)
	if err != nil {
		return nil, err
	}
	if b.mov.SuppressesNotifications() {
		l.metrics.IncrementSuppressed()
		return nil, nil
	}

	message, err := l.renderer.Initial(b.mov.Kind, b.mov.Link != "", l.messageData(b))
	if err != nil {
		return nil, err
	}

	notif := &Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: movID,
		ClientID:        b.client.ID,
		Kind:            KindInitial,
		Message:         message,
		Status:          StatusNotSent,
	}
	if err := l.store.Save(ctx, notif); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return l.store.FindByMovimentationAndKind(ctx, movID, KindInitial)
		}
		return nil, fmt.Errorf("create initial notification: %w", err)
	}
	l.metrics.IncrementCreated(KindInitial)
	return notif, nil
}

// CreateReminder creates the pre-event reminder and arranges its future
// trigger. Returns ErrReminderInPast when the event is too close. The row is
// created NOT_SENT first and promoted to SCHEDULED once the scheduler accepts
// the trigger; a scheduler failure leaves it NOT_SENT so a later pass can
// deliver it immediately instead.
func (l *Lifecycle) CreateReminder(ctx context.Context, movID id.MovimentationID) (*Notification, error) {
	b, err := l.loadBundle(ctx, movID)
	if err != nil {
		return nil, err
	}
	if b.mov.SuppressesNotifications() {
		l.metrics.IncrementSuppressed()
		return nil, nil
	}

	scheduledAt := b.mov.Date.Add(-l.reminderLead)
	if !scheduledAt.After(l.now()) {
		return nil, fmt.Errorf("reminder for movimentation %s at %s: %w",
			movID, scheduledAt.Format(time.RFC3339), ErrReminderInPast)
	}

	data := l.messageData(b)
	data.Weeks = int(l.reminderLead / (7 * 24 * time.Hour))
	message, err := l.renderer.Reminder(b.mov.Kind, data)
	if err != nil {
		return nil, err
	}

	notif := &Notification{
		ID:              id.NewNotificationID(),
		MovimentationID: movID,
		ClientID:        b.client.ID,
		Kind:            KindReminder,
		Message:         message,
		Status:          StatusNotSent,
		ScheduledAt:     &scheduledAt,
	}
	if err := l.store.Save(ctx, notif); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return l.store.FindByMovimentationAndKind(ctx, movID, KindReminder)
		}
		return nil, fmt.Errorf("create reminder notification: %w", err)
	}
	l.metrics.IncrementCreated(KindReminder)

	ref, err := l.scheduler.ScheduleAt(ctx, scheduledAt, notif.ID)
	if err != nil {
		l.logger.ErrorContext(ctx, "scheduling reminder failed, leaving it ready for direct send",
			"notification_id", notif.ID.String(),
			"error", err,
		)
		return notif, nil
	}

	notif.Status = StatusScheduled
	notif.ScheduleRef = ref
	if err := l.store.Update(ctx, notif); err != nil {
		return nil, fmt.Errorf("promote reminder to scheduled: %w", err)
	}
	return notif, nil
}

// Send attempts delivery of a NOT_SENT or WILL_RETRY notification. Any other
// status is an invalid transition. The returned notification carries the
// resulting status; a non-nil error accompanies terminal no-phone failures.
func (l *Lifecycle) Send(ctx context.Context, notifID id.NotificationID) (*Notification, error) {
	notif, err := l.store.FindByID(ctx, notifID)
	if err != nil {
		return nil, fmt.Errorf("lookup notification %s: %w", notifID, err)
	}
	if !notif.Status.Sendable() {
		return nil, fmt.Errorf("send notification %s in status %s: %w",
			notifID, notif.Status, sentinel.ErrInvalidState)
	}
	return l.attempt(ctx, notif)
}

// SendScheduled is the scheduler trigger entry point. A fired SCHEDULED
// notification behaves exactly like a NOT_SENT send attempt; the plain guard
// still applies to every other status.
func (l *Lifecycle) SendScheduled(ctx context.Context, notifID id.NotificationID) (*Notification, error) {
	notif, err := l.store.FindByID(ctx, notifID)
	if err != nil {
		return nil, fmt.Errorf("lookup notification %s: %w", notifID, err)
	}
	if !notif.Status.Sendable() && notif.Status != StatusScheduled {
		return nil, fmt.Errorf("send notification %s in status %s: %w",
			notifID, notif.Status, sentinel.ErrInvalidState)
	}
	return l.attempt(ctx, notif)
}

func (l *Lifecycle) attempt(ctx context.Context, notif *Notification) (*Notification, error) {
	phone, err := l.resolvePhone(ctx, notif)
	if err != nil {
		// Store failure, not a fact about the client. Leave the status
		// untouched so a later pass retries the send.
		return nil, err
	}
	if phone == "" {
		if err := l.transition(ctx, notif, StatusError, CodeNoPhoneNumber); err != nil {
			return nil, err
		}
		return notif, fmt.Errorf("notification %s: client has no phone number", notif.ID)
	}

	result := l.channel.Send(ctx, phone, notif.Message)
	l.metrics.IncrementSendAttempt(result.Outcome)

	switch result.Outcome {
	case OutcomeSent:
		now := l.now()
		notif.SentAt = &now
		if err := l.transition(ctx, notif, StatusSent, ""); err != nil {
			return nil, err
		}

	case OutcomeNotOnChannel:
		if err := l.transition(ctx, notif, StatusError, CodeNotOnWhatsapp); err != nil {
			return nil, err
		}

	case OutcomeInvalidPhone:
		if err := l.transition(ctx, notif, StatusError, CodeInvalidPhone); err != nil {
			return nil, err
		}

	default:
		l.logger.WarnContext(ctx, "channel send failed, will retry on a later pass",
			"notification_id", notif.ID.String(),
			"detail", result.Detail,
		)
		if err := l.transition(ctx, notif, StatusWillRetry, CodeUnknownError); err != nil {
			return nil, err
		}
	}
	return notif, nil
}

// resolvePhone returns the client's primary phone, refreshing the local
// mirror from the registry first. A failed refresh is logged and the stale
// phone list is used instead; a failed local load is returned as an error so
// the caller does not mistake it for a client without a phone.
func (l *Lifecycle) resolvePhone(ctx context.Context, notif *Notification) (string, error) {
	client, err := l.lawsuits.FindClientByID(ctx, notif.ClientID)
	if err != nil {
		return "", fmt.Errorf("lookup client %s before send: %w", notif.ClientID, err)
	}

	refreshed, err := l.clients.SyncClient(ctx, client.RegistryID)
	if err != nil {
		l.logger.WarnContext(ctx, "client resync before send failed, using stale phones",
			"client_id", client.ID.String(),
			"error", err,
		)
		return client.PrimaryPhone(), nil
	}
	return refreshed.PrimaryPhone(), nil
}

func (l *Lifecycle) transition(ctx context.Context, notif *Notification, status Status, code ErrorCode) error {
	notif.Status = status
	notif.ErrorCode = code
	if status != StatusSent {
		notif.SentAt = nil
	}
	if err := l.store.Update(ctx, notif); err != nil {
		return fmt.Errorf("persist notification transition to %s: %w", status, err)
	}
	return nil
}
