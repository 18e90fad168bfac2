package notification

import (
	"context"

	id "pretor/pkg/domain"
)

// Store persists notifications. Save returns sentinel.ErrConflict (wrapped)
// when a notification of the same kind already exists for the movimentation;
// lookups return sentinel.ErrNotFound (wrapped) when no row matches.
type Store interface {
	Save(ctx context.Context, notif *Notification) error
	Update(ctx context.Context, notif *Notification) error
	FindByID(ctx context.Context, notifID id.NotificationID) (*Notification, error)
	FindByMovimentationAndKind(ctx context.Context, movID id.MovimentationID, kind Kind) (*Notification, error)
	ListByMovimentation(ctx context.Context, movID id.MovimentationID) ([]*Notification, error)
}
