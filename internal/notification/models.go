// Package notification owns the client-facing messages derived from
// movimentations: their rendering, persistence, delivery state machine and
// scheduling.
package notification

import (
	"time"

	id "pretor/pkg/domain"
)

// Status is the delivery state of a notification.
type Status string

const (
	StatusNotSent   Status = "NOT_SENT"
	StatusScheduled Status = "SCHEDULED"
	StatusWillRetry Status = "WILL_RETRY"
	StatusSent      Status = "SENT"
	StatusError     Status = "ERROR"
)

// Sendable reports whether a plain send attempt is allowed from this status.
// SCHEDULED rows are only sendable through the scheduler trigger path.
func (s Status) Sendable() bool {
	return s == StatusNotSent || s == StatusWillRetry
}

// ErrorCode classifies why a notification could not be delivered.
type ErrorCode string

const (
	CodeNoPhoneNumber ErrorCode = "NO_PHONE_NUMBER"
	CodeInvalidPhone  ErrorCode = "INVALID_PHONE"
	CodeNotOnWhatsapp ErrorCode = "PHONE_NOT_ON_WHATSAPP"
	CodeUnknownError  ErrorCode = "UNKNOWN_ERROR"
)

// Kind distinguishes the immediate notification from the pre-event reminder.
// At most one row of each kind exists per movimentation, enforced by a unique
// index on (movimentation_id, kind).
type Kind string

const (
	KindInitial  Kind = "INITIAL"
	KindReminder Kind = "REMINDER"
)

// Notification is one message owed to a client about a movimentation. The
// message body is rendered once at creation and immutable afterwards; only the
// delivery state fields change.
type Notification struct {
	ID              id.NotificationID
	MovimentationID id.MovimentationID
	ClientID        id.ClientID
	Kind            Kind
	Message         string
	Status          Status
	ErrorCode       ErrorCode  // set for ERROR and WILL_RETRY, empty otherwise
	ScheduleRef     string     // external scheduler reference, reminders only
	ScheduledAt     *time.Time // reminder trigger time
	SentAt          *time.Time
	CreatedAt       time.Time
}
