package notification

import "context"

//go:generate mockgen -source=channel.go -destination=mocks/channel.go -package=mocks

// Outcome is the delivery verdict of a channel send attempt.
type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeNotOnChannel Outcome = "not_on_channel"
	OutcomeInvalidPhone Outcome = "invalid_phone"
	OutcomeUnknown      Outcome = "unknown"
)

// SendResult is the tagged outcome of a send attempt. Channel implementations
// never return a Go error: every failure mode is an Outcome, with Detail
// carrying the diagnostic for unknown ones.
type SendResult struct {
	Outcome Outcome
	Detail  string
}

// Channel delivers a rendered message to a phone number.
type Channel interface {
	Send(ctx context.Context, phone, message string) SendResult
}
