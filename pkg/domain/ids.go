// Package domain holds the typed identifiers shared across modules. Typed IDs
// prevent cross-entity assignment at compile time; parse helpers enforce the
// "valid, non-empty, non-nil" invariant at trust boundaries.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	ClientID        uuid.UUID
	LawsuitID       uuid.UUID
	MovimentationID uuid.UUID
	PublicationID   uuid.UUID
	NotificationID  uuid.UUID
	ExecutionID     uuid.UUID
	SnapshotID      uuid.UUID
)

func NewClientID() ClientID               { return ClientID(uuid.New()) }
func NewLawsuitID() LawsuitID             { return LawsuitID(uuid.New()) }
func NewMovimentationID() MovimentationID { return MovimentationID(uuid.New()) }
func NewPublicationID() PublicationID     { return PublicationID(uuid.New()) }
func NewNotificationID() NotificationID   { return NotificationID(uuid.New()) }
func NewExecutionID() ExecutionID         { return ExecutionID(uuid.New()) }
func NewSnapshotID() SnapshotID           { return SnapshotID(uuid.New()) }

func (id ClientID) String() string        { return uuid.UUID(id).String() }
func (id LawsuitID) String() string       { return uuid.UUID(id).String() }
func (id MovimentationID) String() string { return uuid.UUID(id).String() }
func (id PublicationID) String() string   { return uuid.UUID(id).String() }
func (id NotificationID) String() string  { return uuid.UUID(id).String() }
func (id ExecutionID) String() string     { return uuid.UUID(id).String() }
func (id SnapshotID) String() string      { return uuid.UUID(id).String() }

func (id ClientID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id LawsuitID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id MovimentationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PublicationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ExecutionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("id must not be the nil uuid")
	}
	return u, nil
}

func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s)
	return ClientID(u), err
}

func ParseLawsuitID(s string) (LawsuitID, error) {
	u, err := parseUUID(s)
	return LawsuitID(u), err
}

func ParseMovimentationID(s string) (MovimentationID, error) {
	u, err := parseUUID(s)
	return MovimentationID(u), err
}

func ParsePublicationID(s string) (PublicationID, error) {
	u, err := parseUUID(s)
	return PublicationID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	return NotificationID(u), err
}

func ParseExecutionID(s string) (ExecutionID, error) {
	u, err := parseUUID(s)
	return ExecutionID(u), err
}

func ParseSnapshotID(s string) (SnapshotID, error) {
	u, err := parseUUID(s)
	return SnapshotID(u), err
}
