// Package lawsuit mirrors registry clients and lawsuits locally and keeps that
// mirror in sync with the portal.
package lawsuit

import (
	"time"

	id "pretor/pkg/domain"
)

// Client is the local mirror of a registry client. Created and updated only by
// the sync service, never deleted.
type Client struct {
	ID         id.ClientID
	RegistryID int64
	Name       string
	TaxID      string
	// Phones is ordered; the first entry is the primary number. Empty is a
	// valid state — the registry does not always have a cell number on file.
	Phones    []string
	CreatedAt time.Time
}

// PrimaryPhone returns the first phone number, or empty when the client has none.
func (c Client) PrimaryPhone() string {
	if len(c.Phones) == 0 {
		return ""
	}
	return c.Phones[0]
}

// Lawsuit is the local mirror of a registry lawsuit. The CNJ is the stable
// business key; the registry id is the stable sync key.
type Lawsuit struct {
	ID         id.LawsuitID
	RegistryID int64
	CNJ        string
	ClientID   id.ClientID
	CreatedAt  time.Time
}
