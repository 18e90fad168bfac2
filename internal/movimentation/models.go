// Package movimentation mirrors the registry's scheduled events (hearings and
// expert examinations) and derives new ones from publication diffs.
package movimentation

import (
	"time"

	"pretor/internal/registry"
	id "pretor/pkg/domain"
)

// Kind classifies a movimentation.
type Kind string

const (
	KindHearing     Kind = "HEARING"
	KindExamination Kind = "EXAMINATION"
)

// KindFromHearing maps a registry hearing kind onto the local enum.
func KindFromHearing(kind registry.HearingKind) Kind {
	if kind == registry.KindExamination {
		return KindExamination
	}
	return KindHearing
}

// VariantConciliation marks conciliation hearings. Clients are not notified
// about those.
const VariantConciliation = "conciliation"

// Movimentation is a concrete scheduled event tied to a lawsuit. Rows are
// created once per registry id and immutable afterwards except for the Active
// flag, which follows the registry on every resync.
type Movimentation struct {
	ID           id.MovimentationID
	RegistryID   int64
	LawsuitID    id.LawsuitID
	Kind         Kind
	Variant      string
	Date         time.Time // when the event takes place
	LastModified time.Time // registry modification stamp that produced it
	Active       bool
	Link         string // remote attendance link, empty for in-person events
	CreatedAt    time.Time
}

// SuppressesNotifications reports whether this movimentation must not notify
// the client.
func (m Movimentation) SuppressesNotifications() bool {
	return m.Variant == VariantConciliation
}
