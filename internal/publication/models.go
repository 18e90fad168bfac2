// Package publication mirrors the registry's open items. A publication is
// watched until it disappears from the registry's open list, at which point
// the reconciliation engine derives the movimentation it produced.
package publication

import (
	"time"

	id "pretor/pkg/domain"
)

// Publication is a registry open item under watch. Treated is set once the
// closed publication has been processed, whether or not a movimentation could
// be matched — that is what stops reprocessing on the next run.
type Publication struct {
	ID              id.PublicationID
	RegistryID      int64
	LawsuitID       id.LawsuitID
	MovimentationID *id.MovimentationID // set when a derived movimentation was matched
	ExpeditionDate  time.Time
	Treated         bool
	CreatedAt       time.Time
}
