package registry

import "time"

// HearingKind classifies a scheduled event as listed by the registry.
type HearingKind string

const (
	KindHearing     HearingKind = "hearing"
	KindExamination HearingKind = "examination"
)

// Hearing is one scheduled event extracted from the registry's lawsuit page.
// Entries with a zero RegistryID, Date or LastModified are malformed and must
// be skipped by callers.
type Hearing struct {
	RegistryID   int64
	Kind         HearingKind
	Variant      string // sub-variant, e.g. "conciliation"
	Date         time.Time
	LastModified time.Time
	Link         string // remote attendance link, empty for in-person events
}

// LawsuitSummary is the search result for a CNJ lookup.
type LawsuitSummary struct {
	RegistryID       int64
	CNJ              string
	ClientRegistryID int64
	ClientName       string
}

// LawsuitInfo is the lawsuit detail bundle including its current hearings.
type LawsuitInfo struct {
	RegistryID       int64
	CNJ              string
	ClientRegistryID int64
	AdverseParty     string
	Hearings         []Hearing
}

// PublicationSummary is one entry of the registry's open-publication list.
type PublicationSummary struct {
	RegistryID     int64
	CNJ            string
	ExpeditionDate time.Time
}

// PublicationDetail is the expanded view of a single publication.
type PublicationDetail struct {
	RegistryID        int64
	CNJ               string
	ExpeditionDate    time.Time
	LawsuitRegistryID int64
	Description       string
}

// ClientInfo is the registry's view of a client.
type ClientInfo struct {
	RegistryID int64
	Name       string
	TaxID      string
	CellPhone  string // empty when the registry has no cell number on file
}
