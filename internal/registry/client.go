// Package registry defines the contract with the external case-management
// portal and the session/retry policy applied to every call. The scraping
// mechanics live behind the Client interface; everything above it only sees
// typed records and categorized errors.
package registry

import "context"

//go:generate mockgen -source=client.go -destination=mocks/client.go -package=mocks

// Client is the authenticated portal client. Implementations must return
// *Error values so the retry layer can classify failures.
type Client interface {
	// SearchLawsuitByCNJ resolves a case number to its registry record.
	// Returns a not_found error when the registry has no such lawsuit.
	SearchLawsuitByCNJ(ctx context.Context, cnj string) (*LawsuitSummary, error)

	// GetLawsuitHearings lists the hearings currently shown for a lawsuit,
	// in registry order.
	GetLawsuitHearings(ctx context.Context, lawsuitRegistryID int64) ([]Hearing, error)

	// GetLawsuitInfo fetches the lawsuit detail bundle including hearings.
	GetLawsuitInfo(ctx context.Context, lawsuitRegistryID int64) (*LawsuitInfo, error)

	// ListOpenPublications lists every publication the registry still
	// considers open.
	ListOpenPublications(ctx context.Context) ([]PublicationSummary, error)

	// GetPublicationDetail expands a single publication.
	GetPublicationDetail(ctx context.Context, publicationRegistryID int64) (*PublicationDetail, error)

	// GetClientInfo fetches the registry's view of a client.
	GetClientInfo(ctx context.Context, clientRegistryID int64) (*ClientInfo, error)
}
