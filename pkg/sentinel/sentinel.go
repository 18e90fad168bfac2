// Package sentinel holds the sentinel errors for infrastructure facts. Stores
// and infrastructure layers return these (optionally wrapped) so services can
// translate them into caller-facing errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in store or registry
//   - ErrConflict: entity already exists under the same external id
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: external collaborator temporarily unavailable
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
