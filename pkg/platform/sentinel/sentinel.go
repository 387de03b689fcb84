package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrConflict: optimistic write rejected, record version moved underneath
// - ErrAlreadyUsed: identifier already taken
// - ErrInvalidState: stored record cannot be decoded into its model
// - ErrUnavailable: store unreachable or timed out
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
