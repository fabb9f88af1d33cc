package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Storage backends return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: no record under the key
//   - ErrConflict: an optimistic write lost a race and may be retried
//   - ErrCorrupt: a stored record could not be decoded
//   - ErrUnavailable: backend unreachable or closed
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrCorrupt     = errors.New("corrupt record")
	ErrUnavailable = errors.New("unavailable")
)
