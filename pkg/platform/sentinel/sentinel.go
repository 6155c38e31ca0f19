package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: document does not exist
//   - ErrInvalidState: document is in the wrong state for the operation
//     (for example a base applicant that is already linked)
//   - ErrUnavailable: backing service temporarily unavailable
//
// Payload and rule failures belong in pkg/domain-errors instead.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
