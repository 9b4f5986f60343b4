package playerdata

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the handle could not be resolved to a user. It is
// distinct from transport failures against the lookup service.
var ErrNotFound = errors.New("playerdata: player not found")

// ConflictError reports an optimistic-concurrency failure: the version the
// caller expected is no longer (or was never) the entry's current version.
// Callers are expected to refetch and retry; the coordinator never retries
// conflicts on its own.
type ConflictError struct {
	ExpectedETag string
	CurrentETag  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("playerdata: etag conflict (expected %q, current %q)", e.ExpectedETag, e.CurrentETag)
}

// BadRequestError reports a malformed patch request. It is raised before any
// remote call is made.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return "playerdata: bad request: " + e.Reason
}
