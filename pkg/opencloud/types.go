package opencloud

import (
	"encoding/json"
	"errors"
)

// Entry is a Data Store entry as exposed by the Open Cloud v2 entry resource.
// ETag changes on every successful write; RevisionID is informational.
type Entry struct {
	Path               string          `json:"path,omitempty"`
	ID                 string          `json:"id,omitempty"`
	Value              json.RawMessage `json:"value,omitempty"`
	ETag               string          `json:"etag,omitempty"`
	RevisionID         string          `json:"revisionId,omitempty"`
	CreateTime         string          `json:"createTime,omitempty"`
	RevisionCreateTime string          `json:"revisionCreateTime,omitempty"`
	State              string          `json:"state,omitempty"`
}

// User is a resolved usernames-lookup record.
type User struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	DisplayName       string `json:"displayName"`
	RequestedUsername string `json:"requestedUsername"`
}

var (
	// ErrUserNotFound is returned when the usernames lookup matches nothing.
	ErrUserNotFound = errors.New("opencloud: user not found")
	// ErrPreconditionFailed signals that a conditional write lost the race:
	// the entry's stored etag no longer matches the supplied precondition.
	ErrPreconditionFailed = errors.New("opencloud: precondition failed")
)
