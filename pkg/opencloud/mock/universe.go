// Package mock implements an in-memory stand-in for the two Open Cloud
// surfaces the service consumes: usernames lookup and Data Store entries
// with etag/revision bookkeeping. Universe holds the state; Handler exposes
// it over the same REST layout as the real services so the regular clients
// can be pointed at it unchanged.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbxkit/playerstore/pkg/opencloud"
)

// ErrEntryNotFound is returned when an entry id has never been seeded.
var ErrEntryNotFound = errors.New("mock opencloud: entry not found")

type entry struct {
	value              []byte
	etag               string
	revisionID         string
	createTime         time.Time
	revisionCreateTime time.Time
}

// Universe is an in-memory users + entries store. Safe for concurrent use.
type Universe struct {
	mu      sync.RWMutex
	users   map[string]opencloud.User
	entries map[string]*entry
	now     func() time.Time
}

// Option configures a Universe.
type Option func(*Universe)

// WithClock overrides the clock used for create/revision timestamps.
func WithClock(fn func() time.Time) Option {
	return func(u *Universe) {
		if fn != nil {
			u.now = fn
		}
	}
}

// NewUniverse creates an empty mock universe.
func NewUniverse(opts ...Option) *Universe {
	u := &Universe{
		users:   make(map[string]opencloud.User),
		entries: make(map[string]*entry),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// AddUser registers a username → id mapping.
func (u *Universe) AddUser(user opencloud.User) error {
	if strings.TrimSpace(user.Name) == "" {
		return errors.New("mock opencloud: user name is required")
	}
	if user.ID <= 0 {
		return fmt.Errorf("mock opencloud: user %q needs a positive id", user.Name)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[strings.ToLower(user.Name)] = user
	return nil
}

// ResolveUsername matches a username case-insensitively, like the real
// lookup service.
func (u *Universe) ResolveUsername(ctx context.Context, username string) (*opencloud.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, opencloud.ErrUserNotFound
	}
	out := user
	out.RequestedUsername = username
	return &out, nil
}

// PutEntry seeds or unconditionally replaces an entry, minting a fresh etag
// and revision id.
func (u *Universe) PutEntry(ctx context.Context, entryID string, value json.RawMessage) (*opencloud.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(entryID) == "" {
		return nil, errors.New("mock opencloud: entry id is required")
	}
	data := append([]byte(nil), value...)
	if len(data) == 0 {
		data = []byte("null")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := u.now()
	ent, exists := u.entries[entryID]
	if !exists {
		ent = &entry{createTime: now}
		u.entries[entryID] = ent
	}
	ent.value = data
	ent.etag = uuid.NewString()
	ent.revisionID = uuid.NewString()
	ent.revisionCreateTime = now
	return u.snapshot(entryID, ent), nil
}

// GetEntry returns the current representation of an entry.
func (u *Universe) GetEntry(ctx context.Context, entryID string) (*opencloud.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	ent, ok := u.entries[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return u.snapshot(entryID, ent), nil
}

// UpdateEntry conditionally replaces an entry's value. A non-empty etag that
// differs from the stored one fails with opencloud.ErrPreconditionFailed and
// leaves the entry untouched. Entries are never created here; the remote
// store owns entry creation and so does the seeded universe.
func (u *Universe) UpdateEntry(ctx context.Context, entryID string, value json.RawMessage, etag string) (*opencloud.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	ent, ok := u.entries[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	if etag != "" && etag != ent.etag {
		return nil, opencloud.ErrPreconditionFailed
	}

	data := append([]byte(nil), value...)
	if len(data) == 0 {
		data = []byte("null")
	}
	ent.value = data
	ent.etag = uuid.NewString()
	ent.revisionID = uuid.NewString()
	ent.revisionCreateTime = u.now()
	return u.snapshot(entryID, ent), nil
}

// ETag reports the current etag for an entry, for test assertions.
func (u *Universe) ETag(entryID string) string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if ent, ok := u.entries[entryID]; ok {
		return ent.etag
	}
	return ""
}

func (u *Universe) snapshot(entryID string, ent *entry) *opencloud.Entry {
	return &opencloud.Entry{
		ID:                 entryID,
		Value:              append(json.RawMessage(nil), ent.value...),
		ETag:               ent.etag,
		RevisionID:         ent.revisionID,
		CreateTime:         ent.createTime.Format(time.RFC3339Nano),
		RevisionCreateTime: ent.revisionCreateTime.Format(time.RFC3339Nano),
		State:              "ACTIVE",
	}
}
