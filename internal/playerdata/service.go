// Package playerdata orchestrates the read and optimistic-write paths for a
// single player's Data Store entry: resolve the handle, fetch the current
// entry, check the caller's etag precondition, apply a path-scoped patch,
// and issue a conditional write using the freshest known etag.
package playerdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/pslog"

	"github.com/rbxkit/playerstore/internal/docpath"
	"github.com/rbxkit/playerstore/pkg/opencloud"
)

// DefaultMutableRoot is the reserved top-level key clients are allowed to
// patch under. Everything outside it (metadata, bookkeeping fields) is
// off-limits to client-supplied patches.
const DefaultMutableRoot = "Data"

// Resolver maps a username to a user record. Implemented by opencloud.Users.
type Resolver interface {
	ResolveUsername(ctx context.Context, username string) (*opencloud.User, error)
}

// EntryStore reads and conditionally replaces Data Store entries.
// Implemented by opencloud.DataStore.
type EntryStore interface {
	GetEntry(ctx context.Context, entryID string) (*opencloud.Entry, error)
	UpdateEntry(ctx context.Context, entryID string, value any, etag string) (*opencloud.Entry, error)
	Locator() opencloud.Locator
}

// Service is the coordinator. It holds no per-request state; correctness
// under concurrent writers is delegated to the remote conditional write.
type Service struct {
	resolver    Resolver
	store       EntryStore
	mutableRoot string
	logger      pslog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMutableRoot overrides the reserved top-level key.
func WithMutableRoot(key string) Option {
	return func(s *Service) {
		if strings.TrimSpace(key) != "" {
			s.mutableRoot = key
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger pslog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service.
func New(resolver Resolver, store EntryStore, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("playerdata: resolver is required")
	}
	if store == nil {
		return nil, errors.New("playerdata: entry store is required")
	}
	s := &Service{
		resolver:    resolver,
		store:       store,
		mutableRoot: DefaultMutableRoot,
		logger:      pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Player combines the resolved identity with the entry's current
// representation.
type Player struct {
	Username string           `json:"username"`
	UserID   int64            `json:"userId"`
	EntryID  string           `json:"entryId"`
	Data     *opencloud.Entry `json:"data"`
}

// SectionPatch is a caller-supplied request to replace one subtree of the
// player's document.
type SectionPatch struct {
	ExpectedETag string   `json:"expectedEtag"`
	EditPath     []string `json:"editPath"`
	Value        any      `json:"value"`
}

// UpdateResult is the outcome of a successful conditional write.
type UpdateResult struct {
	EntryID string           `json:"entryId"`
	Updated *opencloud.Entry `json:"updated"`
}

// Read resolves the handle and fetches the player's current entry.
func (s *Service) Read(ctx context.Context, handle string) (*Player, error) {
	user, entryID, err := s.locate(ctx, handle)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("playerdata.read", "handle", handle, "entry", entryID, "etag", entry.ETag)
	return &Player{
		Username: user.Name,
		UserID:   user.ID,
		EntryID:  entryID,
		Data:     entry,
	}, nil
}

// SetSection applies the patch to the player's entry under optimistic
// concurrency control. The sequence is strictly: validate path (no network),
// resolve, fetch current, pre-check the caller's expected etag, patch, then
// write conditionally using the just-fetched etag. The fetched etag is
// always the write precondition, even when the caller supplied their own:
// the pre-check gives the caller an early, cheaper rejection, while the
// fetched token guards against changes the caller has never seen.
func (s *Service) SetSection(ctx context.Context, handle string, patch SectionPatch) (*UpdateResult, error) {
	if err := s.validateEditPath(patch.EditPath); err != nil {
		return nil, err
	}

	_, entryID, err := s.locate(ctx, handle)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if patch.ExpectedETag != "" && entry.ETag != "" && patch.ExpectedETag != entry.ETag {
		s.logger.Warn("playerdata.write.conflict",
			"entry", entryID, "expected", patch.ExpectedETag, "current", entry.ETag)
		return nil, &ConflictError{ExpectedETag: patch.ExpectedETag, CurrentETag: entry.ETag}
	}

	next, err := docpath.Set(decodeDocument(entry.Value), patch.EditPath, patch.Value)
	if err != nil {
		return nil, &BadRequestError{Reason: err.Error()}
	}

	updated, err := s.store.UpdateEntry(ctx, entryID, next, entry.ETag)
	if err != nil {
		if errors.Is(err, opencloud.ErrPreconditionFailed) {
			// Lost a race between fetch and write.
			expected := patch.ExpectedETag
			if expected == "" {
				expected = entry.ETag
			}
			s.logger.Warn("playerdata.write.race_lost", "entry", entryID, "expected", expected)
			return nil, &ConflictError{ExpectedETag: expected}
		}
		return nil, err
	}

	s.logger.Info("playerdata.write",
		"entry", entryID, "path", strings.Join(patch.EditPath, "."), "etag", updated.ETag)
	return &UpdateResult{EntryID: entryID, Updated: updated}, nil
}

// MutableRoot exposes the reserved top-level key.
func (s *Service) MutableRoot() string {
	return s.mutableRoot
}

func (s *Service) locate(ctx context.Context, handle string) (*opencloud.User, string, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, "", &BadRequestError{Reason: "handle is required"}
	}
	user, err := s.resolver.ResolveUsername(ctx, handle)
	if err != nil {
		if errors.Is(err, opencloud.ErrUserNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return user, s.store.Locator().EntryID(user.ID), nil
}

func (s *Service) validateEditPath(path []string) error {
	if len(path) == 0 {
		return &BadRequestError{Reason: "editPath is required"}
	}
	if path[0] != s.mutableRoot {
		return &BadRequestError{
			Reason: fmt.Sprintf("editPath must start at the %q section", s.mutableRoot),
		}
	}
	for i, seg := range path {
		if seg == "" {
			return &BadRequestError{Reason: fmt.Sprintf("editPath segment %d is empty", i)}
		}
	}
	return nil
}

// decodeDocument interprets the stored value as a JSON object. Anything else
// (null, scalar, array, malformed) patches against a fresh empty document,
// matching the destructive container rule applied to intermediate path
// segments.
func decodeDocument(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return map[string]any{}
	}
	return doc
}
