package opencloud

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultScope is used when the namespace configuration omits a scope.
	DefaultScope = "global"
	// DefaultKeyPrefix prefixes player entry identifiers.
	DefaultKeyPrefix = "Player"
)

// Locator derives entry identifiers and resource paths from the configured
// Data Store namespace (universe, store, scope). It performs no I/O.
type Locator struct {
	UniverseID int64
	DataStore  string
	Scope      string
	KeyPrefix  string
}

// Validate reports malformed namespace configuration. Callers treat a
// failure here as startup-fatal.
func (l Locator) Validate() error {
	if l.UniverseID <= 0 {
		return errors.New("opencloud: universe id must be positive")
	}
	if strings.TrimSpace(l.DataStore) == "" {
		return errors.New("opencloud: data store name is required")
	}
	return nil
}

// EntryID returns the entry identifier for a resolved user:
// "<prefix>_<userID>".
func (l Locator) EntryID(userID int64) string {
	prefix := l.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s_%d", prefix, userID)
}

// EntryPath returns the v2 resource path for an entry identifier.
func (l Locator) EntryPath(entryID string) string {
	return fmt.Sprintf("/cloud/v2/universes/%d/data-stores/%s/scopes/%s/entries/%s",
		l.UniverseID,
		url.PathEscape(l.DataStore),
		url.PathEscape(l.scope()),
		url.PathEscape(entryID),
	)
}

func (l Locator) scope() string {
	if strings.TrimSpace(l.Scope) == "" {
		return DefaultScope
	}
	return l.Scope
}
