// Package devseed loads JSON seed files for the mock Open Cloud universe
// used by mock runtime mode and the sandbox binary.
package devseed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rbxkit/playerstore/pkg/opencloud"
	"github.com/rbxkit/playerstore/pkg/opencloud/mock"
)

// Seed describes the initial contents of a mock universe.
type Seed struct {
	Users   []UserSeed  `json:"users"`
	Entries []EntrySeed `json:"entries"`
}

// UserSeed maps a username to its numeric id.
type UserSeed struct {
	Username    string `json:"username"`
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// EntrySeed holds a pre-existing Data Store entry.
type EntrySeed struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// Load reads and validates a seed file.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("devseed: parse %s: %w", path, err)
	}
	for i, u := range seed.Users {
		if strings.TrimSpace(u.Username) == "" || u.ID <= 0 {
			return nil, fmt.Errorf("devseed: user %d needs username and positive id", i)
		}
	}
	for i, e := range seed.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("devseed: entry %d missing id", i)
		}
	}
	return &seed, nil
}

// Apply populates the universe with the seed's users and entries.
func (s *Seed) Apply(ctx context.Context, u *mock.Universe) error {
	for _, user := range s.Users {
		err := u.AddUser(opencloud.User{
			ID:          user.ID,
			Name:        user.Username,
			DisplayName: user.DisplayName,
		})
		if err != nil {
			return err
		}
	}
	for _, entry := range s.Entries {
		if _, err := u.PutEntry(ctx, entry.ID, entry.Value); err != nil {
			return err
		}
	}
	return nil
}
