package opencloud

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rbxkit/playerstore/internal/httpx"
)

// Users resolves human-readable usernames to stable numeric user IDs via the
// usernames lookup service. Results are never cached; each call hits the
// remote service.
type Users struct {
	client *httpx.Client
}

// NewUsers constructs a resolver bound to the users API base URL.
func NewUsers(baseURL string, opts ...httpx.Option) (*Users, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewUsersWithClient(cl)
}

// NewUsersWithClient wraps an existing httpx.Client.
func NewUsersWithClient(client *httpx.Client) (*Users, error) {
	if client == nil {
		return nil, errors.New("opencloud: httpx client is required")
	}
	return &Users{client: client}, nil
}

// ResolveUsername looks up a single username. A lookup that succeeds but
// matches no user returns ErrUserNotFound, which callers must keep distinct
// from transport failures.
func (u *Users) ResolveUsername(ctx context.Context, username string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("opencloud: username is required")
	}

	body, err := httpx.JSONBody(map[string]any{
		"usernames":          []string{username},
		"excludeBannedUsers": false,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []User `json:"data"`
	}
	err = u.client.DoJSON(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   "/v1/usernames/users",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, ErrUserNotFound
	}
	user := result.Data[0]
	return &user, nil
}
