package opencloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rbxkit/playerstore/internal/httpx"
)

// DataStore reads and conditionally replaces entries in a single Data Store
// namespace.
type DataStore struct {
	client  *httpx.Client
	locator Locator
}

// NewDataStore constructs a client bound to the Open Cloud base URL. The API
// key is attached to every request via the x-api-key header.
func NewDataStore(baseURL, apiKey string, locator Locator, opts ...httpx.Option) (*DataStore, error) {
	if err := locator.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) != "" {
		opts = append(opts, httpx.WithHeader("x-api-key", apiKey))
	}
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &DataStore{client: cl, locator: locator}, nil
}

// NewDataStoreWithClient wraps an existing httpx.Client.
func NewDataStoreWithClient(client *httpx.Client, locator Locator) (*DataStore, error) {
	if err := locator.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("opencloud: httpx client is required")
	}
	return &DataStore{client: client, locator: locator}, nil
}

// Locator exposes the namespace configuration the client was built with.
func (d *DataStore) Locator() Locator {
	return d.locator
}

// GetEntry fetches the current representation of an entry, including its
// etag and revision id.
func (d *DataStore) GetEntry(ctx context.Context, entryID string) (*Entry, error) {
	if strings.TrimSpace(entryID) == "" {
		return nil, errors.New("opencloud: entry id is required")
	}
	var entry Entry
	err := d.client.DoJSON(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   d.locator.EntryPath(entryID),
	}, &entry)
	if err != nil {
		return nil, err
	}
	if entry.ID == "" {
		entry.ID = entryID
	}
	return &entry, nil
}

// UpdateEntry replaces the entry's value, conditional on etag. The remote
// service rejects the write when the stored etag differs; that outcome is
// surfaced as ErrPreconditionFailed. Retrying a rejected conditional write
// with the same stale etag fails identically, so the transient-retry path in
// httpx remains safe for this method.
func (d *DataStore) UpdateEntry(ctx context.Context, entryID string, value any, etag string) (*Entry, error) {
	if strings.TrimSpace(entryID) == "" {
		return nil, errors.New("opencloud: entry id is required")
	}

	payload := map[string]any{"value": value}
	if etag != "" {
		payload["etag"] = etag
	}
	body, err := httpx.JSONBody(payload)
	if err != nil {
		return nil, fmt.Errorf("opencloud: encode entry value: %w", err)
	}

	var entry Entry
	err = d.client.DoJSON(ctx, &httpx.Request{
		Method: http.MethodPatch,
		Path:   d.locator.EntryPath(entryID),
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, &entry)
	if err != nil {
		var httpErr *httpx.HTTPError
		if errors.As(err, &httpErr) && isConflictStatus(httpErr.StatusCode) {
			return nil, fmt.Errorf("%w: %v", ErrPreconditionFailed, err)
		}
		return nil, err
	}
	if entry.ID == "" {
		entry.ID = entryID
	}
	return &entry, nil
}

func isConflictStatus(status int) bool {
	return status == http.StatusConflict || status == http.StatusPreconditionFailed
}
