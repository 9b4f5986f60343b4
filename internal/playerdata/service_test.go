package playerdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/rbxkit/playerstore/internal/httpx"
	"github.com/rbxkit/playerstore/pkg/opencloud"
)

type fakeResolver struct {
	users map[string]int64
	calls int
	err   error
}

func (f *fakeResolver) ResolveUsername(ctx context.Context, username string) (*opencloud.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.users[username]
	if !ok {
		return nil, opencloud.ErrUserNotFound
	}
	return &opencloud.User{ID: id, Name: username}, nil
}

type fakeStore struct {
	locator opencloud.Locator
	entries map[string]*opencloud.Entry

	getCalls    int
	updateCalls int

	lastUpdateEntryID string
	lastUpdateValue   any
	lastUpdateETag    string

	getErr    error
	updateErr error
	nextETag  string
}

func (f *fakeStore) Locator() opencloud.Locator {
	return f.locator
}

func (f *fakeStore) GetEntry(ctx context.Context, entryID string) (*opencloud.Entry, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[entryID]
	if !ok {
		return nil, &httpx.HTTPError{StatusCode: http.StatusNotFound}
	}
	cp := *entry
	return &cp, nil
}

func (f *fakeStore) UpdateEntry(ctx context.Context, entryID string, value any, etag string) (*opencloud.Entry, error) {
	f.updateCalls++
	f.lastUpdateEntryID = entryID
	f.lastUpdateValue = value
	f.lastUpdateETag = etag
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	entry, ok := f.entries[entryID]
	if !ok {
		return nil, &httpx.HTTPError{StatusCode: http.StatusNotFound}
	}
	if etag != "" && etag != entry.ETag {
		return nil, opencloud.ErrPreconditionFailed
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	entry.Value = raw
	entry.ETag = f.nextETag
	cp := *entry
	return &cp, nil
}

func newFixture(t *testing.T) (*Service, *fakeResolver, *fakeStore) {
	t.Helper()
	resolver := &fakeResolver{users: map[string]int64{"Alice": 42}}
	store := &fakeStore{
		locator: opencloud.Locator{UniverseID: 1, DataStore: "PlayerData"},
		entries: map[string]*opencloud.Entry{
			"Player_42": {
				ID:         "Player_42",
				Value:      json.RawMessage(`{"Data":{"Gold":10}}`),
				ETag:       "v1",
				RevisionID: "r1",
			},
		},
		nextETag: "v2",
	}
	svc, err := New(resolver, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, resolver, store
}

func TestSetSectionAppliesPatchWithFetchedETag(t *testing.T) {
	svc, _, store := newFixture(t)

	result, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		ExpectedETag: "v1",
		EditPath:     []string{"Data", "Gold"},
		Value:        20,
	})
	if err != nil {
		t.Fatalf("SetSection: %v", err)
	}

	if store.lastUpdateETag != "v1" {
		t.Fatalf("write precondition = %q, want fetched etag v1", store.lastUpdateETag)
	}
	raw, _ := json.Marshal(store.lastUpdateValue)
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode written value: %v", err)
	}
	want := map[string]any{"Data": map[string]any{"Gold": float64(20)}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("written value %#v, want %#v", got, want)
	}
	if result.EntryID != "Player_42" {
		t.Fatalf("entry id %q", result.EntryID)
	}
	if result.Updated.ETag != "v2" {
		t.Fatalf("updated etag %q, want v2", result.Updated.ETag)
	}
}

func TestSetSectionWritesWithFetchedETagWhenCallerOmitsOne(t *testing.T) {
	svc, _, store := newFixture(t)

	if _, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		EditPath: []string{"Data", "Gold"},
		Value:    30,
	}); err != nil {
		t.Fatalf("SetSection: %v", err)
	}
	if store.lastUpdateETag != "v1" {
		t.Fatalf("write precondition = %q, want v1 even without caller etag", store.lastUpdateETag)
	}
}

func TestSetSectionStaleETagConflictsBeforeWrite(t *testing.T) {
	svc, _, store := newFixture(t)

	_, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		ExpectedETag: "v0",
		EditPath:     []string{"Data", "Gold"},
		Value:        20,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.ExpectedETag != "v0" || conflict.CurrentETag != "v1" {
		t.Fatalf("conflict payload %+v", conflict)
	}
	if store.updateCalls != 0 {
		t.Fatalf("write endpoint called %d times, want 0", store.updateCalls)
	}
}

func TestSetSectionRejectsPathOutsideMutableRoot(t *testing.T) {
	svc, resolver, store := newFixture(t)

	_, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		EditPath: []string{"MetaData", "X"},
		Value:    1,
	})
	var badReq *BadRequestError
	if !errors.As(err, &badReq) {
		t.Fatalf("expected *BadRequestError, got %v", err)
	}
	if resolver.calls != 0 || store.getCalls != 0 || store.updateCalls != 0 {
		t.Fatalf("remote calls made for invalid path: resolve=%d get=%d update=%d",
			resolver.calls, store.getCalls, store.updateCalls)
	}
}

func TestSetSectionRejectsEmptyPathBeforeAnyCall(t *testing.T) {
	svc, resolver, store := newFixture(t)

	_, err := svc.SetSection(context.Background(), "Alice", SectionPatch{Value: 1})
	var badReq *BadRequestError
	if !errors.As(err, &badReq) {
		t.Fatalf("expected *BadRequestError, got %v", err)
	}
	if resolver.calls != 0 || store.getCalls != 0 {
		t.Fatal("network touched for empty path")
	}
}

func TestSetSectionUnknownHandle(t *testing.T) {
	svc, _, store := newFixture(t)

	_, err := svc.SetSection(context.Background(), "Nobody", SectionPatch{
		EditPath: []string{"Data", "Gold"},
		Value:    1,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.getCalls != 0 || store.updateCalls != 0 {
		t.Fatal("store touched for unresolved handle")
	}
}

func TestSetSectionSurfacesRaceAsConflict(t *testing.T) {
	svc, _, store := newFixture(t)
	store.updateErr = opencloud.ErrPreconditionFailed

	_, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		ExpectedETag: "v1",
		EditPath:     []string{"Data", "Gold"},
		Value:        20,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.ExpectedETag != "v1" {
		t.Fatalf("conflict payload %+v", conflict)
	}
	if store.updateCalls != 1 {
		t.Fatalf("update calls %d, want 1", store.updateCalls)
	}
}

func TestSetSectionPatchesNonObjectValueAgainstFreshDocument(t *testing.T) {
	svc, _, store := newFixture(t)
	store.entries["Player_42"].Value = json.RawMessage(`"legacy string"`)

	if _, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		EditPath: []string{"Data", "Gold"},
		Value:    5,
	}); err != nil {
		t.Fatalf("SetSection: %v", err)
	}
	raw, _ := json.Marshal(store.lastUpdateValue)
	if string(raw) != `{"Data":{"Gold":5}}` {
		t.Fatalf("written value %s", raw)
	}
}

func TestSetSectionPropagatesFetchErrors(t *testing.T) {
	svc, _, store := newFixture(t)
	store.getErr = &httpx.HTTPError{StatusCode: http.StatusBadGateway}

	_, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		EditPath: []string{"Data", "Gold"},
		Value:    1,
	})
	var httpErr *httpx.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected passthrough 502, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Fatal("write attempted after failed fetch")
	}
}

func TestReadReturnsPlayer(t *testing.T) {
	svc, _, _ := newFixture(t)

	player, err := svc.Read(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if player.Username != "Alice" || player.UserID != 42 || player.EntryID != "Player_42" {
		t.Fatalf("unexpected player: %+v", player)
	}
	if player.Data.ETag != "v1" {
		t.Fatalf("unexpected entry: %+v", player.Data)
	}
}

func TestReadUnknownHandle(t *testing.T) {
	svc, _, _ := newFixture(t)
	if _, err := svc.Read(context.Background(), "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadDistinguishesResolverTransportFailure(t *testing.T) {
	svc, resolver, _ := newFixture(t)
	resolver.err = &httpx.HTTPError{StatusCode: http.StatusServiceUnavailable}

	_, err := svc.Read(context.Background(), "Alice")
	if errors.Is(err, ErrNotFound) {
		t.Fatal("transport failure must not collapse into not-found")
	}
	var httpErr *httpx.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestWithMutableRoot(t *testing.T) {
	resolver := &fakeResolver{users: map[string]int64{"Alice": 42}}
	store := &fakeStore{
		locator:  opencloud.Locator{UniverseID: 1, DataStore: "PlayerData"},
		entries:  map[string]*opencloud.Entry{"Player_42": {Value: json.RawMessage(`{}`), ETag: "v1"}},
		nextETag: "v2",
	}
	svc, err := New(resolver, store, WithMutableRoot("State"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		EditPath: []string{"State", "Gold"},
		Value:    1,
	}); err != nil {
		t.Fatalf("SetSection under custom root: %v", err)
	}
	if _, err := svc.SetSection(context.Background(), "Alice", SectionPatch{
		EditPath: []string{"Data", "Gold"},
		Value:    1,
	}); err == nil {
		t.Fatal("default root must be rejected once overridden")
	}
}
