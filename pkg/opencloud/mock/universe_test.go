package mock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rbxkit/playerstore/pkg/opencloud"
)

func TestResolveUsernameCaseInsensitive(t *testing.T) {
	u := NewUniverse()
	if err := u.AddUser(opencloud.User{ID: 42, Name: "Alice"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	user, err := u.ResolveUsername(context.Background(), "aLiCe")
	if err != nil {
		t.Fatalf("ResolveUsername: %v", err)
	}
	if user.ID != 42 || user.Name != "Alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.RequestedUsername != "aLiCe" {
		t.Fatalf("RequestedUsername = %q", user.RequestedUsername)
	}

	_, err = u.ResolveUsername(context.Background(), "bob")
	if !errors.Is(err, opencloud.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAddUserValidation(t *testing.T) {
	u := NewUniverse()
	if err := u.AddUser(opencloud.User{ID: 1}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := u.AddUser(opencloud.User{Name: "Alice"}); err == nil {
		t.Fatal("expected error for non-positive id")
	}
}

func TestUpdateEntryETagSemantics(t *testing.T) {
	ctx := context.Background()
	u := NewUniverse()
	seeded, err := u.PutEntry(ctx, "Player_42", json.RawMessage(`{"Data":{"Gold":10}}`))
	if err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	if seeded.ETag == "" || seeded.RevisionID == "" {
		t.Fatalf("seeded entry missing etag/revision: %+v", seeded)
	}

	// stale etag: rejected, entry untouched
	_, err = u.UpdateEntry(ctx, "Player_42", json.RawMessage(`{"Data":{"Gold":99}}`), "stale")
	if !errors.Is(err, opencloud.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	got, err := u.GetEntry(ctx, "Player_42")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if string(got.Value) != `{"Data":{"Gold":10}}` || got.ETag != seeded.ETag {
		t.Fatalf("rejected write must not change the entry: %+v", got)
	}

	// matching etag: accepted, etag and revision rotate
	updated, err := u.UpdateEntry(ctx, "Player_42", json.RawMessage(`{"Data":{"Gold":20}}`), seeded.ETag)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if updated.ETag == seeded.ETag || updated.RevisionID == seeded.RevisionID {
		t.Fatal("accepted write must mint a fresh etag and revision id")
	}
	if string(updated.Value) != `{"Data":{"Gold":20}}` {
		t.Fatalf("unexpected value after update: %s", updated.Value)
	}

	// empty etag: unconditional replace of an existing entry
	if _, err := u.UpdateEntry(ctx, "Player_42", json.RawMessage(`{}`), ""); err != nil {
		t.Fatalf("unconditional update: %v", err)
	}
}

func TestUpdateEntryNeverCreates(t *testing.T) {
	u := NewUniverse()
	_, err := u.UpdateEntry(context.Background(), "Player_404", json.RawMessage(`{}`), "")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestGetEntryReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	u := NewUniverse()
	if _, err := u.PutEntry(ctx, "Player_42", json.RawMessage(`{"Data":{}}`)); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	first, err := u.GetEntry(ctx, "Player_42")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	for i := range first.Value {
		first.Value[i] = 'x'
	}
	second, err := u.GetEntry(ctx, "Player_42")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if string(second.Value) != `{"Data":{}}` {
		t.Fatalf("stored value mutated through a returned snapshot: %s", second.Value)
	}
}
