package docpath

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSetThenGetRoundTrips(t *testing.T) {
	cases := []struct {
		name  string
		doc   map[string]any
		path  []string
		value any
	}{
		{"single segment", map[string]any{"Data": map[string]any{"Gold": 10}}, []string{"Data"}, map[string]any{"Gold": 20}},
		{"nested segment", map[string]any{"Data": map[string]any{"Gold": 10}}, []string{"Data", "Gold"}, 20},
		{"deep absent path", map[string]any{}, []string{"Data", "Inventory", "Sword"}, true},
		{"nil document", nil, []string{"Data", "Gold"}, 5},
		{"null leaf value", map[string]any{"Data": map[string]any{}}, []string{"Data", "Gold"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Set(tc.doc, tc.path, tc.value)
			if err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, ok := Get(out, tc.path)
			if !ok {
				t.Fatalf("path %v missing after Set", tc.path)
			}
			if !reflect.DeepEqual(got, tc.value) {
				t.Fatalf("got %#v want %#v", got, tc.value)
			}
		})
	}
}

func TestSetCreatesIntermediateMappings(t *testing.T) {
	cases := []struct {
		name string
		doc  map[string]any
	}{
		{"absent", map[string]any{}},
		{"null", map[string]any{"Data": nil}},
		{"scalar in the way", map[string]any{"Data": 7}},
		{"sequence in the way", map[string]any{"Data": []any{1, 2, 3}}},
		{"string in the way", map[string]any{"Data": "hello"}},
	}
	path := []string{"Data", "Stats", "Wins"}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Set(tc.doc, path, 3)
			if err != nil {
				t.Fatalf("Set: %v", err)
			}
			for i := 1; i < len(path); i++ {
				v, ok := Get(out, path[:i])
				if !ok {
					t.Fatalf("intermediate %v missing", path[:i])
				}
				if _, isMap := v.(map[string]any); !isMap {
					t.Fatalf("intermediate %v is %T, want mapping", path[:i], v)
				}
			}
		})
	}
}

func TestSetReplacesMappingsWithoutMerging(t *testing.T) {
	doc := map[string]any{"Data": map[string]any{"Gold": 10, "Gems": 4}}
	out, err := Set(doc, []string{"Data"}, map[string]any{"Gold": 20})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	data := out["Data"].(map[string]any)
	if _, survived := data["Gems"]; survived {
		t.Fatal("Set must replace the subtree, not deep-merge it")
	}
}

func TestSetLeavesOriginalDocumentUntouched(t *testing.T) {
	doc := map[string]any{
		"MetaData": map[string]any{"Version": 3},
		"Data":     map[string]any{"Gold": 10, "Stats": map[string]any{"Wins": 1}},
	}
	snapshot, _ := json.Marshal(doc)

	if _, err := Set(doc, []string{"Data", "Stats", "Wins"}, 99); err != nil {
		t.Fatalf("Set: %v", err)
	}

	after, _ := json.Marshal(doc)
	if string(snapshot) != string(after) {
		t.Fatalf("original document mutated:\nbefore %s\nafter  %s", snapshot, after)
	}
}

func TestSetSharesUntouchedSiblings(t *testing.T) {
	stats := map[string]any{"Wins": 1}
	doc := map[string]any{"Data": map[string]any{"Stats": stats, "Gold": 10}}
	out, err := Set(doc, []string{"Data", "Gold"}, 20)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Untouched subtrees are shared, not copied.
	if !reflect.DeepEqual(out["Data"].(map[string]any)["Stats"], stats) {
		t.Fatal("untouched sibling changed")
	}
}

func TestSetRejectsEmptyPath(t *testing.T) {
	if _, err := Set(map[string]any{}, nil, 1); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}

func TestGetMissingPath(t *testing.T) {
	doc := map[string]any{"Data": map[string]any{"Gold": 10}}
	if _, ok := Get(doc, []string{"Data", "Silver"}); ok {
		t.Fatal("expected miss")
	}
	if _, ok := Get(doc, []string{"Data", "Gold", "Nested"}); ok {
		t.Fatal("scalar must not be traversable")
	}
	if _, ok := Get(doc, nil); ok {
		t.Fatal("empty path must miss")
	}
}
