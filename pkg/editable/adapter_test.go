package editable

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinsform/pkg/model"
)

func decodeTree(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	fixtures := []string{
		`{}`,
		`{"teamId":"t-1","active":true,"weight":12.5}`,
		`{"tags":["a","b","c"],"empty":[]}`,
		`{"dimensions":{"width":1,"height":2,"unit":"cm"}}`,
		`{"variants":[{"sku":"A","sizes":["s","m"]},{"sku":"B","sizes":[]}]}`,
		`{"matrix":[[1,2],[3],[]]}`,
		`{"title":[{"language":"en","value":"Chair"},{"language":"de","value":"Stuhl"}]}`,
		`{"deep":{"deeper":{"list":[{"leaf":null}]}}}`,
	}

	adapter := New(WithIDFunc(Sequential("el-")))
	for _, raw := range fixtures {
		t.Run(raw, func(t *testing.T) {
			want := decodeTree(t, raw)
			editable := adapter.ToEditableMap(want)
			got := FromEditableMap(editable)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToEditableWrapsEveryArray(t *testing.T) {
	adapter := New(WithIDFunc(Sequential("id")))
	tree := decodeTree(t, `{"variants":[{"sizes":["s","m"]}],"name":"x"}`)

	editable := adapter.ToEditableMap(tree)
	variants, ok := editable["variants"].(List)
	if !ok || len(variants) != 1 {
		t.Fatalf("expected variants to be a one-element List, got %#v", editable["variants"])
	}
	first, ok := variants[0].Value.(map[string]any)
	if !ok {
		t.Fatalf("expected element value to be an object, got %#v", variants[0].Value)
	}
	sizes, ok := first["sizes"].(List)
	if !ok || len(sizes) != 2 {
		t.Fatalf("expected nested sizes List, got %#v", first["sizes"])
	}
	if editable["name"] != "x" {
		t.Fatalf("expected scalar passthrough, got %#v", editable["name"])
	}
	if _, isList := tree["variants"].(List); isList {
		t.Fatalf("ToEditable must not mutate its input")
	}
}

func TestWrapIDsAreUnique(t *testing.T) {
	// A generator that repeats itself must still yield unique ids per list.
	adapter := New(WithIDFunc(func() string { return "dup" }))
	list := adapter.Wrap([]any{"a", "b", "c", "d"})

	seen := make(map[string]struct{}, len(list))
	for _, id := range list.IDs() {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q in %v", id, list.IDs())
		}
		seen[id] = struct{}{}
	}
}

func TestEmptyObjectBecomesEmptyArray(t *testing.T) {
	adapter := New(WithIDFunc(Sequential("e")))
	editable := adapter.ToEditableMap(map[string]any{
		"dimensions": map[string]any{},
		"list":       []any{map[string]any{}},
	})

	got := FromEditableMap(editable)
	want := map[string]any{
		"dimensions": []any{},
		"list":       []any{[]any{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected normalization (-want +got):\n%s", diff)
	}
	if root := FromEditableMap(map[string]any{}); len(root) != 0 {
		t.Fatalf("root must stay an object, got %#v", root)
	}
}

func TestEmptyArrayPassesThrough(t *testing.T) {
	adapter := New()
	editable := adapter.ToEditable([]any{})
	list, ok := editable.(List)
	if !ok || len(list) != 0 {
		t.Fatalf("expected empty List, got %#v", editable)
	}
	back := FromEditable(list)
	if diff := cmp.Diff([]any{}, back); diff != "" {
		t.Fatalf("expected empty array back (-want +got):\n%s", diff)
	}
}

func TestAppendDefaults(t *testing.T) {
	tests := []struct {
		kind model.FieldKind
		want any
	}{
		{model.KindText, ""},
		{model.KindInteger, int64(0)},
		{model.KindDecimal, float64(0)},
		{model.KindBoolean, false},
		{model.KindArray, List{}},
		{model.KindObject, map[string]any{}},
		{model.KindLocalized, nil},
	}

	adapter := New(WithIDFunc(Sequential("n")))
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			base := adapter.Wrap([]any{"x", "y"})
			out, id := adapter.Append(base, tt.kind)
			if len(out) != 3 {
				t.Fatalf("expected 3 elements, got %d", len(out))
			}
			if base.Has(id) {
				t.Fatalf("new id %q collides with existing ids %v", id, base.IDs())
			}
			if out[2].ID != id {
				t.Fatalf("appended element id = %q, want %q", out[2].ID, id)
			}
			if diff := cmp.Diff(tt.want, out[2].Value); diff != "" {
				t.Fatalf("default value mismatch (-want +got):\n%s", diff)
			}
			if len(base) != 2 {
				t.Fatalf("Append must not grow the input list")
			}
		})
	}
}

func TestRemoveKeepsSiblingIdentity(t *testing.T) {
	adapter := New(WithIDFunc(Sequential("r")))
	list := adapter.Wrap([]any{
		map[string]any{"sku": "A"},
		map[string]any{"sku": "B"},
		map[string]any{"sku": "C"},
	})

	out, err := Remove(list, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := List{list[1], list[2]}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("remove mismatch (-want +got):\n%s", diff)
	}
	if len(list) != 3 {
		t.Fatalf("Remove must not modify its input")
	}

	if _, err := Remove(list, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	byID, err := RemoveID(list, list[1].ID)
	if err != nil {
		t.Fatalf("remove by id: %v", err)
	}
	if diff := cmp.Diff([]string{list[0].ID, list[2].ID}, byID.IDs()); diff != "" {
		t.Fatalf("remove by id mismatch (-want +got):\n%s", diff)
	}
}

func TestMove(t *testing.T) {
	adapter := New(WithIDFunc(Sequential("m")))
	list := adapter.Wrap([]any{"a", "b", "c"})
	out, err := Move(list, 0, 2)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if diff := cmp.Diff([]string{"m2", "m3", "m1"}, out.IDs()); diff != "" {
		t.Fatalf("move mismatch (-want +got):\n%s", diff)
	}
}

func TestStrip(t *testing.T) {
	tree := map[string]any{
		"name":    "chair",
		"blank":   "",
		"time":    " ",
		"missing": nil,
		"zero":    float64(0),
		"flag":    false,
		"tags":    []any{"a", "", nil, "b"},
		"nested":  map[string]any{"note": "  ", "kept": "yes"},
	}
	got := StripMap(tree)
	want := map[string]any{
		"name":   "chair",
		"zero":   float64(0),
		"flag":   false,
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"kept": "yes"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("strip mismatch (-want +got):\n%s", diff)
	}
}
