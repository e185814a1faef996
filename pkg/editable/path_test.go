package editable

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetAndGetByElementID(t *testing.T) {
	adapter := New(WithIDFunc(Sequential("v")))
	root := adapter.ToEditableMap(map[string]any{
		"variants": []any{
			map[string]any{"sku": "A"},
			map[string]any{"sku": "B"},
		},
	})

	updated, err := Set(root, "variants.v2.sku", "B2")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := Get(updated, "variants.v2.sku")
	if !ok || got != "B2" {
		t.Fatalf("Get after Set = %#v, %v", got, ok)
	}
	if prev, _ := Get(root, "variants.v2.sku"); prev != "B" {
		t.Fatalf("Set must not mutate the original tree, got %#v", prev)
	}

	created, err := Set(root, "dimensions.width", 4.5)
	if err != nil {
		t.Fatalf("set new branch: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"width": 4.5}, created["dimensions"]); diff != "" {
		t.Fatalf("created branch mismatch (-want +got):\n%s", diff)
	}

	if _, err := Set(root, "variants.nope.sku", "x"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath, got %v", err)
	}
	if _, err := Set(root, "variants.v1.sku.deeper", "x"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath crossing a leaf, got %v", err)
	}
}

func TestGetList(t *testing.T) {
	adapter := New(WithIDFunc(Sequential("g")))
	root := adapter.ToEditableMap(map[string]any{"tags": []any{"a"}, "name": "x"})

	list, err := GetList(root, "tags")
	if err != nil || len(list) != 1 {
		t.Fatalf("GetList tags = %v, %v", list, err)
	}
	empty, err := GetList(root, "missing")
	if err != nil || len(empty) != 0 {
		t.Fatalf("GetList missing = %v, %v", empty, err)
	}
	if _, err := GetList(root, "name"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath for scalar, got %v", err)
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("a.b", "c", "", "d.e"); got != "a.b.c.d.e" {
		t.Fatalf("JoinPath = %q", got)
	}
	if got := JoinPath("", "x"); got != "x" {
		t.Fatalf("JoinPath root = %q", got)
	}
}
