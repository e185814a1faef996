package render_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/model"
	"github.com/goliatone/go-mixinsform/pkg/render"
)

func newProductSession(value map[string]any) *render.Session {
	form := mixins.Form{SchemaID: "product", SchemaURL: "https://cdn.test/mixins/product_v1.json", Items: productItems()}
	return render.NewSession(form, value, render.WithAdapter(editable.New(editable.WithIDFunc(editable.Sequential("e")))))
}

func TestSession_EditsAndDirty(t *testing.T) {
	s := newProductSession(map[string]any{"title": "Shirt"})
	if s.Dirty() {
		t.Fatalf("fresh session should be clean")
	}
	before := s.Tree()

	if err := s.Set("title", "Shirt 2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Dirty() {
		t.Fatalf("session should be dirty after Set")
	}
	if before["title"] != "Shirt" {
		t.Fatalf("earlier tree was mutated")
	}
	if err := s.Set("title", "Shirt"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("restoring the value should make the session clean")
	}
}

func TestSession_RetypedIntegerStaysClean(t *testing.T) {
	var value map[string]any
	if err := json.Unmarshal([]byte(`{"title":"Shirt","dimensions":{"width":5}}`), &value); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := newProductSession(value)

	if _, err := s.Input("dimensions.width", "5"); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if got, _ := s.Get("dimensions.width"); got != int64(5) {
		t.Fatalf("expected int64(5), got %T %v", got, got)
	}
	if s.Dirty() {
		t.Fatalf("retyping the saved number should leave the session clean")
	}

	if _, err := s.Input("dimensions.width", "6"); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if !s.Dirty() {
		t.Fatalf("a different number should make the session dirty")
	}
}

func TestSession_AppendRemoveKeepsIDs(t *testing.T) {
	s := newProductSession(map[string]any{"tags": []any{"a", "b", "c"}})

	id, err := s.Append("tags")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != "e4" {
		t.Fatalf("unexpected id %q", id)
	}
	if _, err := s.Input("tags."+id, "d"); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if err := s.Remove("tags", 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	list, err := editable.GetList(s.Tree(), "tags")
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	want := editable.List{{ID: "e1", Value: "a"}, {ID: "e3", Value: "c"}, {ID: "e4", Value: "d"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_AppendObjectElement(t *testing.T) {
	s := newProductSession(nil)
	id, err := s.Append("variants")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Input("variants."+id+".price", "12.346"); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if _, err := s.Input("variants."+id+".size", "M"); err != nil {
		t.Fatalf("Input: %v", err)
	}
	want := map[string]any{"variants": []any{map[string]any{"price": 12.35, "size": "M"}}}
	if diff := cmp.Diff(want, s.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_InputLocale(t *testing.T) {
	s := newProductSession(map[string]any{"variants": []any{map[string]any{"size": "S"}}})
	path := "variants.e1.price"
	if _, err := s.Input(path, "1.234,5", controls.WithLocale(language.German)); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if got, _ := s.Get(path); got != 1234.5 {
		t.Fatalf("expected 1234.5, got %v", got)
	}
}

func TestSession_PathErrors(t *testing.T) {
	s := newProductSession(map[string]any{"tags": []any{"a"}})
	if err := s.Set("missing", 1); !errors.Is(err, editable.ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath, got %v", err)
	}
	if err := s.Set("tags.nope", "x"); !errors.Is(err, editable.ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath for unknown element, got %v", err)
	}
	if _, err := s.Append("title"); !errors.Is(err, render.ErrNotAList) {
		t.Fatalf("expected ErrNotAList, got %v", err)
	}
	if err := s.Remove("tags", 5); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := s.Input("dimensions", "x"); !errors.Is(err, editable.ErrUnknownPath) {
		t.Fatalf("expected composite input to fail, got %v", err)
	}
}

func TestSession_TimeBlurIsStripped(t *testing.T) {
	form := mixins.Form{SchemaID: "hours", Items: []model.FormItem{{Key: "opens", Path: "opens", Kind: model.KindTime}}}
	s := render.NewSession(form, map[string]any{"opens": "09:00"})
	if _, err := s.Blur("opens", "9"); err != nil {
		t.Fatalf("Blur: %v", err)
	}
	if got, _ := s.Get("opens"); got != " " {
		t.Fatalf("expected sentinel, got %q", got)
	}
	if diff := cmp.Diff(map[string]any{}, s.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_Save(t *testing.T) {
	s := newProductSession(map[string]any{"title": "Shirt"})
	if err := s.Set("title", "Shirt 2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	failing := mixins.PersisterFunc(func(context.Context, string, map[string]any, string) error {
		return errors.New("boom")
	})
	if err := s.Save(context.Background(), failing); err == nil {
		t.Fatalf("expected save error")
	}
	if !s.Dirty() {
		t.Fatalf("failed save must keep the session dirty")
	}

	var gotKey, gotURL string
	var gotValue map[string]any
	ok := mixins.PersisterFunc(func(_ context.Context, key string, value map[string]any, url string) error {
		gotKey, gotValue, gotURL = key, value, url
		return nil
	})
	if err := s.Save(context.Background(), ok); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if gotKey != "product" || gotURL != "https://cdn.test/mixins/product_v1.json" {
		t.Fatalf("unexpected save target %q %q", gotKey, gotURL)
	}
	if diff := cmp.Diff(map[string]any{"title": "Shirt 2"}, gotValue); diff != "" {
		t.Fatalf("saved value mismatch (-want +got):\n%s", diff)
	}
	if s.Dirty() {
		t.Fatalf("session should be clean after save")
	}
}

func TestSession_NodesWriteBack(t *testing.T) {
	s := newProductSession(map[string]any{"title": "Shirt"})
	nodes := s.Nodes(render.Options{})
	if _, err := nodes[1].Control.Input("Blouse"); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if got, _ := s.Get("title"); got != "Blouse" {
		t.Fatalf("expected write back, got %v", got)
	}
	view := s.View(render.Options{})
	if !view.Dirty || view.SchemaID != "product" {
		t.Fatalf("unexpected view %+v", view)
	}
}
