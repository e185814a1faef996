package html_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/model"
	"github.com/goliatone/go-mixinsform/pkg/render"
	"github.com/goliatone/go-mixinsform/pkg/render/template"
	"github.com/goliatone/go-mixinsform/pkg/renderers/html"
	"github.com/goliatone/go-mixinsform/pkg/testsupport"
)

func productView(t *testing.T, value map[string]any) render.View {
	t.Helper()
	form := testsupport.MustLoadForm(t, testsupport.ProductCatalog(), testsupport.ProductRef())
	session := render.NewSession(form, value, render.WithAdapter(editable.New(editable.WithIDFunc(editable.Sequential("e")))))
	return session.View(render.Options{Language: "en"})
}

func TestRenderer_Contract(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if r.Name() != "html" {
		t.Fatalf("unexpected name %q", r.Name())
	}
	if r.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRenderer_RendersProductForm(t *testing.T) {
	view := productView(t, map[string]any{
		"title":    "<b>Shirt</b>",
		"price":    9.99,
		"color":    "blue",
		"name":     []any{map[string]any{"language": "en", "value": "Shirt"}},
		"tags":     []any{"a", "b"},
		"variants": []any{map[string]any{"size": "M"}},
	})

	r, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), view, render.RenderOptions{
		Action: "/forms/product",
		Hidden: []render.HiddenField{render.CSRFToken("_csrf", "token-1")},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := testsupport.SquashSpace(string(out))

	wants := []string{
		`<form class="mixinsform" id="mf-product" lang="en" method="POST" action="/forms/product" data-dirty="false">`,
		`<input type="hidden" name="_csrf" value="token-1">`,
		`<input type="hidden" name="schemaKey" value="product">`,
		`<input type="hidden" name="schemaUrl" value="https://schemas.test/mixins/product_v1.json">`,
		`<div class="mf-description">Product <b>details</b></div>`,
		`name="title" value="&lt;b&gt;Shirt&lt;/b&gt;" required>`,
		`name="price" inputmode="decimal" value="9.99">`,
		`<option value="blue" selected>blue</option>`,
		`name="name[en]" lang="en" value="Shirt">`,
		`<input type="text" id="mf-tags-e2" name="tags.e2" value="a">`,
		`<button type="submit" class="mf-remove" name="_remove" value="tags:1">`,
		`<button type="submit" class="mf-append" name="_append" value="tags">Add</button>`,
		`<div class="mf-entry" id="mf-variants-e4" data-element-id="e4">`,
		`<option value="M" selected>M</option>`,
		`placeholder="HH:MM"`,
		`<span class="mf-status">Saved</span>`,
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("description was not sanitized: %s", got)
	}
	if strings.Index(got, `name="title"`) > strings.Index(got, `id="mf-variants"`) {
		t.Fatalf("scalars should render before arrays of objects")
	}
}

func TestRenderer_ErrorsAndChrome(t *testing.T) {
	form := testsupport.MustLoadForm(t, testsupport.ProductCatalog(), testsupport.ProductRef())
	session := render.NewSession(form, nil)
	if err := session.Set("title", "Changed"); err != nil {
		t.Fatalf("set: %v", err)
	}
	view := session.View(render.Options{Errors: map[string][]string{"title": {"Too short"}}})

	r, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), view, render.RenderOptions{
		Locale:     "de",
		Translator: chromeTranslator{"mixins.save": "Speichern", "mixins.unsaved": "Ungespeichert"},
		FormErrors: []string{"Server rejected the mixin"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := testsupport.SquashSpace(string(out))

	for _, want := range []string{
		`data-dirty="true"`,
		`<ul class="mf-form-errors" role="alert"><li>Server rejected the mixin</li></ul>`,
		`<ul class="mf-errors"><li>Too short</li></ul>`,
		`>Speichern</button>`,
		`<span class="mf-status">Ungespeichert</span>`,
		`<p class="mf-empty">No entries</p>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}

func TestRenderer_CustomTemplatesSeeFlattenedRows(t *testing.T) {
	files := fstest.MapFS{
		"form.tpl": {Data: []byte(`{{ view.schemaId }}|{% for r in rows %}{{ r.event }}:{{ r.node.path }};{% endfor %}`)},
	}
	r, err := html.New(html.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	form := mixins.Form{SchemaID: "mini", Items: []model.FormItem{
		{Key: "tags", Path: "tags", Kind: model.KindArray, ElementKind: model.KindText},
		{Key: "title", Path: "title", Kind: model.KindText},
	}}
	adapter := editable.New(editable.WithIDFunc(editable.Sequential("e")))
	session := render.NewSession(form, map[string]any{"tags": []any{"x"}}, render.WithAdapter(adapter))

	out, err := r.Render(context.Background(), session.View(render.Options{}), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "mini|control:title;open:tags;open:tags.e1;control:tags.e1;close:tags.e1;close:tags;"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_MissingTemplate(t *testing.T) {
	r, err := html.New(html.WithTemplatesFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := r.Render(context.Background(), render.View{}, render.RenderOptions{}); err == nil {
		t.Fatalf("expected error for missing form template")
	}
}

func TestSanitizeDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  ", want: ""},
		{in: "Plain text", want: "Plain text"},
		{in: `<em>Hi</em><img src=x onerror=alert(1)>`, want: "<em>Hi</em>"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, html.SanitizeDescription(tt.in)); diff != "" {
			t.Errorf("SanitizeDescription(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestRenderer_CustomTemplatesUseHelpers(t *testing.T) {
	files := fstest.MapFS{
		"form.tpl": {Data: []byte(`{{ view.schemaId|domid }}|{{ view.description|sanitize|safe }}|{{ time_pattern }}`)},
	}
	r, err := html.New(html.WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	// a second renderer finds the filters already registered
	if _, err := html.New(html.WithTemplatesFS(files)); err != nil {
		t.Fatalf("second renderer: %v", err)
	}

	view := render.View{SchemaID: "brand.v1", Description: `<em>Hi</em><script>x()</script>`}
	out, err := r.Render(context.Background(), view, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "mf-brand-v1|<em>Hi</em>|([01][0-9]|2[0-3]):[0-5][0-9]"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_InjectedEngineGetsHelpers(t *testing.T) {
	engine := &recordingEngine{existing: map[string]bool{"domid": true}}
	if _, err := html.New(html.WithTemplateRenderer(engine)); err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if diff := cmp.Diff([]string{"sanitize"}, engine.filters); diff != "" {
		t.Fatalf("filters mismatch (-want +got):\n%s", diff)
	}
	if engine.globals["time_pattern"] == nil {
		t.Fatalf("time_pattern global not set: %v", engine.globals)
	}

	engine = &recordingEngine{fail: errors.New("boom")}
	if _, err := html.New(html.WithTemplateRenderer(engine)); err == nil {
		t.Fatalf("expected filter registration error")
	}
}

func TestDOMID(t *testing.T) {
	tests := map[string]string{
		"":                 "mf",
		"variants.e1.size": "mf-variants-e1-size",
		" name[en] ":       "mf-name_en_",
	}
	for in, want := range tests {
		if got := html.DOMID(in); got != want {
			t.Errorf("DOMID(%q) = %q, want %q", in, got, want)
		}
	}
}

type recordingEngine struct {
	existing map[string]bool
	fail     error
	filters  []string
	globals  map[string]any
}

func (e *recordingEngine) RenderTemplate(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (e *recordingEngine) RegisterFilter(name string, _ template.FilterFunc) error {
	if e.fail != nil {
		return e.fail
	}
	if e.existing[name] {
		return template.ErrFilterExists
	}
	e.filters = append(e.filters, name)
	return nil
}

func (e *recordingEngine) GlobalContext(data any) error {
	e.globals, _ = data.(map[string]any)
	return nil
}

type chromeTranslator map[string]string

func (c chromeTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := c[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing")
}
