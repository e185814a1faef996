package gotemplate_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-mixinsform/pkg/render"
	"github.com/goliatone/go-mixinsform/pkg/render/template"
	"github.com/goliatone/go-mixinsform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-mixinsform/pkg/testsupport"
)

func newEngine(t *testing.T, options ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	files := fstest.MapFS{
		"hello.tpl":      {Data: []byte(`Hello {{ name }}!`)},
		"node.tpl":       {Data: []byte(`<div data-path="{{ node.path }}">{{ node.label }}</div>`)},
		"use-global.tpl": {Data: []byte(`env={{ settings.env }}`)},
		"use-filter.tpl": {Data: []byte(`{{ name|engine_test_shout }}|{{ name|engine_test_shout:"?" }}`)},
		"i18n.tpl":       {Data: []byte(`{{ translate("de", "mixins.add") }}|{{ current_locale(locale) }}`)},
	}
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(files)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	if result != "Hello Ada!" || written != result {
		t.Fatalf("unexpected output %q / %q", result, written)
	}
}

func TestEngine_RenderStructUsesJSONNames(t *testing.T) {
	engine := newEngine(t)
	node := render.Node{Path: "variants.e1.size", Label: "Size"}

	result, err := engine.RenderTemplate("node.tpl", map[string]any{"node": node})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := `<div data-path="variants.e1.size">Size</div>`; result != want {
		t.Fatalf("want %q, got %q", want, result)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{"settings": map[string]any{"env": "dev"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	if err := engine.GlobalContext(map[string]any{"settings": map[string]any{"env": "staging"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("unexpected output %q", result)
	}

	// data passed to a render shadows globals
	result, err = engine.RenderTemplate("use-global", map[string]any{"settings": map[string]any{"env": "local"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "env=local" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("engine_test_shout", func(input any, param any) (any, error) {
		suffix := "!"
		if param != nil {
			suffix = fmt.Sprint(param)
		}
		return strings.ToUpper(fmt.Sprint(input)) + suffix, nil
	})
	// filters are process-wide, so a repeated run finds it registered
	if err != nil && !errors.Is(err, template.ErrFilterExists) {
		t.Fatalf("register filter: %v", err)
	}
	err = newEngine(t).RegisterFilter("engine_test_shout", func(any, any) (any, error) { return nil, nil })
	if !errors.Is(err, template.ErrFilterExists) {
		t.Fatalf("expected ErrFilterExists, got %v", err)
	}
	if err := engine.RegisterFilter(" ", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected error for blank filter name")
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "ADA!|ADA?" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_TemplateFuncs(t *testing.T) {
	funcs := render.TemplateI18nFuncs(nil, render.TemplateI18nConfig{})
	engine := newEngine(t, gotemplate.WithTemplateFunc(funcs))

	result, err := engine.RenderTemplate("i18n", map[string]any{"locale": "fr"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "mixins.add|fr" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	if _, err := newEngine(t).RenderTemplate("absent", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
}
