package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/render"
	"github.com/goliatone/go-mixinsform/pkg/render/template"
	"github.com/goliatone/go-mixinsform/pkg/render/template/gotemplate"
)

// Option configures the HTML renderer.
type Option func(*config)

type config struct {
	templatesFS      fs.FS
	templatesDir     string
	templateRenderer template.TemplateRenderer
	translator       render.Translator
}

// WithTemplatesFS overrides the embedded templates. The bundle must provide
// form.tpl at its root.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templatesFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(dir string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(dir)
	}
}

// WithTemplateRenderer injects a preconfigured template engine. Template
// options are ignored when a renderer is supplied; the domid and sanitize
// filters and the renderer globals are still registered on it.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(cfg *config) {
		cfg.templateRenderer = renderer
	}
}

// WithTranslator backs the translate template helper.
func WithTranslator(t render.Translator) Option {
	return func(cfg *config) {
		cfg.translator = t
	}
}

// Renderer renders a form view as an HTML form.
type Renderer struct {
	templates template.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templatesFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engineOpts := []gotemplate.Option{
			gotemplate.WithExtension(".tpl"),
			gotemplate.WithTemplateFunc(render.TemplateI18nFuncs(cfg.translator, render.TemplateI18nConfig{})),
		}
		if cfg.templatesDir != "" {
			engineOpts = append(engineOpts, gotemplate.WithBaseDir(cfg.templatesDir))
		} else {
			engineOpts = append(engineOpts, gotemplate.WithFS(cfg.templatesFS))
		}
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("html: configure template renderer: %w", err)
		}
		templates = engine
	}
	if err := registerHelpers(templates); err != nil {
		return nil, fmt.Errorf("html: configure template helpers: %w", err)
	}

	return &Renderer{templates: templates}, nil
}

// Name identifies the renderer in the registry.
func (r *Renderer) Name() string {
	return "html"
}

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(_ context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, errors.New("html: renderer is not configured")
	}

	locale := strings.ToLower(strings.TrimSpace(opts.Locale))
	if locale == "" {
		locale = "en"
	}
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "POST"
	}

	rows := flatten(view.Nodes, "", locale)
	view.Nodes = nil

	hidden := append(render.SchemaFields(view), opts.Hidden...)
	data := map[string]any{
		"view":        view,
		"rows":        rows,
		"hidden":      render.SortedHiddenFields(hidden...),
		"labels":      chromeLabels(opts),
		"form_errors": opts.FormErrors,
		"action":      strings.TrimSpace(opts.Action),
		"method":      method,
		"locale":      locale,
	}

	out, err := r.templates.RenderTemplate("form", data)
	if err != nil {
		return nil, fmt.Errorf("html: render form: %w", err)
	}
	return []byte(out), nil
}
