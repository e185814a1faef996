// Package mixinsform turns hosted mixins schema documents into editable form
// trees. The root package re-exports the orchestrator entry points; the
// building blocks live under pkg/.
package mixinsform

import (
	"context"
	"io/fs"

	internalLoader "github.com/goliatone/go-mixinsform/internal/loader"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/orchestrator"
	"github.com/goliatone/go-mixinsform/pkg/render"
	"github.com/goliatone/go-mixinsform/pkg/renderers/html"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// Request aliases orchestrator.Request for callers of the root package.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides that renderers can use to
// surface server-side validation errors or chrome translations.
type RenderOptions = render.RenderOptions

// Transformer aliases orchestrator.Transformer.
type Transformer = orchestrator.Transformer

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewSchemaLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewSchemaLoader(options ...schema.LoaderOption) schema.Loader {
	return internalLoader.New(schema.NewLoaderOptions(options...))
}

// GenerateHTML loads the schemas of req.Form from the catalog described by
// cfg and renders req.SchemaID with the html renderer. It is the simplest
// entry point for callers that just want markup.
func GenerateHTML(ctx context.Context, cfg mixins.CatalogConfig, req Request, options ...orchestrator.Option) ([]byte, error) {
	options = append([]orchestrator.Option{orchestrator.WithCatalogConfig(cfg)}, options...)
	gen := orchestrator.New(options...)
	req.Renderer = "html"
	return gen.Generate(ctx, req)
}

// EmbeddedTemplates exposes the built-in html renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
