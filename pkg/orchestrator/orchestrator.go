package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	internalLoader "github.com/goliatone/go-mixinsform/internal/loader"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/render"
	"github.com/goliatone/go-mixinsform/pkg/renderers/html"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

const (
	defaultRendererName = "html"
	defaultFetchTimeout = 30 * time.Second
)

// ErrFormNotFound reports a schema id that the load did not produce.
var ErrFormNotFound = errors.New("orchestrator: form not found")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithSchemaLoader injects the byte fetcher used by the default catalog.
func WithSchemaLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.schemaLoader = loader
	}
}

// WithCatalogConfig configures the default loader-backed catalog.
func WithCatalogConfig(cfg mixins.CatalogConfig) Option {
	return func(o *Orchestrator) {
		o.catalogConfig = cfg
	}
}

// WithCatalog injects a custom catalog, bypassing WithCatalogConfig.
func WithCatalog(catalog mixins.Catalog) Option {
	return func(o *Orchestrator) {
		o.catalog = catalog
	}
}

// WithLoaderOptions forwards options to the schema tree loader.
func WithLoaderOptions(options ...mixins.LoaderOption) Option {
	return func(o *Orchestrator) {
		o.loaderOptions = append(o.loaderOptions, options...)
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers Transformers that mutate loaded forms before
// they reach a session.
func WithSchemaTransformer(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// WithAdapterFactory sets the adapter each new session wraps values with.
func WithAdapterFactory(fn func() *editable.Adapter) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newAdapter = fn
		}
	}
}

// WithLogger routes orchestrator and session logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from catalog to rendered output. It
// applies sensible defaults (HTTP fetcher, html + json renderers) while
// remaining open to dependency injection.
type Orchestrator struct {
	schemaLoader    schema.Loader
	catalogConfig   mixins.CatalogConfig
	catalog         mixins.Catalog
	loaderOptions   []mixins.LoaderOption
	loader          *mixins.Loader
	registry        *render.Registry
	defaultRenderer string
	transformers    []Transformer
	newAdapter      func() *editable.Adapter
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations. A catalog
// or a catalog config with a schema URL template is required.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		newAdapter:      func() *editable.Adapter { return editable.New() },
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one form to render or edit.
type Request struct {
	// Form selects the schemas to load and the persisted values.
	Form mixins.Request

	// SchemaID picks the loaded form to render.
	SchemaID string

	// Value overrides Form.Values[SchemaID] as the session's starting value.
	Value map[string]any

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// Language selects labels and number formatting. Defaults to en.
	Language string

	// Errors attaches server-side messages to nodes by path.
	Errors map[string][]string

	// RenderOptions carries per-request chrome settings. Locale defaults to
	// Language.
	RenderOptions render.RenderOptions
}

// Err reports a configuration problem found while applying defaults.
func (o *Orchestrator) Err() error {
	return o.initialiseErr
}

// Registry returns the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// LoadForms loads every form of req and runs the registered transformers.
// Forms whose transformer fails move to Result.Failures.
func (o *Orchestrator) LoadForms(ctx context.Context, req mixins.Request) (mixins.Result, error) {
	if err := o.initialiseErr; err != nil {
		return mixins.Result{}, err
	}
	result, err := o.loader.LoadForms(ctx, req)
	if err != nil {
		return mixins.Result{}, err
	}
	if len(o.transformers) == 0 {
		return result, nil
	}

	forms := make([]mixins.Form, 0, len(result.Forms))
	for _, form := range result.Forms {
		form := form
		if err := o.transform(ctx, &form); err != nil {
			o.logger.Warn("orchestrator: transform failed", "schema", form.SchemaID, "error", err)
			result.Failures = append(result.Failures, mixins.Failure{
				Ref: mixins.SchemaRef{ID: form.SchemaID, Version: form.Version, URL: form.SchemaURL, Kind: form.Kind},
				Err: err,
			})
			continue
		}
		forms = append(forms, form)
	}
	result.Forms = forms
	return result, nil
}

// Session loads req.Form and opens an editing session on req.SchemaID.
func (o *Orchestrator) Session(ctx context.Context, req Request) (*render.Session, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.SchemaID == "" {
		return nil, errors.New("orchestrator: schema id is required")
	}

	result, err := o.LoadForms(ctx, req.Form)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load forms: %w", err)
	}
	form, ok := result.Form(req.SchemaID)
	if !ok {
		for _, failure := range result.Failures {
			if failure.Ref.ID == req.SchemaID {
				return nil, fmt.Errorf("orchestrator: form %q: %w", req.SchemaID, failure.Err)
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrFormNotFound, req.SchemaID)
	}

	value := req.Value
	if value == nil {
		if entry, ok := req.Form.Values[req.SchemaID]; ok {
			value = entry.Value
		}
	}
	return render.NewSession(form, value,
		render.WithAdapter(o.newAdapter()),
		render.WithLogger(o.logger),
	), nil
}

// Generate executes the load → session → renderer sequence and returns the
// rendered bytes (HTML for the default renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	session, err := o.Session(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.Render(ctx, session, req)
}

// Render draws an existing session with the renderer req names.
func (o *Orchestrator) Render(ctx context.Context, session *render.Session, req Request) ([]byte, error) {
	if session == nil {
		return nil, errors.New("orchestrator: session is required")
	}
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if opts.Locale == "" {
		opts.Locale = req.Language
	}
	view := session.View(render.Options{Language: req.Language, Errors: req.Errors})

	output, err := renderer.Render(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) transform(ctx context.Context, form *mixins.Form) error {
	for _, t := range o.transformers {
		if err := t.Transform(ctx, form); err != nil {
			return fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.catalog == nil {
		if o.catalogConfig.SchemaURL == "" {
			o.initialiseErr = errors.New("orchestrator: catalog or catalog config is required")
			return
		}
		if o.schemaLoader == nil {
			o.schemaLoader = internalLoader.New(schema.NewLoaderOptions(
				schema.WithHTTPFallback(defaultFetchTimeout),
			))
		}
		catalog, err := mixins.NewCatalog(o.schemaLoader, o.catalogConfig)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: catalog: %w", err)
			return
		}
		o.catalog = catalog
	}

	options := append([]mixins.LoaderOption{mixins.WithLogger(o.logger)}, o.loaderOptions...)
	o.loader = mixins.NewLoader(o.catalog, options...)

	if o.registry == nil {
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		registry, err := render.NewRegistry(renderer, render.JSONRenderer{})
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: registry: %w", err)
			return
		}
		o.registry = registry
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
