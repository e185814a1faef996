package mixins

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-mixinsform/pkg/model"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// Names maps a property key to its display name per language code.
type Names map[string]map[string]string

// Request describes one form load.
type Request struct {
	// Existing refs take precedence over every other source.
	Existing []SchemaRef
	// Values contributes a mixin ref per entry that carries a schema URL.
	Values Values
	// Names supplies localized display names keyed by property key.
	Names Names
	// SkipDefaults disables the catalog's default list.
	SkipDefaults bool
}

// Form is the loaded form of one schema.
type Form struct {
	SchemaID    string           `json:"schemaId"`
	Version     int              `json:"version,omitempty"`
	SchemaURL   string           `json:"schemaUrl"`
	Kind        RefKind          `json:"kind"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Items       []model.FormItem `json:"items"`
}

// Failure records a schema that could not be loaded.
type Failure struct {
	Ref SchemaRef
	Err error
}

// Result is the outcome of LoadForms.
type Result struct {
	Forms    []Form
	Failures []Failure
}

// Form looks up a loaded form by schema id.
func (r Result) Form(id string) (Form, bool) {
	for _, form := range r.Forms {
		if form.SchemaID == id {
			return form, true
		}
	}
	return Form{}, false
}

// Loader builds form item trees from catalog schemas.
type Loader struct {
	catalog     Catalog
	logger      *slog.Logger
	concurrency int
	maxRefDepth int
}

// NewLoader constructs a Loader.
func NewLoader(catalog Catalog, options ...LoaderOption) *Loader {
	l := &Loader{
		catalog:     catalog,
		logger:      discardLogger(),
		concurrency: defaultConcurrency,
		maxRefDepth: defaultMaxRefDepth,
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Refs merges the request's references in precedence order: explicit
// refs, refs derived from current values, then the catalog default list.
func (l *Loader) Refs(ctx context.Context, req Request) ([]SchemaRef, error) {
	var defaults []SchemaRef
	if lister, ok := l.catalog.(Lister); ok && !req.SkipDefaults {
		listed, err := lister.ListSchemas(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			l.logger.Warn("mixins: default schema list unavailable", "error", err)
		}
		defaults = listed
	}
	return MergeRefs(req.Existing, req.Values.Refs(), defaults), nil
}

// LoadForms resolves every referenced schema into a Form. Schemas load in
// parallel; a schema that fails is logged and reported in Result.Failures.
// The returned error is non-nil only when ctx ends or no catalog is set.
func (l *Loader) LoadForms(ctx context.Context, req Request) (Result, error) {
	if l == nil || l.catalog == nil {
		return Result{}, ErrNoCatalog
	}
	refs, err := l.Refs(ctx, req)
	if err != nil {
		return Result{}, err
	}

	forms := make([]*Form, len(refs))
	failures := make([]error, len(refs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		group.Go(func() error {
			form, err := l.LoadForm(groupCtx, ref, req.Names)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				l.logger.Warn("mixins: schema load failed",
					"schema", ref.ID, "version", ref.Version, "kind", ref.Kind, "url", ref.URL, "error", err)
				return nil
			}
			forms[i] = &form
			l.logger.Debug("mixins: schema loaded", "schema", ref.ID, "items", len(form.Items))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	var result Result
	for i, ref := range refs {
		if forms[i] != nil {
			result.Forms = append(result.Forms, *forms[i])
			continue
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, Failure{Ref: ref, Err: failures[i]})
		}
	}
	return result, nil
}

// LoadForm fetches a single schema and builds its item tree.
func (l *Loader) LoadForm(ctx context.Context, ref SchemaRef, names Names) (Form, error) {
	if l == nil || l.catalog == nil {
		return Form{}, ErrNoCatalog
	}
	doc, err := l.fetchRoot(ctx, ref)
	if err != nil {
		return Form{}, err
	}
	root, err := doc.Decode()
	if err != nil {
		return Form{}, err
	}

	sess := &session{
		catalog:  l.catalog,
		names:    names,
		maxDepth: l.maxRefDepth,
		visiting: make(map[string]struct{}),
		cache:    make(map[string]*schema.Property),
	}
	location := doc.Location()
	sess.visiting[location] = struct{}{}

	items, err := sess.items(ctx, root, location, "")
	if err != nil {
		return Form{}, fmt.Errorf("mixins: schema %s: %w", ref.ID, err)
	}

	return Form{
		SchemaID:    ref.ID,
		Version:     ref.Version,
		SchemaURL:   location,
		Kind:        ref.Kind,
		Title:       strings.TrimSpace(root.Title),
		Description: strings.TrimSpace(root.Description),
		Items:       model.SortItems(items),
	}, nil
}

func (l *Loader) fetchRoot(ctx context.Context, ref SchemaRef) (schema.Document, error) {
	var (
		doc schema.Document
		err error
	)
	switch ref.Kind {
	case RefKindSchema:
		doc, err = l.catalog.SchemaDocument(ctx, ref.ID, ref.Version)
	case RefKindReference:
		doc, err = l.catalog.ReferenceDocument(ctx, ref.ID, ref.Version)
	case RefKindMixin, "":
		if strings.TrimSpace(ref.URL) == "" {
			return schema.Document{}, fmt.Errorf("mixins: mixin %s has no URL", ref.ID)
		}
		doc, err = l.catalog.MixinsSchema(ctx, ref.URL)
	default:
		return schema.Document{}, fmt.Errorf("mixins: unknown ref kind %q", ref.Kind)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("mixins: fetch %s: %w", ref.ID, err)
	}
	return doc, nil
}

// session resolves one schema. It is confined to a single goroutine.
type session struct {
	catalog  Catalog
	names    Names
	maxDepth int
	visiting map[string]struct{}
	cache    map[string]*schema.Property
}

func (s *session) items(ctx context.Context, parent *schema.Property, base, prefix string) ([]model.FormItem, error) {
	keys := parent.PropertyKeys()
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([]model.FormItem, 0, len(keys))
	for _, key := range keys {
		item, err := s.item(ctx, key, parent.Properties[key], parent.IsRequired(key), base, prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *session) item(ctx context.Context, key string, prop *schema.Property, required bool, base, prefix string) (model.FormItem, error) {
	path := key
	if prefix != "" {
		path = prefix + "." + key
	}
	if prop == nil {
		prop = &schema.Property{}
	}

	node, nodeBase, refURL := prop, base, ""
	if prop.Ref != "" && model.Classify(prop) == model.KindObject {
		target, location, leave, err := s.enter(ctx, base, prop.Ref)
		if err != nil {
			return model.FormItem{}, fmt.Errorf("%s: %w", path, err)
		}
		defer leave()
		node, nodeBase, refURL = schema.MergeRef(target, prop), location, location
	}

	item := model.FormItem{
		Key:         key,
		Path:        path,
		Names:       s.namesFor(key, node.Title),
		Description: strings.TrimSpace(node.Description),
		Kind:        model.Classify(node),
		Required:    required,
		ReadOnly:    node.ReadOnly,
		Editor:      node.Editor(),
		Ref:         refURL,
	}

	switch item.Kind {
	case model.KindEnum:
		item.Options = append([]any(nil), node.Enum...)
	case model.KindObject:
		children, err := s.items(ctx, node, nodeBase, path)
		if err != nil {
			return model.FormItem{}, err
		}
		item.Children = children
	case model.KindArray:
		elem, elemBase := node.Items, nodeBase
		if elem != nil && elem.Ref != "" && model.Classify(elem) == model.KindObject {
			target, location, leave, err := s.enter(ctx, nodeBase, elem.Ref)
			if err != nil {
				return model.FormItem{}, fmt.Errorf("%s: %w", path, err)
			}
			defer leave()
			elem, elemBase = schema.MergeRef(target, elem), location
		}
		item.ElementKind = model.Classify(elem)
		switch item.ElementKind {
		case model.KindObject:
			children, err := s.items(ctx, elem, elemBase, path)
			if err != nil {
				return model.FormItem{}, err
			}
			item.Children = children
		case model.KindEnum:
			item.Options = append([]any(nil), elem.Enum...)
		}
	}
	return item, nil
}

// enter fetches the document a $ref points at and marks it as being resolved
// until leave is called. A document already on the stack is a cycle.
func (s *session) enter(ctx context.Context, base, ref string) (*schema.Property, string, func(), error) {
	location, err := schema.ResolveReference(base, ref)
	if err != nil {
		return nil, "", nil, err
	}
	if _, cyclic := s.visiting[location]; cyclic {
		return nil, "", nil, fmt.Errorf("%s: %w", location, ErrRefCycle)
	}
	if len(s.visiting) >= s.maxDepth {
		return nil, "", nil, fmt.Errorf("%s: %w", location, ErrRefDepth)
	}

	target, ok := s.cache[location]
	if !ok {
		doc, err := s.catalog.MixinsSchema(ctx, location)
		if err != nil {
			return nil, "", nil, fmt.Errorf("resolve $ref %s: %w", location, err)
		}
		target, err = doc.Decode()
		if err != nil {
			return nil, "", nil, err
		}
		s.cache[location] = target
	}

	s.visiting[location] = struct{}{}
	return target, location, func() { delete(s.visiting, location) }, nil
}

func (s *session) namesFor(key, title string) map[string]string {
	source := s.names[key]
	if len(source) == 0 && title == "" {
		return nil
	}
	out := make(map[string]string, len(source)+1)
	for lang, name := range source {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if name = strings.TrimSpace(name); name != "" {
			out[lang] = name
		}
	}
	if title = strings.TrimSpace(title); title != "" {
		if _, ok := out[""]; !ok {
			out[""] = title
		}
	}
	return out
}
