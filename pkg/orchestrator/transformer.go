package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/model"
)

// Transformer mutates a loaded Form before a session is opened on it.
// Implementations can rename fields, lock them, or perform arbitrary rewrites.
type Transformer interface {
	Transform(ctx context.Context, form *mixins.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *mixins.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *mixins.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies declarative overrides loaded from a YAML (or
// JSON) document keyed by schema id:
//
//	product:
//	  title: Product details
//	  fields:
//	    title: {names: {de: Titel}, readOnly: true}
//	    address.city: {description: Shipping city}
//
// Field keys are item paths. Unknown paths fail the transform so typos
// surface at load time.
type PresetTransformer struct {
	forms map[string]formPreset
}

type formPreset struct {
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Fields      map[string]fieldPreset `yaml:"fields"`
}

type fieldPreset struct {
	Names       map[string]string `yaml:"names"`
	Description string            `yaml:"description"`
	ReadOnly    *bool             `yaml:"readOnly"`
	Required    *bool             `yaml:"required"`
	Editor      string            `yaml:"editor"`
}

// NewPresetTransformer constructs a transformer from raw document bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var forms map[string]formPreset
	if err := yaml.Unmarshal(data, &forms); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{forms: forms}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the preset registered for form.SchemaID, if any.
func (t *PresetTransformer) Transform(_ context.Context, form *mixins.Form) error {
	if t == nil || form == nil {
		return nil
	}
	preset, ok := t.forms[form.SchemaID]
	if !ok {
		return nil
	}
	if preset.Title != "" {
		form.Title = preset.Title
	}
	if preset.Description != "" {
		form.Description = preset.Description
	}

	items := cloneItems(form.Items)
	for path, patch := range preset.Fields {
		item := findPath(items, path)
		if item == nil {
			return fmt.Errorf("preset transformer: %s: unknown field %q", form.SchemaID, path)
		}
		patch.apply(item)
	}
	form.Items = items
	return nil
}

func (p fieldPreset) apply(item *model.FormItem) {
	if len(p.Names) > 0 {
		names := make(map[string]string, len(item.Names)+len(p.Names))
		for lang, name := range item.Names {
			names[lang] = name
		}
		for lang, name := range p.Names {
			names[strings.ToLower(lang)] = name
		}
		item.Names = names
	}
	if p.Description != "" {
		item.Description = p.Description
	}
	if p.ReadOnly != nil {
		item.ReadOnly = *p.ReadOnly
	}
	if p.Required != nil {
		item.Required = *p.Required
	}
	if p.Editor != "" {
		item.Editor = p.Editor
	}
}

// cloneItems copies the item slices so patches never reach a form shared with
// other sessions. Maps are replaced, not mutated, by apply.
func cloneItems(items []model.FormItem) []model.FormItem {
	if items == nil {
		return nil
	}
	out := make([]model.FormItem, len(items))
	for i, item := range items {
		item.Children = cloneItems(item.Children)
		out[i] = item
	}
	return out
}

func findPath(items []model.FormItem, path string) *model.FormItem {
	for i := range items {
		if items[i].Path == path {
			return &items[i]
		}
		if strings.HasPrefix(path, items[i].Path+".") {
			if found := findPath(items[i].Children, path); found != nil {
				return found
			}
		}
	}
	return nil
}
