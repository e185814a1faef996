package render

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/model"
)

// NodeKind identifies the shape of a rendered node.
type NodeKind string

const (
	// NodeSection is a collapsible group for an object property.
	NodeSection NodeKind = "section"
	// NodeList holds one NodeEntry per array element.
	NodeList NodeKind = "list"
	// NodeEntry is one array element, keyed by its element id.
	NodeEntry NodeKind = "entry"
	// NodeControl is a leaf input.
	NodeControl NodeKind = "control"
)

// Node is one element of the rendered form tree. Path addresses the bound
// value; array elements appear as their element id, never their position.
type Node struct {
	Kind        NodeKind          `json:"kind"`
	Key         string            `json:"key"`
	Path        string            `json:"path"`
	ItemPath    string            `json:"itemPath"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Required    bool              `json:"required,omitempty"`
	ReadOnly    bool              `json:"readOnly,omitempty"`
	ElementKind model.FieldKind   `json:"elementKind,omitempty"`
	ElementID   string            `json:"elementId,omitempty"`
	Index       int               `json:"index"`
	Control     *controls.Control `json:"control,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	Children    []Node            `json:"children,omitempty"`
}

// ChangeFunc is notified with a node path and the coerced value whenever a
// bound control accepts input.
type ChangeFunc func(path string, value any)

// Options configure Build.
type Options struct {
	// Language selects display names and number formatting. Defaults to en.
	Language string
	// Adapter generates ids for localized entries.
	Adapter *editable.Adapter
	// Errors attaches messages to nodes by path.
	Errors map[string][]string
	// OnChange receives control input.
	OnChange ChangeFunc
}

// Build lays out items against an editable value tree. Siblings are ordered
// with model.SortItems at every level.
func Build(items []model.FormItem, value map[string]any, opts Options) []Node {
	b := builder{opts: opts, locale: parseLocale(opts.Language)}
	return b.items(model.SortItems(items), value, "")
}

type builder struct {
	opts   Options
	locale language.Tag
}

func parseLocale(raw string) language.Tag {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.English
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	return tag
}

func (b builder) lang() string {
	return strings.ToLower(b.locale.String())
}

func (b builder) items(items []model.FormItem, value map[string]any, prefix string) []Node {
	if len(items) == 0 {
		return nil
	}
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		var current any
		if value != nil {
			current = value[item.Key]
		}
		nodes = append(nodes, b.item(item, current, editable.JoinPath(prefix, item.Key)))
	}
	return nodes
}

func (b builder) item(item model.FormItem, value any, path string) Node {
	node := Node{
		Key:         item.Key,
		Path:        path,
		ItemPath:    item.Path,
		Label:       item.DisplayName(b.lang()),
		Description: item.Description,
		Required:    item.Required,
		ReadOnly:    item.ReadOnly,
		Errors:      b.opts.Errors[path],
	}

	switch item.Kind {
	case model.KindObject:
		node.Kind = NodeSection
		fields, _ := value.(map[string]any)
		node.Children = b.items(item.Children, fields, path)
	case model.KindArray:
		node.Kind = NodeList
		node.ElementKind = item.ElementKind
		list, _ := value.(editable.List)
		node.Children = b.entries(item, list, path)
	default:
		node.Kind = NodeControl
		control := b.control(item, value, path)
		node.Control = &control
	}
	return node
}

func (b builder) entries(item model.FormItem, list editable.List, path string) []Node {
	if len(list) == 0 {
		return nil
	}
	element := elementItem(item)
	out := make([]Node, 0, len(list))
	for i, el := range list {
		entryPath := editable.JoinPath(path, el.ID)
		entry := Node{
			Kind:        NodeEntry,
			Key:         item.Key,
			Path:        entryPath,
			ItemPath:    item.Path,
			Label:       entryLabel(item.DisplayName(b.lang()), i),
			ReadOnly:    item.ReadOnly,
			ElementKind: item.ElementKind,
			ElementID:   el.ID,
			Index:       i,
			Errors:      b.opts.Errors[entryPath],
		}
		if item.ElementKind == model.KindObject {
			fields, _ := el.Value.(map[string]any)
			entry.Children = b.items(item.Children, fields, entryPath)
		} else {
			control := b.control(element, el.Value, entryPath)
			entry.Control = &control
		}
		out = append(out, entry)
	}
	return out
}

// elementItem describes a single element of an array item. FormItem only
// records one level of element kind, so elements of an array of arrays
// render as disabled placeholders.
func elementItem(item model.FormItem) model.FormItem {
	element := item
	element.Kind = item.ElementKind
	element.ElementKind = ""
	element.Required = false
	if !element.Kind.Valid() || element.Kind == model.KindArray {
		element.Kind = model.KindUnknown
	}
	return element
}

func entryLabel(label string, index int) string {
	return label + " #" + strconv.Itoa(index+1)
}

func (b builder) control(item model.FormItem, value any, path string) controls.Control {
	var onChange controls.ChangeFunc
	if b.opts.OnChange != nil {
		notify := b.opts.OnChange
		onChange = func(v any) { notify(path, v) }
	}
	return controls.Resolve(item, value, onChange,
		controls.WithLocale(b.locale),
		controls.WithAdapter(b.opts.Adapter),
	)
}
