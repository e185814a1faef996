package editable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/model"
)

// maxIDAttempts bounds regeneration when an id generator repeats itself.
const maxIDAttempts = 16

// Adapter wraps value trees for editing. The zero value is not usable; build
// one with New.
type Adapter struct {
	newID IDFunc
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithIDFunc overrides the synthetic id generator (UUIDs by default).
func WithIDFunc(fn IDFunc) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// New constructs an Adapter.
func New(options ...Option) *Adapter {
	a := &Adapter{newID: UUIDs()}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// NewID returns an id that is not used by any element of list.
func (a *Adapter) NewID(list List) string {
	id := a.newID()
	for attempt := 0; list.Has(id) && attempt < maxIDAttempts; attempt++ {
		id = a.newID()
	}
	base := id
	for suffix := 2; list.Has(id); suffix++ {
		id = fmt.Sprintf("%s-%d", base, suffix)
	}
	return id
}

// ToEditable returns a copy of value where every array, at any depth, is
// replaced by a List whose elements carry fresh ids. Maps recurse field by
// field in key order, so a deterministic IDFunc yields deterministic trees;
// scalars pass through unchanged.
func (a *Adapter) ToEditable(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(typed))
		for _, key := range keys {
			out[key] = a.ToEditable(typed[key])
		}
		return out
	case []any:
		return a.Wrap(typed)
	case []map[string]any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = item
		}
		return a.Wrap(items)
	case []string:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = item
		}
		return a.Wrap(items)
	case List:
		return typed.clone()
	default:
		return value
	}
}

// ToEditableMap is ToEditable for a root object.
func (a *Adapter) ToEditableMap(value map[string]any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	return a.ToEditable(value).(map[string]any)
}

// Wrap tags each entry of values with a fresh id, recursing into the entries.
func (a *Adapter) Wrap(values []any) List {
	out := make(List, 0, len(values))
	for _, item := range values {
		out = append(out, Element{ID: a.NewID(out), Value: a.ToEditable(item)})
	}
	return out
}

// FromEditable is the inverse of ToEditable. Id-keyed elements are replaced
// by their unwrapped values. An object that ends up empty below the root is
// normalized to an empty array, matching how the console persisted mixins.
func FromEditable(value any) any {
	return fromEditable(value, false)
}

// FromEditableMap unwraps a root object. The root itself always stays an
// object.
func FromEditableMap(value map[string]any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	return fromEditable(value, true).(map[string]any)
}

func fromEditable(value any, root bool) any {
	switch typed := value.(type) {
	case List:
		out := make([]any, 0, len(typed))
		for _, el := range typed {
			out = append(out, fromEditable(el.Value, false))
		}
		return out
	case []Element:
		return fromEditable(List(typed), root)
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, fromEditable(item, false))
		}
		return out
	case map[string]any:
		if len(typed) == 0 && !root {
			return []any{}
		}
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[key] = fromEditable(child, false)
		}
		return out
	default:
		return value
	}
}

// Strip removes nil values and blank strings from maps and arrays, at any
// depth. The time control's single-space sentinel is blank and goes too.
func Strip(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			if isEmptyLeaf(child) {
				continue
			}
			out[key] = Strip(child)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			if isEmptyLeaf(item) {
				continue
			}
			out = append(out, Strip(item))
		}
		return out
	default:
		return value
	}
}

// StripMap is Strip for a root object.
func StripMap(value map[string]any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	return Strip(value).(map[string]any)
}

func isEmptyLeaf(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	default:
		return false
	}
}

// DefaultValue is the value a freshly appended element of kind starts with.
// Localized and unknown kinds start absent (nil).
func DefaultValue(kind model.FieldKind) any {
	switch kind {
	case model.KindText, model.KindEnum, model.KindDate, model.KindDateTime, model.KindTime:
		return ""
	case model.KindInteger:
		return int64(0)
	case model.KindDecimal:
		return float64(0)
	case model.KindBoolean:
		return false
	case model.KindArray:
		return List{}
	case model.KindObject:
		return map[string]any{}
	default:
		return nil
	}
}

// Append returns a copy of list with a new element holding the default value
// for kind, plus the new element's id.
func (a *Adapter) Append(list List, kind model.FieldKind) (List, string) {
	id := a.NewID(list)
	out := make(List, len(list), len(list)+1)
	copy(out, list)
	return append(out, Element{ID: id, Value: DefaultValue(kind)}), id
}

// Remove returns a copy of list without the element at index. The remaining
// elements keep their ids, values and relative order.
func Remove(list List, index int) (List, error) {
	if index < 0 || index >= len(list) {
		return list, fmt.Errorf("editable: remove index %d of [0,%d): %w", index, len(list), ErrIndexOutOfRange)
	}
	out := make(List, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}

// RemoveID returns a copy of list without the element with id.
func RemoveID(list List, id string) (List, error) {
	idx := list.Index(id)
	if idx < 0 {
		return list, fmt.Errorf("editable: element %q not found", id)
	}
	return Remove(list, idx)
}

// Move returns a copy of list with the element at from placed at to.
func Move(list List, from, to int) (List, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return list, fmt.Errorf("editable: move %d->%d of [0,%d): %w", from, to, len(list), ErrIndexOutOfRange)
	}
	out := make(List, 0, len(list))
	moved := list[from]
	for i, el := range list {
		if i == from {
			continue
		}
		out = append(out, el)
	}
	out = append(out[:to], append(List{moved}, out[to:]...)...)
	return out, nil
}

func (l List) clone() List {
	out := make(List, len(l))
	for i, el := range l {
		out[i] = Element{ID: el.ID, Value: cloneValue(el.Value)}
	}
	return out
}

// Clone deep-copies an editable tree.
func Clone(value any) any {
	return cloneValue(value)
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[key] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = cloneValue(child)
		}
		return out
	case List:
		return typed.clone()
	default:
		return value
	}
}
