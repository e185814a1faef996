package model

import (
	"strings"
)

// FieldKind is the closed set of classified field types.
type FieldKind string

const (
	KindText      FieldKind = "text"
	KindInteger   FieldKind = "integer"
	KindDecimal   FieldKind = "decimal"
	KindBoolean   FieldKind = "boolean"
	KindEnum      FieldKind = "enum"
	KindDate      FieldKind = "date"
	KindDateTime  FieldKind = "date-time"
	KindTime      FieldKind = "time"
	KindLocalized FieldKind = "localized"
	KindObject    FieldKind = "object"
	KindArray     FieldKind = "array"
	KindUnknown   FieldKind = "unknown"
)

// Kinds lists every FieldKind in declaration order.
var Kinds = []FieldKind{
	KindText, KindInteger, KindDecimal, KindBoolean, KindEnum, KindDate,
	KindDateTime, KindTime, KindLocalized, KindObject, KindArray, KindUnknown,
}

// Valid reports whether k is one of the declared kinds.
func (k FieldKind) Valid() bool {
	for _, kind := range Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Numeric reports whether values of this kind are numbers.
func (k FieldKind) Numeric() bool {
	return k == KindInteger || k == KindDecimal
}

// Composite reports whether the kind nests other values.
func (k FieldKind) Composite() bool {
	return k == KindObject || k == KindArray
}

// DefaultLanguage is used when a display name lookup has no better match.
const DefaultLanguage = "en"

// FormItem is the resolved, UI-ready representation of a schema property.
type FormItem struct {
	Key         string            `json:"key"`
	Path        string            `json:"path"`
	Names       map[string]string `json:"names,omitempty"`
	Description string            `json:"description,omitempty"`
	Kind        FieldKind         `json:"kind"`
	ElementKind FieldKind         `json:"elementKind,omitempty"`
	Required    bool              `json:"required"`
	ReadOnly    bool              `json:"readOnly,omitempty"`
	Options     []any             `json:"options,omitempty"`
	Children    []FormItem        `json:"children,omitempty"`
	Editor      string            `json:"editor,omitempty"`
	Ref         string            `json:"ref,omitempty"`
}

// DisplayName resolves the label for lang, falling back to the default
// language, the schema title stored under "", and finally a label derived
// from the key.
func (f FormItem) DisplayName(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if name := strings.TrimSpace(f.Names[lang]); name != "" {
		return name
	}
	if base, _, ok := strings.Cut(lang, "-"); ok {
		if name := strings.TrimSpace(f.Names[base]); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(f.Names[DefaultLanguage]); name != "" {
		return name
	}
	if name := strings.TrimSpace(f.Names[""]); name != "" {
		return name
	}
	return DefaultLabeler(f.Key)
}

// IsArrayOfObjects reports whether the item is a list of nested sections.
func (f FormItem) IsArrayOfObjects() bool {
	return f.Kind == KindArray && f.ElementKind == KindObject
}

// IsArrayOfScalars reports whether the item is a list of leaf values.
func (f FormItem) IsArrayOfScalars() bool {
	return f.Kind == KindArray && f.ElementKind != KindObject
}

// Child returns the direct child with the given key.
func (f FormItem) Child(key string) (FormItem, bool) {
	for _, child := range f.Children {
		if child.Key == key {
			return child, true
		}
	}
	return FormItem{}, false
}

// Find walks items by dot-separated key path. Array element segments are not
// part of item paths.
func Find(items []FormItem, path string) (FormItem, bool) {
	segments := strings.Split(strings.TrimSpace(path), ".")
	current := items
	var found FormItem
	for _, segment := range segments {
		ok := false
		for _, item := range current {
			if item.Key == segment {
				found, ok = item, true
				break
			}
		}
		if !ok {
			return FormItem{}, false
		}
		current = found.Children
	}
	return found, true
}
