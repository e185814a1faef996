package schema

import (
	"encoding/json"
	"sort"
	"strings"
)

// Property is one node of a mixins schema document. The format is a subset
// of JSON Schema plus the json-editor `options.editor` hint.
type Property struct {
	Ref               string               `json:"$ref,omitempty"`
	ID                string               `json:"$id,omitempty"`
	Type              string               `json:"-"`
	Title             string               `json:"title,omitempty"`
	Description       string               `json:"description,omitempty"`
	Format            string               `json:"format,omitempty"`
	Pattern           string               `json:"pattern,omitempty"`
	PatternProperties map[string]*Property `json:"patternProperties,omitempty"`
	Enum              []any                `json:"enum,omitempty"`
	MultipleOf        *float64             `json:"multipleOf,omitempty"`
	ReadOnly          bool                 `json:"readOnly,omitempty"`
	Required          []string             `json:"required,omitempty"`
	Properties        map[string]*Property `json:"properties,omitempty"`
	Items             *Property            `json:"items,omitempty"`
	Default           any                  `json:"default,omitempty"`
	Options           *Options             `json:"options,omitempty"`
}

// Options carries editor directives attached to a property.
type Options struct {
	Editor string `json:"editor,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

type propertyAlias Property

// UnmarshalJSON accepts `type` as a string or as a list such as
// ["string", "null"], in which case the first non-null entry wins.
func (p *Property) UnmarshalJSON(data []byte) error {
	var aux struct {
		propertyAlias
		RawType json.RawMessage `json:"type,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Property(aux.propertyAlias)
	p.Type = decodeType(aux.RawType)
	return nil
}

// MarshalJSON writes `type` back as a plain string.
func (p Property) MarshalJSON() ([]byte, error) {
	aux := struct {
		propertyAlias
		Type string `json:"type,omitempty"`
	}{propertyAlias: propertyAlias(p), Type: p.Type}
	return json.Marshal(aux)
}

func decodeType(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, entry := range list {
			if entry = strings.TrimSpace(entry); entry != "" && entry != "null" {
				return entry
			}
		}
	}
	return ""
}

// IsRequired reports whether key is listed in the node's required list.
func (p *Property) IsRequired(key string) bool {
	if p == nil {
		return false
	}
	for _, item := range p.Required {
		if item == key {
			return true
		}
	}
	return false
}

// Editor returns the options.editor hint, if any.
func (p *Property) Editor() string {
	if p == nil || p.Options == nil {
		return ""
	}
	return strings.TrimSpace(p.Options.Editor)
}

// PropertyKeys returns the keys of Properties in ascending order.
func (p *Property) PropertyKeys() []string {
	if p == nil || len(p.Properties) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.Properties))
	for key := range p.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the property tree.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	out := *p
	if p.MultipleOf != nil {
		value := *p.MultipleOf
		out.MultipleOf = &value
	}
	if p.Options != nil {
		opts := *p.Options
		out.Options = &opts
	}
	out.Enum = append([]any(nil), p.Enum...)
	out.Required = append([]string(nil), p.Required...)
	out.Properties = cloneProperties(p.Properties)
	out.PatternProperties = cloneProperties(p.PatternProperties)
	out.Items = p.Items.Clone()
	return &out
}

// MergeRef overlays the referring node's own keywords onto a resolved $ref
// target. The target provides the shape; the referring node keeps its title,
// description, read-only flag and editor hint.
func MergeRef(target, referrer *Property) *Property {
	if target == nil {
		return referrer.Clone()
	}
	merged := target.Clone()
	merged.Ref = ""
	if referrer == nil {
		return merged
	}
	if referrer.Title != "" {
		merged.Title = referrer.Title
	}
	if referrer.Description != "" {
		merged.Description = referrer.Description
	}
	if referrer.ReadOnly {
		merged.ReadOnly = true
	}
	if referrer.Options != nil {
		opts := *referrer.Options
		merged.Options = &opts
	}
	if referrer.Default != nil {
		merged.Default = referrer.Default
	}
	if merged.Type == "" && len(merged.Properties) > 0 {
		merged.Type = "object"
	}
	return merged
}

func cloneProperties(in map[string]*Property) map[string]*Property {
	if in == nil {
		return nil
	}
	out := make(map[string]*Property, len(in))
	for key, value := range in {
		out[key] = value.Clone()
	}
	return out
}
