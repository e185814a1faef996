package mixins

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// RefKind tells the loader how to fetch a schema.
type RefKind string

const (
	// RefKindMixin URLs are fetched as-is.
	RefKindMixin RefKind = "mixin"
	// RefKindSchema refs are re-fetched from the schema catalog by id+version.
	RefKindSchema RefKind = "schema"
	// RefKindReference refs are fetched from the reference catalog by id+version.
	RefKindReference RefKind = "reference"
)

// SchemaRef identifies one schema to load.
type SchemaRef struct {
	ID      string  `json:"id" yaml:"id"`
	Version int     `json:"version,omitempty" yaml:"version,omitempty"`
	URL     string  `json:"url,omitempty" yaml:"url,omitempty"`
	Kind    RefKind `json:"kind" yaml:"kind"`
}

// NewRef derives a SchemaRef of kind from a catalog URL.
func NewRef(kind RefKind, rawURL string) (SchemaRef, error) {
	ident, err := schema.ParseSchemaURL(rawURL)
	if err != nil {
		return SchemaRef{}, err
	}
	switch kind {
	case RefKindMixin, RefKindSchema, RefKindReference:
	default:
		return SchemaRef{}, fmt.Errorf("mixins: unknown ref kind %q", kind)
	}
	return SchemaRef{
		ID:      ident.ID,
		Version: ident.Version,
		URL:     strings.TrimSpace(rawURL),
		Kind:    kind,
	}, nil
}

// Sources groups the three kinds of schema URLs a form can be configured
// with.
type Sources struct {
	MixinURLs     []string `json:"mixins,omitempty" yaml:"mixins,omitempty"`
	SchemaURLs    []string `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	ReferenceURLs []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Refs converts the URLs into SchemaRefs in mixins, schemas, references order.
func (s Sources) Refs() ([]SchemaRef, error) {
	var refs []SchemaRef
	add := func(kind RefKind, urls []string) error {
		for _, raw := range urls {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			ref, err := NewRef(kind, raw)
			if err != nil {
				return err
			}
			refs = append(refs, ref)
		}
		return nil
	}
	if err := add(RefKindMixin, s.MixinURLs); err != nil {
		return nil, err
	}
	if err := add(RefKindSchema, s.SchemaURLs); err != nil {
		return nil, err
	}
	if err := add(RefKindReference, s.ReferenceURLs); err != nil {
		return nil, err
	}
	return refs, nil
}

// MergeRefs concatenates the groups in precedence order and drops every ref
// whose schema id was already seen.
func MergeRefs(groups ...[]SchemaRef) []SchemaRef {
	seen := make(map[string]struct{})
	var out []SchemaRef
	for _, group := range groups {
		for _, ref := range group {
			id := strings.TrimSpace(ref.ID)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ref.ID = id
			out = append(out, ref)
		}
	}
	return out
}
