package mixins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// Catalog fetches schema documents. Implementations are expected to honour
// ctx cancellation.
type Catalog interface {
	SchemaDocument(ctx context.Context, id string, version int) (schema.Document, error)
	ReferenceDocument(ctx context.Context, id string, version int) (schema.Document, error)
	MixinsSchema(ctx context.Context, location string) (schema.Document, error)
}

// Lister is implemented by catalogs that can enumerate their default schema
// list.
type Lister interface {
	ListSchemas(ctx context.Context) ([]SchemaRef, error)
}

// CatalogConfig holds the URL templates of a loader-backed catalog. Templates
// substitute {id} and {version}.
type CatalogConfig struct {
	SchemaURL    string `json:"schemaUrl" yaml:"schema_url"`
	ReferenceURL string `json:"referenceUrl" yaml:"reference_url"`
	IndexURL     string `json:"indexUrl,omitempty" yaml:"index_url,omitempty"`
}

// LoaderCatalog is a Catalog backed by a schema.Loader, so the same code
// serves HTTP catalogs, directories on disk and embedded fs.FS bundles.
type LoaderCatalog struct {
	loader schema.Loader
	cfg    CatalogConfig
}

var (
	_ Catalog = (*LoaderCatalog)(nil)
	_ Lister  = (*LoaderCatalog)(nil)
)

// NewCatalog constructs a LoaderCatalog.
func NewCatalog(loader schema.Loader, cfg CatalogConfig) (*LoaderCatalog, error) {
	if loader == nil {
		return nil, errors.New("mixins: catalog loader is required")
	}
	return &LoaderCatalog{loader: loader, cfg: cfg}, nil
}

// SchemaDocument fetches a versioned schema.
func (c *LoaderCatalog) SchemaDocument(ctx context.Context, id string, version int) (schema.Document, error) {
	location, err := expandTemplate(c.cfg.SchemaURL, id, version)
	if err != nil {
		return schema.Document{}, fmt.Errorf("mixins: schema %s: %w", id, err)
	}
	return c.MixinsSchema(ctx, location)
}

// ReferenceDocument fetches a versioned reference schema.
func (c *LoaderCatalog) ReferenceDocument(ctx context.Context, id string, version int) (schema.Document, error) {
	location, err := expandTemplate(c.cfg.ReferenceURL, id, version)
	if err != nil {
		return schema.Document{}, fmt.Errorf("mixins: reference %s: %w", id, err)
	}
	return c.MixinsSchema(ctx, location)
}

// MixinsSchema fetches an arbitrary schema location.
func (c *LoaderCatalog) MixinsSchema(ctx context.Context, location string) (schema.Document, error) {
	src, err := schema.SourceFor(location)
	if err != nil {
		return schema.Document{}, err
	}
	return c.loader.Load(ctx, src)
}

type catalogIndex struct {
	Schemas    []string `json:"schemas"`
	References []string `json:"references"`
}

// ListSchemas fetches the catalog index, a JSON object with `schemas` and
// `references` URL lists. Without an index URL the list is empty.
func (c *LoaderCatalog) ListSchemas(ctx context.Context) ([]SchemaRef, error) {
	if strings.TrimSpace(c.cfg.IndexURL) == "" {
		return nil, nil
	}
	doc, err := c.MixinsSchema(ctx, c.cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("mixins: fetch index: %w", err)
	}
	var index catalogIndex
	if err := json.Unmarshal(doc.Raw(), &index); err != nil {
		return nil, fmt.Errorf("mixins: decode index: %w", err)
	}
	return Sources{SchemaURLs: index.Schemas, ReferenceURLs: index.References}.Refs()
}

func expandTemplate(template, id string, version int) (string, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return "", errors.New("catalog URL template is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("schema id is required")
	}
	replacer := strings.NewReplacer("{id}", id, "{version}", strconv.Itoa(version))
	return replacer.Replace(template), nil
}
