package testsupport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// BaseURL prefixes every document of the product fixture catalog.
const BaseURL = "https://schemas.test"

// Catalog is an in-memory mixins.Catalog keyed by document location.
// Versioned lookups resolve to BaseURL/schemas/<id>_v<version>.json and
// BaseURL/references/<id>_v<version>.json.
type Catalog struct {
	Docs     map[string]string
	Defaults []mixins.SchemaRef

	mu    sync.Mutex
	calls map[string]int
}

var (
	_ mixins.Catalog = (*Catalog)(nil)
	_ mixins.Lister  = (*Catalog)(nil)
)

// SchemaDocument implements mixins.Catalog.
func (c *Catalog) SchemaDocument(ctx context.Context, id string, version int) (schema.Document, error) {
	return c.MixinsSchema(ctx, fmt.Sprintf("%s/schemas/%s_v%d.json", BaseURL, id, version))
}

// ReferenceDocument implements mixins.Catalog.
func (c *Catalog) ReferenceDocument(ctx context.Context, id string, version int) (schema.Document, error) {
	return c.MixinsSchema(ctx, fmt.Sprintf("%s/references/%s_v%d.json", BaseURL, id, version))
}

// MixinsSchema implements mixins.Catalog.
func (c *Catalog) MixinsSchema(ctx context.Context, location string) (schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[location]++
	c.mu.Unlock()

	raw, ok := c.Docs[location]
	if !ok {
		return schema.Document{}, fmt.Errorf("testsupport: %s: %w", location, schema.ErrNotFound)
	}
	src, err := schema.SourceFor(location)
	if err != nil {
		return schema.Document{}, err
	}
	return schema.NewDocument(src, []byte(raw))
}

// ListSchemas implements mixins.Lister.
func (c *Catalog) ListSchemas(context.Context) ([]mixins.SchemaRef, error) {
	return c.Defaults, nil
}

// Calls reports how often location was fetched.
func (c *Catalog) Calls(location string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[location]
}

// ProductCatalog returns a catalog with a product mixin that exercises every
// field kind, plus the address and variant documents it references.
func ProductCatalog() *Catalog {
	return &Catalog{Docs: map[string]string{
		BaseURL + "/mixins/product_v1.json": `{
  "type": "object",
  "title": "Product",
  "description": "Product <b>details</b><script>alert(1)</script>",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "title": "Title"},
    "active": {"type": "boolean"},
    "stock": {"type": "integer"},
    "price": {"type": "number", "multipleOf": 0.01},
    "released": {"type": "string", "format": "date"},
    "opens": {"type": "string", "format": "time"},
    "color": {"enum": ["red", "blue"]},
    "sku": {"type": "string", "pattern": "^[A-Z]+$"},
    "name": {"type": "array", "items": {"$ref": "https://schemas.test/schemata2/languageValue_v1.json"}},
    "tags": {"type": "array", "items": {"type": "string"}},
    "address": {"$ref": "address_v1.json", "title": "Address"},
    "variants": {"type": "array", "items": {"$ref": "variant_v1.json"}}
  }
}`,
		BaseURL + "/mixins/address_v1.json": `{
  "type": "object",
  "properties": {
    "city": {"type": "string"},
    "zip": {"type": "string"}
  }
}`,
		BaseURL + "/mixins/variant_v1.json": `{
  "type": "object",
  "properties": {
    "size": {"enum": ["S", "M", "L"]},
    "extra": {"type": "object", "properties": {}}
  }
}`,
	}}
}

// ProductRef addresses the product mixin of ProductCatalog.
func ProductRef() mixins.SchemaRef {
	return mixins.SchemaRef{ID: "product", Version: 1, URL: BaseURL + "/mixins/product_v1.json", Kind: mixins.RefKindMixin}
}

// MustLoadForm loads ref from catalog.
func MustLoadForm(t *testing.T, catalog mixins.Catalog, ref mixins.SchemaRef) mixins.Form {
	t.Helper()
	form, err := mixins.NewLoader(catalog).LoadForm(context.Background(), ref, nil)
	if err != nil {
		t.Fatalf("load form %s: %v", ref.ID, err)
	}
	return form
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}

// SquashSpace collapses whitespace runs so template assertions ignore
// indentation.
func SquashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
