package mixins

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinsform/internal/loader"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/schemas/brand_v2.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"type":"object","properties":{"name":{"type":"string"},"origin":{"$ref":"../mixins/origin_v1.json"}}}`)
	})
	mux.HandleFunc("/mixins/origin_v1.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"type":"object","properties":{"country":{"type":"string"}}}`)
	})
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"schemas":["https://cdn.test/schemas/brand_v2.json"],"references":["https://cdn.test/references/unit_v1.json"]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newHTTPCatalog(t *testing.T, srv *httptest.Server) *LoaderCatalog {
	t.Helper()
	l := loader.New(schema.NewLoaderOptions(
		schema.WithHTTPClient(srv.Client()),
		schema.WithHTTPFallback(time.Second),
	))
	catalog, err := NewCatalog(l, CatalogConfig{
		SchemaURL:    srv.URL + "/schemas/{id}_v{version}.json",
		ReferenceURL: srv.URL + "/references/{id}_v{version}.json",
		IndexURL:     srv.URL + "/index.json",
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return catalog
}

func TestLoaderCatalog_SchemaDocumentOverHTTP(t *testing.T) {
	srv := newCatalogServer(t)
	catalog := newHTTPCatalog(t, srv)

	form, err := NewLoader(catalog).LoadForm(context.Background(), SchemaRef{ID: "brand", Version: 2, Kind: RefKindSchema}, nil)
	if err != nil {
		t.Fatalf("LoadForm: %v", err)
	}
	if form.SchemaURL != srv.URL+"/schemas/brand_v2.json" {
		t.Fatalf("unexpected schema url %q", form.SchemaURL)
	}
	var keys []string
	for _, item := range form.Items {
		keys = append(keys, item.Path)
		for _, child := range item.Children {
			keys = append(keys, child.Path)
		}
	}
	if diff := cmp.Diff([]string{"name", "origin", "origin.country"}, keys); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderCatalog_NotFound(t *testing.T) {
	srv := newCatalogServer(t)
	catalog := newHTTPCatalog(t, srv)

	_, err := catalog.ReferenceDocument(context.Background(), "unit", 1)
	if !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoaderCatalog_ListSchemas(t *testing.T) {
	srv := newCatalogServer(t)
	catalog := newHTTPCatalog(t, srv)

	refs, err := catalog.ListSchemas(context.Background())
	if err != nil {
		t.Fatalf("ListSchemas: %v", err)
	}
	want := []SchemaRef{
		{ID: "brand", Version: 2, URL: "https://cdn.test/schemas/brand_v2.json", Kind: RefKindSchema},
		{ID: "unit", Version: 1, URL: "https://cdn.test/references/unit_v1.json", Kind: RefKindReference},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderCatalog_MissingTemplate(t *testing.T) {
	catalog, err := NewCatalog(loader.New(schema.LoaderOptions{}), CatalogConfig{})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if _, err := catalog.SchemaDocument(context.Background(), "brand", 1); err == nil {
		t.Fatalf("expected error for missing template")
	}
	refs, err := catalog.ListSchemas(context.Background())
	if err != nil || refs != nil {
		t.Fatalf("expected empty list without index, got %v, %v", refs, err)
	}
}

func TestHTTPPersister_Save(t *testing.T) {
	var (
		gotPath   string
		gotMethod string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	persister, err := NewHTTPPersister(srv.URL+"/entities/42/mixins/{key}", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPPersister: %v", err)
	}
	err = persister.Save(context.Background(), "brand", map[string]any{"teamId": "t-1"}, "https://cdn.test/mixins/brand_v1.json")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/entities/42/mixins/brand" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	want := map[string]any{
		"schemaUrl": "https://cdn.test/mixins/brand_v1.json",
		"value":     map[string]any{"teamId": "t-1"},
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPPersister_SaveError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teamId is required", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	persister, err := NewHTTPPersister(srv.URL+"/{key}", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPPersister: %v", err)
	}
	err = persister.Save(context.Background(), "brand", nil, "")
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("expected SaveError, got %v", err)
	}
	if saveErr.StatusCode != http.StatusUnprocessableEntity || saveErr.Body != "teamId is required" {
		t.Fatalf("unexpected SaveError %+v", saveErr)
	}
}

func TestValues_DecodeAndRefs(t *testing.T) {
	values, err := DecodeValues([]byte(`{
  "brand": {"schemaUrl": "https://cdn.test/mixins/brand_v3.json", "value": {"teamId": "t-1"}}
}`))
	if err != nil {
		t.Fatalf("DecodeValues: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"teamId": "t-1"}, values.Value("brand")); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	want := []SchemaRef{{ID: "brand", Version: 3, URL: "https://cdn.test/mixins/brand_v3.json", Kind: RefKindMixin}}
	if diff := cmp.Diff(want, values.Refs()); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
	if values.Value("missing") != nil {
		t.Fatalf("expected nil value for missing key")
	}
}

func TestMergeRefs_FirstWins(t *testing.T) {
	got := MergeRefs(
		[]SchemaRef{{ID: "a", Version: 1}, {ID: " "}},
		[]SchemaRef{{ID: "a", Version: 2}, {ID: "b", Version: 1}},
		[]SchemaRef{{ID: "b", Version: 9}, {ID: "c"}},
	)
	want := []SchemaRef{{ID: "a", Version: 1}, {ID: "b", Version: 1}, {ID: "c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}
