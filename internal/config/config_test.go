package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mixinsform/internal/config"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
)

const sampleConfig = `
server:
  addr: 127.0.0.1:9000
  request_timeout: 5s
language: de
log_level: debug
catalog:
  schema_url: https://schemas.example/schemas/{id}_v{version}.json
  reference_url: https://schemas.example/references/{id}_v{version}.json
  index_url: https://schemas.example/index.json
  timeout: 2s
loader:
  concurrency: 8
persister:
  endpoint: https://api.example/mixins
forms:
  mixins:
    - https://schemas.example/mixins/product_v1.json
  schemas:
    - https://schemas.example/schemas/address_v2.json
  skip_defaults: true
messages:
  DE:
    mixins.add: Hinzufügen
`

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := config.Default()
	want.Server = config.Server{Addr: "127.0.0.1:9000", RequestTimeout: 5 * time.Second}
	want.Language = "de"
	want.LogLevel = "debug"
	want.Catalog.CatalogConfig = mixins.CatalogConfig{
		SchemaURL:    "https://schemas.example/schemas/{id}_v{version}.json",
		ReferenceURL: "https://schemas.example/references/{id}_v{version}.json",
		IndexURL:     "https://schemas.example/index.json",
	}
	want.Catalog.Timeout = 2 * time.Second
	want.Loader.Concurrency = 8
	want.Persister.Endpoint = "https://api.example/mixins"
	want.Forms.MixinURLs = []string{"https://schemas.example/mixins/product_v1.json"}
	want.Forms.SchemaURLs = []string{"https://schemas.example/schemas/address_v2.json"}
	want.Forms.SkipDefaults = true
	want.Messages = map[string]map[string]string{"DE": {"mixins.add": "Hinzufügen"}}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	level, err := cfg.Level()
	if err != nil || level != slog.LevelDebug {
		t.Fatalf("level = %v, %v", level, err)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := config.Parse([]byte("catalog:\n  schema_url: x/{id}.json\nlistener: :80\n"))
	if err == nil || !strings.Contains(err.Error(), "listener") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	cfg.Loader.Concurrency = -1
	cfg.Persister.Endpoint = "ftp://nope"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"log_level", "schema_url is required", "concurrency", "persister.endpoint"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}

	cfg = config.Default()
	cfg.Catalog.SchemaURL = "https://schemas.example/static.json"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "{id}") {
		t.Fatalf("expected template error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestRequest_ReadsValuesAndNames(t *testing.T) {
	dir := t.TempDir()
	values := filepath.Join(dir, "values.json")
	names := filepath.Join(dir, "names.yaml")
	writeFile(t, values, `{"product":{"schemaUrl":"https://schemas.example/mixins/product_v1.json","value":{"title":"Shirt"}}}`)
	writeFile(t, names, "title:\n  de: Titel\n  en: Title\n")

	cfg := config.Default()
	cfg.Catalog.SchemaURL = "https://schemas.example/schemas/{id}_v{version}.json"
	cfg.Forms.MixinURLs = []string{"https://schemas.example/mixins/product_v1.json"}
	cfg.Forms.ValuesFile = values
	cfg.Forms.NamesFile = names

	req, err := cfg.Request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(req.Existing) != 1 || req.Existing[0].ID != "product" || req.Existing[0].Kind != mixins.RefKindMixin {
		t.Fatalf("unexpected refs: %+v", req.Existing)
	}
	if diff := cmp.Diff(map[string]any{"title": "Shirt"}, req.Values.Value("product")); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(mixins.Names{"title": {"de": "Titel", "en": "Title"}}, req.Names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestMessages_Translate(t *testing.T) {
	cfg := config.Default()
	cfg.Messages = map[string]map[string]string{"DE": {"mixins.add": "Hinzufügen", "mixins.count": "%d Einträge"}}
	messages := cfg.Translator()

	tests := []struct {
		locale, key string
		args        []any
		want        string
	}{
		{"de", "mixins.add", nil, "Hinzufügen"},
		{"de-CH", "mixins.add", nil, "Hinzufügen"},
		{"de", "mixins.count", []any{3}, "3 Einträge"},
	}
	for _, tt := range tests {
		got, err := messages.Translate(tt.locale, tt.key, tt.args...)
		if err != nil || got != tt.want {
			t.Fatalf("Translate(%q, %q) = %q, %v; want %q", tt.locale, tt.key, got, err, tt.want)
		}
	}
	if _, err := messages.Translate("fr", "mixins.add"); !errors.Is(err, config.ErrNoMessage) {
		t.Fatalf("expected ErrNoMessage, got %v", err)
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
