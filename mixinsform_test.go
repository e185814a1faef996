package mixinsform_test

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	mixinsform "github.com/goliatone/go-mixinsform"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/orchestrator"
	"github.com/goliatone/go-mixinsform/pkg/schema"
)

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.Stat(mixinsform.EmbeddedTemplates(), "form.tpl"); err != nil {
		t.Fatalf("form.tpl missing from embedded templates: %v", err)
	}
}

func TestGenerateHTML_FromFS(t *testing.T) {
	files := fstest.MapFS{
		"mixins/note_v1.json": {Data: []byte(`{"type":"object","title":"Note","properties":{"body":{"type":"string","title":"Body"}}}`)},
	}
	loader := mixinsform.NewSchemaLoader(schema.WithFileSystem(files))

	out, err := mixinsform.GenerateHTML(context.Background(),
		mixins.CatalogConfig{SchemaURL: "schemas/{id}_v{version}.json"},
		mixinsform.Request{
			SchemaID: "note",
			Form: mixins.Request{
				Existing:     []mixins.SchemaRef{{ID: "note", Version: 1, URL: "mixins/note_v1.json", Kind: mixins.RefKindMixin}},
				Values:       mixins.Values{"note": {Value: map[string]any{"body": "hello"}}},
				SkipDefaults: true,
			},
		},
		orchestrator.WithSchemaLoader(loader),
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{">Note</h2>", `name="body"`, `value="hello"`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
