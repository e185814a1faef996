package model

import (
	"encoding/json"
	"testing"

	"github.com/goliatone/go-mixinsform/pkg/schema"
)

func decodeProperty(t *testing.T, raw string) *schema.Property {
	t.Helper()
	var prop schema.Property
	if err := json.Unmarshal([]byte(raw), &prop); err != nil {
		t.Fatalf("decode property: %v", err)
	}
	return &prop
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want FieldKind
	}{
		{"text", `{"type":"string"}`, KindText},
		{"pattern string is unknown", `{"type":"string","pattern":"^[A-Z]+$"}`, KindUnknown},
		{"pattern beats enum", `{"type":"string","pattern":".*","enum":["a"]}`, KindUnknown},
		{"pattern properties", `{"type":"object","patternProperties":{"^x-":{"type":"string"}}}`, KindUnknown},
		{"enum", `{"type":"string","enum":["red","green"]}`, KindEnum},
		{"enum beats boolean", `{"type":"boolean","enum":[true]}`, KindEnum},
		{"enum beats integer", `{"type":"integer","enum":[1,2]}`, KindEnum},
		{"boolean", `{"type":"boolean"}`, KindBoolean},
		{"integer", `{"type":"integer"}`, KindInteger},
		{"number without multipleOf", `{"type":"number"}`, KindInteger},
		{"number with other step", `{"type":"number","multipleOf":0.5}`, KindInteger},
		{"decimal", `{"type":"number","multipleOf":0.01}`, KindDecimal},
		{"date", `{"type":"string","format":"date"}`, KindDate},
		{"date-time", `{"type":"string","format":"date-time"}`, KindDateTime},
		{"time", `{"type":"string","format":"time"}`, KindTime},
		{"nullable string list type", `{"type":["null","string"]}`, KindText},
		{"localized v2", `{"type":"array","items":{"$ref":"https://schemas.example.com/schemata2/languageValue_v1.json"}}`, KindLocalized},
		{"localized v1", `{"type":"array","items":{"$ref":"https://schemas.example.com/schemata/languageValue_v1.json"}}`, KindLocalized},
		{"array of other ref", `{"type":"array","items":{"$ref":"https://schemas.example.com/schemata2/dimension_v1.json"}}`, KindArray},
		{"array of strings", `{"type":"array","items":{"type":"string"}}`, KindArray},
		{"object", `{"type":"object","properties":{"a":{"type":"string"}}}`, KindObject},
		{"ref without properties", `{"$ref":"https://schemas.example.com/dimension_v1.json"}`, KindObject},
		{"untyped properties", `{"properties":{"a":{"type":"string"}}}`, KindObject},
		{"empty node", `{}`, KindUnknown},
		{"unsupported type", `{"type":"null"}`, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop := decodeProperty(t, tt.raw)
			got := Classify(prop)
			if got != tt.want {
				t.Fatalf("Classify(%s) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := Classify(prop); again != got {
				t.Fatalf("Classify not idempotent: %q then %q", got, again)
			}
			if !got.Valid() {
				t.Fatalf("Classify returned undeclared kind %q", got)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != KindUnknown {
		t.Fatalf("Classify(nil) = %q, want unknown", got)
	}
}

func TestClassifyElement(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want FieldKind
	}{
		{"strings", `{"type":"array","items":{"type":"string"}}`, KindText},
		{"decimals", `{"type":"array","items":{"type":"number","multipleOf":0.01}}`, KindDecimal},
		{"enum items", `{"type":"array","items":{"type":"string","enum":["s","m"]}}`, KindEnum},
		{"objects", `{"type":"array","items":{"type":"object","properties":{"w":{"type":"number"}}}}`, KindObject},
		{"ref items", `{"type":"array","items":{"$ref":"dimension_v1.json"}}`, KindObject},
		{"pattern items", `{"type":"array","items":{"type":"string","pattern":"^a"}}`, KindUnknown},
		{"missing items", `{"type":"array"}`, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyElement(decodeProperty(t, tt.raw)); got != tt.want {
				t.Fatalf("ClassifyElement(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
