package mixins

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Entry is the persisted value of one mixin plus the schema it conforms to.
type Entry struct {
	SchemaURL string         `json:"schemaUrl"`
	Value     map[string]any `json:"value"`
}

// Values is the mixins value tree of an entity keyed by schema id.
type Values map[string]Entry

// DecodeValues parses a JSON object of entries.
func DecodeValues(raw []byte) (Values, error) {
	if len(raw) == 0 {
		return Values{}, nil
	}
	var values Values
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("mixins: decode values: %w", err)
	}
	if values == nil {
		values = Values{}
	}
	return values, nil
}

// Keys returns the schema ids in ascending order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Refs derives mixin refs from the schema URL stored with each entry. The
// entry key is the schema id.
func (v Values) Refs() []SchemaRef {
	var refs []SchemaRef
	for _, key := range v.Keys() {
		entry := v[key]
		if entry.SchemaURL == "" {
			continue
		}
		ref, err := NewRef(RefKindMixin, entry.SchemaURL)
		if err != nil {
			continue
		}
		ref.ID = key
		refs = append(refs, ref)
	}
	return refs
}

// Value returns the stored tree for key, or nil.
func (v Values) Value(key string) map[string]any {
	if v == nil {
		return nil
	}
	return v[key].Value
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("status %d", code)
}
