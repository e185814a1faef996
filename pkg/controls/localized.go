package controls

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/editable"
)

const (
	languageField = "language"
	valueField    = "value"
)

// LocalizedMap flattens a localized value into language -> text. It accepts
// the editing form (editable.List), the persisted form ([]any of
// {language, value} objects) and an already flat map.
func LocalizedMap(value any) map[string]string {
	out := make(map[string]string)
	add := func(entry any) {
		fields, ok := entry.(map[string]any)
		if !ok {
			return
		}
		lang, _ := fields[languageField].(string)
		text, _ := fields[valueField].(string)
		if lang = strings.TrimSpace(lang); lang != "" {
			out[lang] = text
		}
	}
	switch typed := value.(type) {
	case editable.List:
		for _, el := range typed {
			add(el.Value)
		}
	case []any:
		for _, entry := range typed {
			add(entry)
		}
	case map[string]string:
		for lang, text := range typed {
			out[lang] = text
		}
	}
	return out
}

// LocalizedList rebuilds the id-keyed localized array from translations.
// Languages already present in current keep their element id and position;
// new languages are appended in name order with fresh ids. Languages whose
// text is blank are dropped.
func LocalizedList(adapter *editable.Adapter, current any, translations map[string]string) editable.List {
	if adapter == nil {
		adapter = editable.New()
	}
	existing, _ := current.(editable.List)

	out := make(editable.List, 0, len(translations))
	placed := make(map[string]struct{}, len(translations))
	for _, el := range existing {
		fields, _ := el.Value.(map[string]any)
		lang, _ := fields[languageField].(string)
		if _, done := placed[lang]; done {
			continue
		}
		text, ok := translations[lang]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		placed[lang] = struct{}{}
		out = append(out, editable.Element{ID: el.ID, Value: localizedEntry(lang, text)})
	}

	langs := make([]string, 0, len(translations))
	for lang := range translations {
		if _, done := placed[lang]; !done {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	for _, lang := range langs {
		text := translations[lang]
		if strings.TrimSpace(lang) == "" || strings.TrimSpace(text) == "" {
			continue
		}
		// Ids of dropped elements stay reserved so they are never reused.
		reserved := append(append(editable.List(nil), existing...), out...)
		id := adapter.NewID(reserved)
		out = append(out, editable.Element{ID: id, Value: localizedEntry(lang, text)})
	}
	return out
}

func localizedEntry(lang, text string) map[string]any {
	return map[string]any{languageField: lang, valueField: text}
}

func toTranslations(raw any) (map[string]string, error) {
	switch typed := raw.(type) {
	case map[string]string:
		return typed, nil
	case map[string]any:
		out := make(map[string]string, len(typed))
		for lang, value := range typed {
			switch text := value.(type) {
			case string:
				out[lang] = text
			case nil:
				out[lang] = ""
			default:
				return nil, fmt.Errorf("%w: translation %q is %T", ErrInvalidInput, lang, value)
			}
		}
		return out, nil
	case editable.List, []any:
		return LocalizedMap(typed), nil
	default:
		return nil, fmt.Errorf("%w: localized value is %T", ErrInvalidInput, raw)
	}
}
