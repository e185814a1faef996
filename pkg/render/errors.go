package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/model"
)

// ErrorMapping splits a validation payload into node-level and form-level
// messages. Node keys are the node paths produced by Build.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload maps a persistence validation payload onto node paths.
// Payload keys may be JSON pointers or dotted paths and address array
// elements by position ("/value/variants/1/size"); positions are translated
// to element ids using tree. Keys that match no item land in Form.
func MapErrorPayload(items []model.FormItem, tree map[string]any, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		path, formLevel := mapErrorPath(rawPath, items, tree)
		if formLevel {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[path] = append(mapping.Fields[path], normalized...)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, items []model.FormItem, tree map[string]any) (string, bool) {
	if isFormLevelKey(raw) {
		return "", true
	}
	segments := dropWrapperSegments(parsePathSegments(raw))
	if len(segments) == 0 {
		return "", true
	}
	path := walkErrorPath(segments, items, tree)
	if path == "" {
		return "", true
	}
	return path, false
}

// walkErrorPath follows segments through items and returns the longest node
// path they reach. A positional segment after an array item becomes the id
// of the element at that position; when the position is unknown the path
// stops at the array.
func walkErrorPath(segments []string, items []model.FormItem, tree map[string]any) string {
	var (
		matched []string
		node    any = tree
	)
	for i := 0; i < len(segments); i++ {
		item, ok := findItem(items, segments[i])
		if !ok {
			break
		}
		matched = append(matched, item.Key)
		fields, _ := node.(map[string]any)
		node = fields[item.Key]
		items = item.Children
		if item.Kind != model.KindArray || i+1 >= len(segments) {
			continue
		}
		pos, err := strconv.Atoi(segments[i+1])
		list, _ := node.(editable.List)
		if err != nil || pos < 0 || pos >= len(list) {
			break
		}
		i++
		matched = append(matched, list[pos].ID)
		node = list[pos].Value
		if item.ElementKind != model.KindObject {
			break
		}
	}
	return strings.Join(matched, ".")
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimLeft(clean, "#/.$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":    {},
	"request": {},
	"payload": {},
	"data":    {},
	"value":   {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
