package html

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/render/template"
)

// timeInputPattern mirrors the HH:MM check time controls apply on blur.
const timeInputPattern = "([01][0-9]|2[0-3]):[0-5][0-9]"

// registerHelpers installs the filters and globals form.tpl relies on:
//
//	domid        dotted node path to an HTML id
//	sanitize     description markup through the bluemonday policy
//	time_pattern pattern attribute of time inputs
func registerHelpers(engine template.TemplateRenderer) error {
	filters := map[string]template.FilterFunc{
		"domid": func(in any, _ any) (any, error) {
			return DOMID(stringInput(in)), nil
		},
		"sanitize": func(in any, _ any) (any, error) {
			return SanitizeDescription(stringInput(in)), nil
		},
	}
	for name, fn := range filters {
		if err := engine.RegisterFilter(name, fn); err != nil && !errors.Is(err, template.ErrFilterExists) {
			return fmt.Errorf("html: register filter %q: %w", name, err)
		}
	}
	return engine.GlobalContext(map[string]any{
		"time_pattern": timeInputPattern,
	})
}

// DOMID turns a dotted node path into an HTML id: "variants.e1.size"
// becomes "mf-variants-e1-size". Characters outside [A-Za-z0-9_-] become
// underscores.
func DOMID(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "mf"
	}
	var b strings.Builder
	b.WriteString("mf-")
	for _, r := range path {
		switch {
		case r == '.':
			b.WriteByte('-')
		case r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func stringInput(in any) string {
	switch v := in.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
