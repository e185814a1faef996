package schema

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Identity names a schema inside a versioned catalog.
type Identity struct {
	ID      string
	Version int
}

func (i Identity) String() string {
	if i.Version <= 0 {
		return i.ID
	}
	return fmt.Sprintf("%s_v%d", i.ID, i.Version)
}

// ParseSchemaURL extracts the schema id and version from a catalog URL whose
// last path segment looks like `<id>_v<version>.json`. A segment without a
// version suffix yields version 0.
func ParseSchemaURL(raw string) (Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Identity{}, fmt.Errorf("schema: empty schema URL")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Identity{}, fmt.Errorf("schema: invalid schema URL %q: %w", raw, err)
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" || base == "" {
		return Identity{}, fmt.Errorf("schema: schema URL %q has no document name", raw)
	}
	base = strings.TrimSuffix(base, path.Ext(base))

	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return Identity{ID: base}, nil
	}
	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 0 {
		return Identity{ID: base}, nil
	}
	return Identity{ID: base[:idx], Version: version}, nil
}

// ResolveReference resolves ref against the location of the referring
// document. Absolute refs are returned as-is; fragments are dropped because
// mixins refs always point at whole documents.
func ResolveReference(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("schema: empty $ref")
	}
	if idx := strings.Index(ref, "#"); idx >= 0 {
		ref = ref[:idx]
	}
	if ref == "" {
		return "", fmt.Errorf("schema: local $ref fragments are not supported")
	}
	target, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("schema: invalid $ref %q: %w", ref, err)
	}
	if target.IsAbs() {
		return target.String(), nil
	}
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("schema: relative $ref %q without base", ref)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("schema: invalid base %q: %w", base, err)
	}
	if baseURL.IsAbs() {
		return baseURL.ResolveReference(target).String(), nil
	}
	return path.Join(path.Dir(baseURL.Path), target.Path), nil
}
