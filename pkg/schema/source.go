package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source identifies where a schema document originated so loaders can operate
// on files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: strings.TrimPrefix(name, "/")}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// ParseURLSource validates raw and returns a URL Source. Schema catalogs hand
// out absolute URLs, so relative references must be resolved before calling.
func ParseURLSource(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("schema: empty URL source")
	}
	parsed, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("schema: unsupported URL scheme %q", parsed.Scheme)
	}
	return urlSource{raw: trimmed}, nil
}

// SourceFromURL is ParseURLSource for static configuration. It panics on an
// invalid URL to surface configuration mistakes early.
func SourceFromURL(raw string) Source {
	src, err := ParseURLSource(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// SourceFor picks a Source kind from the shape of location: http(s) URLs,
// file:// URLs and absolute paths map to URL and file sources, anything else
// is treated as an fs.FS entry.
func SourceFor(location string) (Source, error) {
	trimmed := strings.TrimSpace(location)
	switch {
	case trimmed == "":
		return nil, fmt.Errorf("schema: empty location")
	case strings.HasPrefix(trimmed, "http://"), strings.HasPrefix(trimmed, "https://"):
		return ParseURLSource(trimmed)
	case strings.HasPrefix(trimmed, "file://"):
		return SourceFromFile(strings.TrimPrefix(trimmed, "file://")), nil
	case filepath.IsAbs(trimmed):
		return SourceFromFile(trimmed), nil
	default:
		return SourceFromFS(trimmed), nil
	}
}
