package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Document wraps a raw mixins schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Decode parses the payload into its root Property.
func (d Document) Decode() (*Property, error) {
	if len(d.raw) == 0 {
		return nil, errors.New("schema: document is empty")
	}
	var root Property
	if err := json.Unmarshal(d.raw, &root); err != nil {
		return nil, fmt.Errorf("schema: decode %s: %w", d.Location(), err)
	}
	return &root, nil
}
