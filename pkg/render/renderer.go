package render

import (
	"context"
)

// View is a rendered-ready snapshot of one form session.
type View struct {
	SchemaID    string `json:"schemaId"`
	SchemaURL   string `json:"schemaUrl"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Nodes       []Node `json:"nodes"`
	Dirty       bool   `json:"dirty"`
}

// Renderer converts a View into a byte representation (HTML, JSON, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}
