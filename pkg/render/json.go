package render

import (
	"context"
	"encoding/json"
)

// JSONRenderer emits the View as indented JSON for API clients and
// previews.
type JSONRenderer struct{}

var _ Renderer = JSONRenderer{}

// Name implements Renderer.
func (JSONRenderer) Name() string { return "json" }

// ContentType implements Renderer.
func (JSONRenderer) ContentType() string { return "application/json; charset=utf-8" }

// Render implements Renderer.
func (JSONRenderer) Render(ctx context.Context, view View, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload := struct {
		View
		Errors []string `json:"errors,omitempty"`
	}{View: view, Errors: normalizeMessages(options.FormErrors)}
	if payload.Nodes == nil {
		payload.Nodes = []Node{}
	}
	return json.MarshalIndent(payload, "", "  ")
}
