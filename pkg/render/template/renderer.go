package template

import (
	"errors"
	"io"
)

// ErrFilterExists reports a filter name that is already registered. Engines
// with process-wide filters return it when a second renderer registers the
// same helper; callers may treat it as success.
var ErrFilterExists = errors.New("template: filter already registered")

// FilterFunc transforms a template value. param is nil when the template
// passes no argument.
type FilterFunc func(input any, param any) (any, error)

// TemplateRenderer is the engine seam renderers rely on. Output is returned
// and also copied to every writer in out.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn FilterFunc) error
	GlobalContext(data any) error
}
