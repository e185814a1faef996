package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/model"
)

// ErrNotAList reports Append or Remove on a path that is not an array.
var ErrNotAList = errors.New("render: path is not a list")

// Session owns the editable value of one form. Every edit builds a new tree
// and swaps it in, so trees handed out earlier are never mutated.
type Session struct {
	mu      sync.Mutex
	form    mixins.Form
	adapter *editable.Adapter
	logger  *slog.Logger
	tree    map[string]any
	saved   map[string]any
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithAdapter sets the adapter used for element ids.
func WithAdapter(adapter *editable.Adapter) SessionOption {
	return func(s *Session) {
		if adapter != nil {
			s.adapter = adapter
		}
	}
}

// WithLogger routes session diagnostics to logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession wraps value for editing against form. A nil value starts an
// empty form.
func NewSession(form mixins.Form, value map[string]any, options ...SessionOption) *Session {
	s := &Session{
		form:    form,
		adapter: editable.New(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.tree = s.adapter.ToEditableMap(value)
	s.saved = s.cleanLocked()
	return s
}

// Form returns the form the session edits.
func (s *Session) Form() mixins.Form {
	return s.form
}

// Tree returns the current editable tree. Callers must treat it as read-only.
func (s *Session) Tree() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Get returns the editable value at path.
func (s *Session) Get(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return editable.Get(s.tree, path)
}

// Set writes value at path.
func (s *Session) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.itemLocked(path); err != nil {
		return err
	}
	return s.setLocked(path, value)
}

// Input coerces raw through the control of the leaf at path and stores the
// result. opts select the input locale; the session adapter is always used
// for new element ids.
func (s *Session) Input(path string, raw any, opts ...controls.ResolveOption) (any, error) {
	return s.apply(path, raw, controls.Control.Input, opts)
}

// Blur finishes editing the leaf at path, see controls.Control.Blur.
func (s *Session) Blur(path string, raw any, opts ...controls.ResolveOption) (any, error) {
	return s.apply(path, raw, controls.Control.Blur, opts)
}

func (s *Session) apply(path string, raw any, fn func(controls.Control, any) (any, error), opts []controls.ResolveOption) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.itemLocked(path)
	if err != nil {
		return nil, err
	}
	if item.Kind.Composite() {
		return nil, fmt.Errorf("render: %q is a %s, not a leaf: %w", path, item.Kind, editable.ErrUnknownPath)
	}
	current, _ := editable.Get(s.tree, path)
	control := controls.Resolve(item, current, nil, append(opts, controls.WithAdapter(s.adapter))...)
	value, err := fn(control, raw)
	if err != nil {
		return nil, fmt.Errorf("render: %s: %w", path, err)
	}
	if err := s.setLocked(path, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Append adds an element with the default value of the array's element kind
// and returns its id.
func (s *Session) Append(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.itemLocked(path)
	if err != nil {
		return "", err
	}
	if item.Kind != model.KindArray {
		return "", fmt.Errorf("render: append %q: %w", path, ErrNotAList)
	}
	list, err := editable.GetList(s.tree, path)
	if err != nil {
		return "", err
	}
	next, id := s.adapter.Append(list, item.ElementKind)
	if err := s.setLocked(path, next); err != nil {
		return "", err
	}
	s.logger.Debug("render: element appended", "schema", s.form.SchemaID, "path", path, "id", id)
	return id, nil
}

// Remove deletes the element at index from the array at path.
func (s *Session) Remove(path string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.itemLocked(path)
	if err != nil {
		return err
	}
	if item.Kind != model.KindArray {
		return fmt.Errorf("render: remove %q: %w", path, ErrNotAList)
	}
	list, err := editable.GetList(s.tree, path)
	if err != nil {
		return err
	}
	next, err := editable.Remove(list, index)
	if err != nil {
		return fmt.Errorf("render: remove %q: %w", path, err)
	}
	return s.setLocked(path, next)
}

// Dirty reports whether the cleaned value differs from the last saved one.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !sameValue(s.cleanLocked(), s.saved)
}

// Value returns the persistable value: ids removed, blanks stripped.
func (s *Session) Value() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanLocked()
}

// Save hands the current value to persister. On success the value becomes
// the new clean baseline; on failure the session stays dirty.
func (s *Session) Save(ctx context.Context, persister mixins.Persister) error {
	if persister == nil {
		return errors.New("render: persister is required")
	}
	value := s.Value()
	if err := persister.Save(ctx, s.form.SchemaID, value, s.form.SchemaURL); err != nil {
		s.logger.Warn("render: save failed", "schema", s.form.SchemaID, "error", err)
		return err
	}
	s.mu.Lock()
	s.saved = value
	s.mu.Unlock()
	s.logger.Info("render: saved", "schema", s.form.SchemaID)
	return nil
}

// Nodes builds the node tree bound to this session. Control input flows back
// through Session.Set.
func (s *Session) Nodes(opts Options) []Node {
	tree := s.Tree()
	if opts.Adapter == nil {
		opts.Adapter = s.adapter
	}
	if opts.OnChange == nil {
		opts.OnChange = func(path string, value any) {
			if err := s.Set(path, value); err != nil {
				s.logger.Warn("render: change rejected", "path", path, "error", err)
			}
		}
	}
	return Build(s.form.Items, tree, opts)
}

// View snapshots the session for a Renderer.
func (s *Session) View(opts Options) View {
	return View{
		SchemaID:    s.form.SchemaID,
		SchemaURL:   s.form.SchemaURL,
		Title:       s.form.Title,
		Description: s.form.Description,
		Nodes:       s.Nodes(opts),
		Dirty:       s.Dirty(),
	}
}

func (s *Session) cleanLocked() map[string]any {
	return editable.StripMap(editable.FromEditableMap(s.tree))
}

// sameValue compares two cleaned values by their JSON encoding, so a
// decoded float64(5) and a coerced int64(5) count as equal.
func sameValue(a, b map[string]any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(left, right)
}

func (s *Session) setLocked(path string, value any) error {
	next, err := editable.Set(s.tree, path, value)
	if err != nil {
		return err
	}
	s.tree = next
	return nil
}

// itemLocked maps a value path onto the form item it edits. The segment
// after an array item is an element id; an element path resolves to a
// synthetic item of the array's element kind.
func (s *Session) itemLocked(path string) (model.FormItem, error) {
	segments := editable.SplitPath(path)
	if len(segments) == 0 {
		return model.FormItem{}, fmt.Errorf("render: empty path: %w", editable.ErrUnknownPath)
	}
	items := s.form.Items
	var (
		node    any = s.tree
		current model.FormItem
	)
	for i := 0; i < len(segments); i++ {
		item, ok := findItem(items, segments[i])
		if !ok {
			return model.FormItem{}, fmt.Errorf("render: %q: %w", path, editable.ErrUnknownPath)
		}
		current = item
		fields, _ := node.(map[string]any)
		node = fields[segments[i]]
		items = item.Children
		if item.Kind != model.KindArray || i == len(segments)-1 {
			continue
		}

		i++
		list, _ := node.(editable.List)
		idx := list.Index(segments[i])
		if idx < 0 {
			return model.FormItem{}, fmt.Errorf("render: element %q of %q: %w", segments[i], path, editable.ErrUnknownPath)
		}
		node = list[idx].Value
		if i == len(segments)-1 {
			return elementItem(item), nil
		}
		if item.ElementKind != model.KindObject {
			return model.FormItem{}, fmt.Errorf("render: %q: %w", path, editable.ErrUnknownPath)
		}
	}
	return current, nil
}

func findItem(items []model.FormItem, key string) (model.FormItem, bool) {
	for _, item := range items {
		if item.Key == key {
			return item, true
		}
	}
	return model.FormItem{}, false
}
