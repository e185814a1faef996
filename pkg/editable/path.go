package editable

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPath reports a path that does not address a node of the tree.
	ErrUnknownPath = errors.New("editable: unknown path")
	// ErrIndexOutOfRange reports a list position outside the list.
	ErrIndexOutOfRange = errors.New("editable: index out of range")
)

// SplitPath breaks a dotted path into segments. Object keys and element ids
// are both plain segments.
func SplitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// JoinPath appends child segments to parent.
func JoinPath(parent string, children ...string) string {
	parts := SplitPath(parent)
	for _, child := range children {
		parts = append(parts, SplitPath(child)...)
	}
	return strings.Join(parts, ".")
}

// Get resolves path inside an editable tree. List segments are element ids,
// never positions.
func Get(root any, path string) (any, bool) {
	current := root
	for _, segment := range SplitPath(path) {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case List:
			idx := node.Index(segment)
			if idx < 0 {
				return nil, false
			}
			current = node[idx].Value
		default:
			return nil, false
		}
	}
	return current, true
}

// Set returns a copy of root with value written at path. Only the nodes on
// the path are copied; missing object keys are created, missing element ids
// are an error.
func Set(root map[string]any, path string, value any) (map[string]any, error) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("editable: empty path: %w", ErrUnknownPath)
	}
	out, err := setIn(root, segments, value, path)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func setIn(node any, segments []string, value any, path string) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	segment := segments[0]
	switch typed := node.(type) {
	case nil:
		child, err := setIn(nil, segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		return map[string]any{segment: child}, nil
	case map[string]any:
		out := make(map[string]any, len(typed)+1)
		for key, child := range typed {
			out[key] = child
		}
		child, err := setIn(typed[segment], segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		out[segment] = child
		return out, nil
	case List:
		idx := typed.Index(segment)
		if idx < 0 {
			return nil, fmt.Errorf("editable: element %q in %q: %w", segment, path, ErrUnknownPath)
		}
		out := make(List, len(typed))
		copy(out, typed)
		child, err := setIn(typed[idx].Value, segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		out[idx] = Element{ID: typed[idx].ID, Value: child}
		return out, nil
	default:
		return nil, fmt.Errorf("editable: %q crosses a %T leaf: %w", path, node, ErrUnknownPath)
	}
}

// GetList resolves path to a List. A missing or nil node yields an empty List.
func GetList(root any, path string) (List, error) {
	node, ok := Get(root, path)
	if !ok || node == nil {
		return List{}, nil
	}
	list, ok := node.(List)
	if !ok {
		return nil, fmt.Errorf("editable: %q holds %T, not a list: %w", path, node, ErrUnknownPath)
	}
	return list, nil
}
