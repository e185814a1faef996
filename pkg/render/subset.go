package render

import (
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/model"
)

// Subset selects part of a form by item path ("address.city"). Selecting an
// object keeps its whole subtree; selecting a nested item keeps its
// ancestors with only the selected branches.
type Subset struct {
	Paths []string
}

// ParseSubset reads a comma separated path list.
func ParseSubset(raw string) Subset {
	var subset Subset
	for _, token := range strings.Split(raw, ",") {
		if token = strings.Trim(strings.TrimSpace(token), "."); token != "" {
			subset.Paths = append(subset.Paths, token)
		}
	}
	return subset
}

// Empty reports whether the subset selects everything.
func (s Subset) Empty() bool {
	return len(s.Paths) == 0
}

// ApplySubset returns the items selected by subset. An empty subset returns
// items unchanged.
func ApplySubset(items []model.FormItem, subset Subset) []model.FormItem {
	if subset.Empty() {
		return items
	}
	selected := make(map[string]struct{}, len(subset.Paths))
	for _, path := range subset.Paths {
		selected[path] = struct{}{}
	}
	return filterItems(items, selected)
}

func filterItems(items []model.FormItem, selected map[string]struct{}) []model.FormItem {
	var out []model.FormItem
	for _, item := range items {
		if _, ok := selected[item.Path]; ok {
			out = append(out, item)
			continue
		}
		if !hasSelectedDescendant(item.Path, selected) {
			continue
		}
		pruned := item
		pruned.Children = filterItems(item.Children, selected)
		if len(pruned.Children) > 0 {
			out = append(out, pruned)
		}
	}
	return out
}

func hasSelectedDescendant(path string, selected map[string]struct{}) bool {
	prefix := path + "."
	for candidate := range selected {
		if strings.HasPrefix(candidate, prefix) {
			return true
		}
	}
	return false
}
