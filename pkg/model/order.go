package model

import "sort"

// orderRank places simple fields first and nested sections last:
// scalars < arrays of scalars < objects < arrays of objects.
func orderRank(item FormItem) int {
	switch {
	case item.IsArrayOfObjects():
		return 3
	case item.Kind == KindObject:
		return 2
	case item.Kind == KindArray:
		return 1
	default:
		return 0
	}
}

// SortItems returns a copy of items ordered for presentation, applying the
// same rule to every nesting level. Ties are broken by key.
func SortItems(items []FormItem) []FormItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]FormItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := orderRank(out[i]), orderRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].Key < out[j].Key
	})
	for i := range out {
		out[i].Children = SortItems(out[i].Children)
	}
	return out
}
